package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/khanghh/taskvault/internal/users"
	"github.com/khanghh/taskvault/params"
)

// TokenClaims is the payload carried by every issued token. MFAPending marks
// the short-lived token handed out between password login and MFA
// verification; it grants access to the MFA verification endpoint only.
type TokenClaims struct {
	Email      string `json:"email"`
	Role       string `json:"role"`
	MFAPending bool   `json:"mfa,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject id, 0 if the claim is malformed.
func (c *TokenClaims) UserID() uint {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

type TokenService struct {
	masterKey []byte
}

func (s *TokenService) issue(user users.SafeUser, expiresIn time.Duration, mfaPending bool) (string, error) {
	claims := TokenClaims{
		Email:      user.Email,
		Role:       user.Role,
		MFAPending: mfaPending,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.masterKey)
}

// IssueAccessToken issues the standard access token.
func (s *TokenService) IssueAccessToken(user users.SafeUser) (string, error) {
	return s.issue(user, params.AccessTokenExpiration, false)
}

// IssueMFAToken issues the short-lived MFA-pending token.
func (s *TokenService) IssueMFAToken(user users.SafeUser) (string, error) {
	return s.issue(user, params.MFATokenExpiration, true)
}

// Verify checks signature and expiry and returns the parsed claims.
func (s *TokenService) Verify(tokenStr string) (*TokenClaims, error) {
	var claims TokenClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.masterKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrUnauthorized
	}
	return &claims, nil
}

func NewTokenService(masterKey string) *TokenService {
	return &TokenService{
		masterKey: []byte(masterKey),
	}
}

// NormalizeBearerToken strips the "Bearer " prefix from an Authorization
// header value. Returns "" when no token is present.
func NormalizeBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

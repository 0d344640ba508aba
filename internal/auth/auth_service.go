package auth

import (
	"context"
	"crypto/rand"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/khanghh/taskvault/internal/audit"
	mailpkg "github.com/khanghh/taskvault/internal/mail"
	"github.com/khanghh/taskvault/internal/users"
	"github.com/khanghh/taskvault/model"
	"github.com/khanghh/taskvault/params"
	"golang.org/x/crypto/bcrypt"
)

type otpPurpose string

const (
	purposeVerification  otpPurpose = "verification"
	purposePasswordReset otpPurpose = "password-reset"
	purposeLogin         otpPurpose = "login"
)

// LoginResult is returned by Login and VerifyLoginWithMFA. When MFARequired
// is set only TempToken is populated; the caller must complete the MFA
// challenge to obtain an access token.
type LoginResult struct {
	MFARequired bool            `json:"mfaRequired,omitempty"`
	TempToken   string          `json:"tempToken,omitempty"`
	AccessToken string          `json:"accessToken,omitempty"`
	User        *users.SafeUser `json:"user,omitempty"`
}

type OTPStatus struct {
	Valid     bool       `json:"valid"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type AuthService struct {
	userRepo   users.UserRepository
	tokens     *TokenService
	blacklist  *TokenBlacklist
	auditLog   *audit.Logger
	mailSender mailpkg.MailSender
	siteName   string
}

func generateOTP(length int) string {
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, _ := rand.Int(rand.Reader, ten)
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String()
}

func (s *AuthService) Tokens() *TokenService {
	return s.tokens
}

// Register creates an unverified user, stores a fresh verification OTP and
// dispatches it by email. Mail failures are audited, never propagated.
func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (users.SafeUser, error) {
	email = users.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return users.SafeUser{}, ErrInvalidEmail
	}
	switch role {
	case "":
		role = model.RoleGuest
	case model.RoleGuest, model.RoleOwner, model.RoleAdmin:
	default:
		return users.SafeUser{}, ErrInvalidRole
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return users.SafeUser{}, err
	}

	otpCode := generateOTP(params.OTPCodeLength)
	otpExpiresAt := time.Now().Add(params.OTPExpiration)
	user := model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         role,
		OTPCode:      otpCode,
		OTPExpiresAt: &otpExpiresAt,
	}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		return users.SafeUser{}, err
	}

	if err := mailpkg.SendVerificationCode(s.mailSender, user.Email, otpCode); err != nil {
		s.auditLog.Log(ctx, audit.EventTypeOTPSendFailed, user.ID, map[string]interface{}{
			"email":  user.Email,
			"reason": err.Error(),
		})
	} else {
		s.auditLog.Log(ctx, audit.EventTypeOTPSent, user.ID, map[string]interface{}{
			"purpose": string(purposeVerification),
		})
	}
	s.auditLog.Log(ctx, audit.EventTypeUserRegistered, user.ID, map[string]interface{}{
		"email": user.Email,
	})
	return users.ToSafeUser(&user), nil
}

// VerifyOTP marks the account's email verified when the submitted code
// matches the stored one and has not expired. Expiry is a wall-clock
// comparison at call time, no grace window.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (users.SafeUser, error) {
	user, err := s.userRepo.FindByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		return users.SafeUser{}, err
	}

	if user.OTPCode == "" || user.OTPExpiresAt == nil || user.OTPCode != code || time.Now().After(*user.OTPExpiresAt) {
		s.auditLog.Log(ctx, audit.EventTypeOTPSendFailed, user.ID, map[string]interface{}{
			"email":  user.Email,
			"reason": "invalid_or_expired",
		})
		return users.SafeUser{}, ErrInvalidOTP
	}

	err = s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"email_verified": true,
		"otp_code":       "",
		"otp_expires_at": nil,
	})
	if err != nil {
		return users.SafeUser{}, err
	}

	if err := mailpkg.SendVerifiedNotice(s.mailSender, user.Email,
		"Your email has been successfully verified. You can now log in to your account."); err != nil {
		s.auditLog.Log(ctx, audit.EventTypeOTPSendFailed, user.ID, map[string]interface{}{
			"email":  user.Email,
			"reason": err.Error(),
		})
	}
	s.auditLog.Log(ctx, audit.EventTypeEmailVerified, user.ID, map[string]interface{}{
		"email": user.Email,
	})

	user.EmailVerified = true
	return users.ToSafeUser(user), nil
}

// ValidateUser checks the password against the stored hash. Unknown email and
// wrong password fail with the same error so callers cannot enumerate
// accounts; the distinction is kept only in the audit trail.
func (s *AuthService) ValidateUser(ctx context.Context, email, password string) (users.SafeUser, error) {
	email = users.NormalizeEmail(email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil || user.PasswordHash == "" {
		s.auditLog.Log(ctx, audit.EventTypeLoginFailure, 0, map[string]interface{}{
			"email":  email,
			"reason": "unknown_email_or_no_password",
		})
		return users.SafeUser{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.auditLog.Log(ctx, audit.EventTypeLoginFailure, user.ID, map[string]interface{}{
			"email":  email,
			"reason": "invalid_password",
		})
		return users.SafeUser{}, ErrInvalidCredentials
	}
	return users.ToSafeUser(user), nil
}

// Login authenticates with email and password. Users with MFA enabled get a
// short-lived MFA-pending token instead of an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.ValidateUser(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if user.MFAEnabled {
		tempToken, err := s.tokens.IssueMFAToken(user)
		if err != nil {
			return nil, err
		}
		return &LoginResult{MFARequired: true, TempToken: tempToken}, nil
	}

	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	s.auditLog.Log(ctx, audit.EventTypeLoginSuccess, user.ID, map[string]interface{}{
		"email": user.Email,
		"role":  user.Role,
	})
	return &LoginResult{AccessToken: accessToken, User: &user}, nil
}

// Logout revokes the presented access token. A token that no longer verifies
// needs no blacklisting, so the call reports success either way.
func (s *AuthService) Logout(ctx context.Context, bearerToken string) error {
	token := NormalizeBearerToken(bearerToken)
	if token == "" {
		return ErrMissingToken
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		// invalid or already expired, nothing to revoke
		return nil
	}

	if err := s.blacklist.Insert(ctx, token, claims.ExpiresAt.Time); err != nil {
		return err
	}
	s.auditLog.Log(ctx, audit.EventTypeLogout, claims.UserID(), nil)
	return nil
}

func (s *AuthService) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	return s.blacklist.Exists(ctx, token)
}

// sendOTPGeneric generates and dispatches a fresh OTP for the given purpose.
// The rate limit is opt-in per call site; dispatch failure never surfaces to
// the caller.
func (s *AuthService) sendOTPGeneric(ctx context.Context, email string, purpose otpPurpose, rateLimited bool) error {
	user, err := s.userRepo.FindByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if purpose == purposeVerification && user.EmailVerified {
		return ErrAlreadyVerified
	}

	lastExpiry := user.OTPExpiresAt
	if purpose == purposePasswordReset {
		lastExpiry = user.ResetOTPExpiresAt
	}
	if rateLimited && lastExpiry != nil {
		issuedAt := lastExpiry.Add(-params.OTPExpiration)
		if time.Since(issuedAt) < params.OTPResendCooldown {
			return ErrOTPRateLimited
		}
	}

	otpCode := generateOTP(params.OTPCodeLength)
	otpExpiresAt := time.Now().Add(params.OTPExpiration)
	fields := map[string]interface{}{
		"otp_code":       otpCode,
		"otp_expires_at": otpExpiresAt,
	}
	if purpose == purposePasswordReset {
		fields = map[string]interface{}{
			"reset_otp_code":       otpCode,
			"reset_otp_expires_at": otpExpiresAt,
		}
	}
	if err := s.userRepo.UpdateFields(ctx, user.ID, fields); err != nil {
		return err
	}

	var sendErr error
	if purpose == purposePasswordReset {
		sendErr = mailpkg.SendPasswordResetCode(s.mailSender, user.Email, otpCode)
	} else {
		// login OTP reuses the verification template
		sendErr = mailpkg.SendVerificationCode(s.mailSender, user.Email, otpCode)
	}
	if sendErr != nil {
		s.auditLog.Log(ctx, audit.EventTypeOTPSendFailed, user.ID, map[string]interface{}{
			"email":   user.Email,
			"purpose": string(purpose),
			"reason":  sendErr.Error(),
		})
		return nil
	}
	if purpose == purposePasswordReset {
		s.auditLog.Log(ctx, audit.EventTypePasswordResetRequested, user.ID, nil)
	} else {
		s.auditLog.Log(ctx, audit.EventTypeOTPSent, user.ID, map[string]interface{}{
			"purpose": string(purpose),
		})
	}
	return nil
}

func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	return s.sendOTPGeneric(ctx, email, purposeVerification, false)
}

func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	return s.sendOTPGeneric(ctx, email, purposeVerification, true)
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.sendOTPGeneric(ctx, email, purposePasswordReset, false)
}

func (s *AuthService) CheckOTPStatus(ctx context.Context, email string) (*OTPStatus, error) {
	user, err := s.userRepo.FindByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	valid := user.OTPCode != "" && user.OTPExpiresAt != nil && time.Now().Before(*user.OTPExpiresAt)
	return &OTPStatus{Valid: valid, ExpiresAt: user.OTPExpiresAt}, nil
}

// ResetPassword validates the password-reset OTP with the same rules as
// VerifyOTP and replaces the stored password hash.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.userRepo.FindByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		return err
	}

	if user.ResetOTPCode == "" || user.ResetOTPExpiresAt == nil || user.ResetOTPCode != code ||
		time.Now().After(*user.ResetOTPExpiresAt) {
		return ErrInvalidOTP
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	err = s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"password_hash":        string(passwordHash),
		"reset_otp_code":       "",
		"reset_otp_expires_at": nil,
	})
	if err != nil {
		return err
	}
	s.auditLog.Log(ctx, audit.EventTypePasswordChanged, user.ID, map[string]interface{}{
		"method": "otp_reset",
	})
	return nil
}

func NewAuthService(
	userRepo users.UserRepository,
	tokens *TokenService,
	blacklist *TokenBlacklist,
	auditLog *audit.Logger,
	mailSender mailpkg.MailSender,
	siteName string,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		blacklist:  blacklist,
		auditLog:   auditLog,
		mailSender: mailSender,
		siteName:   siteName,
	}
}

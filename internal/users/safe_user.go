package users

import (
	"strings"

	"github.com/khanghh/taskvault/model"
)

// SafeUser is the redacted read model exposed outside the users and auth
// packages. It carries no password hash, MFA secret or backup codes; it is
// the only user shape that may be serialized.
type SafeUser struct {
	ID            uint   `json:"id,string"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
	MFAEnabled    bool   `json:"mfaEnabled"`
}

// ToSafeUser is the single conversion point from the persistence record to
// the redacted view.
func ToSafeUser(user *model.User) SafeUser {
	return SafeUser{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
		MFAEnabled:    user.MFAEnabled,
	}
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/khanghh/taskvault/internal/audit"
	"github.com/khanghh/taskvault/internal/users"
	"github.com/khanghh/taskvault/model"
	"github.com/khanghh/taskvault/params"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"gorm.io/datatypes"
)

// MFASetup is returned by EnableMFA. Secret and backup codes are shown to the
// client exactly once; afterwards they only exist redacted on the user record.
type MFASetup struct {
	OTPAuthURL  string   `json:"otpauthUrl"`
	Secret      string   `json:"base32"`
	BackupCodes []string `json:"backupCodes"`
}

func generateBackupCodes(count int) []string {
	codes := make([]string, count)
	for i := range codes {
		raw := make([]byte, params.MFABackupCodeByteLength)
		if _, err := rand.Read(raw); err != nil {
			panic(fmt.Errorf("failed to generate random bytes: %w", err))
		}
		codes[i] = hex.EncodeToString(raw)
	}
	return codes
}

func validateTOTP(code string, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      params.TOTPSkewSteps,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// EnableMFA generates a fresh TOTP secret and backup codes but leaves MFA
// disabled until the user confirms a live code via VerifyMFASetup. Two-phase
// setup avoids locking the user out with an unconfirmed secret.
func (s *AuthService) EnableMFA(ctx context.Context, userID uint) (*MFASetup, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.siteName,
		AccountName: fmt.Sprintf("user-%d", user.ID),
	})
	if err != nil {
		return nil, err
	}
	backupCodes := generateBackupCodes(params.MFABackupCodeCount)

	err = s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"mfa_secret":       key.Secret(),
		"mfa_backup_codes": datatypes.NewJSONSlice(backupCodes),
		"mfa_enabled":      false,
	})
	if err != nil {
		return nil, err
	}
	s.auditLog.Log(ctx, audit.EventTypeMFAEnabled, user.ID, map[string]interface{}{
		"action": "setup_generated",
	})
	return &MFASetup{
		OTPAuthURL:  key.URL(),
		Secret:      key.Secret(),
		BackupCodes: backupCodes,
	}, nil
}

// VerifyMFASetup confirms the enrolled secret with a live TOTP code and
// activates MFA. A failed check is recorded under the mfa_disabled event
// kind with reason invalid_setup_token; MFA state does not change.
func (s *AuthService) VerifyMFASetup(ctx context.Context, userID uint, code string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.MFASecret == "" {
		return ErrMFANotInitialized
	}

	if !validateTOTP(code, user.MFASecret) {
		s.auditLog.Log(ctx, audit.EventTypeMFADisabled, user.ID, map[string]interface{}{
			"reason": "invalid_setup_token",
		})
		return ErrInvalidMFACode
	}

	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{"mfa_enabled": true}); err != nil {
		return err
	}
	s.auditLog.Log(ctx, audit.EventTypeMFAEnabled, user.ID, map[string]interface{}{
		"action": "enabled",
	})
	return nil
}

// consumeBackupCode removes the code from the stored set when present. This
// is the one read-modify-write sequence in the system; two concurrent logins
// spending the same code may rarely both pass before persistence.
func (s *AuthService) consumeBackupCode(ctx context.Context, user *model.User, code string) (bool, error) {
	idx := -1
	for i, stored := range user.MFABackupCodes {
		if stored == code {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, nil
	}
	remaining := append(user.MFABackupCodes[:idx:idx], user.MFABackupCodes[idx+1:]...)
	err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"mfa_backup_codes": datatypes.NewJSONSlice([]string(remaining)),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// VerifyLoginWithMFA completes an MFA-pending login with either a live TOTP
// code or a single-use backup code and issues the standard access token.
func (s *AuthService) VerifyLoginWithMFA(ctx context.Context, userID uint, totpCode string, backupCode string) (*LoginResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.MFAEnabled {
		return nil, ErrMFANotEnabled
	}

	var ok bool
	switch {
	case totpCode != "":
		ok = validateTOTP(totpCode, user.MFASecret)
	case backupCode != "":
		ok, err = s.consumeBackupCode(ctx, user, backupCode)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		s.auditLog.Log(ctx, audit.EventTypeLoginFailure, user.ID, map[string]interface{}{
			"reason": "invalid_mfa",
		})
		return nil, ErrInvalidMFACode
	}

	safeUser := users.ToSafeUser(user)
	accessToken, err := s.tokens.IssueAccessToken(safeUser)
	if err != nil {
		return nil, err
	}
	s.auditLog.Log(ctx, audit.EventTypeLoginSuccess, user.ID, map[string]interface{}{
		"mfa": true,
	})
	return &LoginResult{AccessToken: accessToken, User: &safeUser}, nil
}

// DisableMFA clears the enabled flag, secret and backup codes.
func (s *AuthService) DisableMFA(ctx context.Context, userID uint) error {
	err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"mfa_enabled":      false,
		"mfa_secret":       "",
		"mfa_backup_codes": datatypes.NewJSONSlice([]string{}),
	})
	if err != nil {
		return err
	}
	s.auditLog.Log(ctx, audit.EventTypeMFADisabled, userID, map[string]interface{}{
		"action": "disabled",
	})
	return nil
}

// RegenerateBackupCodes replaces the stored set with a fresh one.
func (s *AuthService) RegenerateBackupCodes(ctx context.Context, userID uint) ([]string, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	backupCodes := generateBackupCodes(params.MFABackupCodeCount)
	err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"mfa_backup_codes": datatypes.NewJSONSlice(backupCodes),
	})
	if err != nil {
		return nil, err
	}
	s.auditLog.Log(ctx, audit.EventTypeMFAEnabled, userID, map[string]interface{}{
		"action": "regen_backup_codes",
	})
	return backupCodes, nil
}

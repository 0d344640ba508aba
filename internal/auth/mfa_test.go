package auth

import (
	"context"
	"testing"
	"time"

	"github.com/khanghh/taskvault/internal/users"
	"github.com/khanghh/taskvault/params"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMFAUser(t *testing.T, env *testEnv) (users.SafeUser, *MFASetup) {
	t.Helper()
	ctx := context.Background()
	user := mustRegister(t, env, "alice@example.com")
	mustVerify(t, env, user)

	setup, err := env.svc.EnableMFA(ctx, user.ID)
	require.NoError(t, err)
	return user, setup
}

func totpCodeFor(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	return code
}

func TestEnableMFATwoPhase(t *testing.T) {
	env := newTestEnv()
	user, setup := setupMFAUser(t, env)

	assert.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.OTPAuthURL, "otpauth://totp/")
	assert.Len(t, setup.BackupCodes, params.MFABackupCodeCount)
	for _, code := range setup.BackupCodes {
		assert.Len(t, code, params.MFABackupCodeByteLength*2)
	}

	// secret is staged but MFA stays off until the live code confirms it
	stored := env.userRepo.get(user.ID)
	assert.Equal(t, setup.Secret, stored.MFASecret)
	assert.False(t, stored.MFAEnabled)
}

func TestVerifyMFASetup(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user, setup := setupMFAUser(t, env)

	err := env.svc.VerifyMFASetup(ctx, user.ID, "000000")
	assert.ErrorIs(t, err, ErrInvalidMFACode)
	assert.False(t, env.userRepo.get(user.ID).MFAEnabled)
	details := env.auditRepo.lastDetails("mfa_disabled")
	require.NotNil(t, details)
	assert.Equal(t, "invalid_setup_token", details["reason"])

	require.NoError(t, env.svc.VerifyMFASetup(ctx, user.ID, totpCodeFor(t, setup.Secret)))
	assert.True(t, env.userRepo.get(user.ID).MFAEnabled)
	details = env.auditRepo.lastDetails("mfa_enabled")
	require.NotNil(t, details)
	assert.Equal(t, "enabled", details["action"])
}

func TestVerifyMFASetupNotInitialized(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := mustRegister(t, env, "alice@example.com")
	mustVerify(t, env, user)

	err := env.svc.VerifyMFASetup(ctx, user.ID, "123456")
	assert.ErrorIs(t, err, ErrMFANotInitialized)
}

func TestVerifyLoginWithMFATOTP(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user, setup := setupMFAUser(t, env)
	require.NoError(t, env.svc.VerifyMFASetup(ctx, user.ID, totpCodeFor(t, setup.Secret)))

	result, err := env.svc.VerifyLoginWithMFA(ctx, user.ID, totpCodeFor(t, setup.Secret), "")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	assert.False(t, result.MFARequired)

	claims, err := env.tokens.Verify(result.AccessToken)
	require.NoError(t, err)
	assert.False(t, claims.MFAPending)
	assert.Equal(t, user.ID, claims.UserID())

	details := env.auditRepo.lastDetails("login_success")
	require.NotNil(t, details)
	assert.Equal(t, true, details["mfa"])
}

func TestVerifyLoginWithMFAInvalidCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user, setup := setupMFAUser(t, env)
	require.NoError(t, env.svc.VerifyMFASetup(ctx, user.ID, totpCodeFor(t, setup.Secret)))

	_, err := env.svc.VerifyLoginWithMFA(ctx, user.ID, "000000", "")
	assert.ErrorIs(t, err, ErrInvalidMFACode)
	details := env.auditRepo.lastDetails("login_failed")
	require.NotNil(t, details)
	assert.Equal(t, "invalid_mfa", details["reason"])
}

func TestVerifyLoginWithMFANotEnabled(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user, _ := setupMFAUser(t, env)

	// setup generated but never confirmed
	_, err := env.svc.VerifyLoginWithMFA(ctx, user.ID, "123456", "")
	assert.ErrorIs(t, err, ErrMFANotEnabled)
}

func TestBackupCodeSingleUse(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user, setup := setupMFAUser(t, env)
	require.NoError(t, env.svc.VerifyMFASetup(ctx, user.ID, totpCodeFor(t, setup.Secret)))

	backupCode := setup.BackupCodes[0]
	result, err := env.svc.VerifyLoginWithMFA(ctx, user.ID, "", backupCode)
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Len(t, env.userRepo.get(user.ID).MFABackupCodes, params.MFABackupCodeCount-1)

	_, err = env.svc.VerifyLoginWithMFA(ctx, user.ID, "", backupCode)
	assert.ErrorIs(t, err, ErrInvalidMFACode)

	// the remaining codes still work
	_, err = env.svc.VerifyLoginWithMFA(ctx, user.ID, "", setup.BackupCodes[1])
	assert.NoError(t, err)
}

func TestDisableMFA(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user, setup := setupMFAUser(t, env)
	require.NoError(t, env.svc.VerifyMFASetup(ctx, user.ID, totpCodeFor(t, setup.Secret)))

	require.NoError(t, env.svc.DisableMFA(ctx, user.ID))
	stored := env.userRepo.get(user.ID)
	assert.False(t, stored.MFAEnabled)
	assert.Empty(t, stored.MFASecret)
	assert.Empty(t, stored.MFABackupCodes)

	details := env.auditRepo.lastDetails("mfa_disabled")
	require.NotNil(t, details)
	assert.Equal(t, "disabled", details["action"])

	// login needs no MFA challenge anymore
	result, err := env.svc.Login(ctx, user.Email, "s3cret-pass")
	require.NoError(t, err)
	assert.False(t, result.MFARequired)
	assert.NotEmpty(t, result.AccessToken)
}

func TestRegenerateBackupCodes(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user, setup := setupMFAUser(t, env)
	require.NoError(t, env.svc.VerifyMFASetup(ctx, user.ID, totpCodeFor(t, setup.Secret)))

	fresh, err := env.svc.RegenerateBackupCodes(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, fresh, params.MFABackupCodeCount)
	assert.NotEqual(t, setup.BackupCodes, fresh)

	// old codes are invalidated
	_, err = env.svc.VerifyLoginWithMFA(ctx, user.ID, "", setup.BackupCodes[0])
	assert.ErrorIs(t, err, ErrInvalidMFACode)
	_, err = env.svc.VerifyLoginWithMFA(ctx, user.ID, "", fresh[0])
	assert.NoError(t, err)
}

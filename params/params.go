package params

import "time"

const (
	ServerBodyLimit    = 1048576 // 1 MiB
	ServerIdleTimeout  = 30 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 10 * time.Second

	BlacklistKeyPrefix = "bl:" // redis key prefix for revoked access tokens

	AccessTokenExpiration   = 7 * 24 * time.Hour // standard access token lifetime
	MFATokenExpiration      = 5 * time.Minute    // token issued while MFA verification is pending
	OTPExpiration           = 10 * time.Minute   // email OTP code lifetime
	OTPResendCooldown       = 2 * time.Minute    // minimum interval between OTP sends of the same purpose
	OTPCodeLength           = 6                  // numeric digits per OTP code
	MFABackupCodeCount      = 8                  // backup codes generated per MFA enrollment
	MFABackupCodeByteLength = 4                  // random bytes per backup code, hex encoded to 8 chars
	TOTPSkewSteps           = 1                  // accepted clock-skew window in 30s TOTP steps

	PageLimit    = 20  // default list query page size
	PageLimitMax = 100 // hard cap to protect the database

	HealthCheckServerAddr = ":3001" // health check server address
)

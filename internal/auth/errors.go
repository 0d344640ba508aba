package auth

import "errors"

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrOTPRateLimited     = errors.New("please wait before requesting a new OTP")
	ErrAlreadyVerified    = errors.New("email is already verified")
	ErrMissingToken       = errors.New("no token provided")
	ErrMFANotInitialized  = errors.New("MFA not initialized for user")
	ErrMFANotEnabled      = errors.New("MFA not enabled")
	ErrInvalidMFACode     = errors.New("invalid MFA token or backup code")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrSessionExpired     = errors.New("session expired, please sign in again")
)

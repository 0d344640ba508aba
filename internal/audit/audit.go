package audit

import (
	"context"
	"log/slog"

	"github.com/khanghh/taskvault/model"
)

const (
	EventTypeUserRegistered         = "user_registered"
	EventTypeEmailVerified          = "email_verified"
	EventTypeOTPSent                = "otp_sent"
	EventTypeOTPSendFailed          = "otp_send_failed"
	EventTypeLoginSuccess           = "login_success"
	EventTypeLoginFailure           = "login_failed"
	EventTypeLogout                 = "logout"
	EventTypePasswordResetRequested = "password_reset_requested"
	EventTypePasswordChanged        = "password_changed"
	// A failed TOTP enrollment check is recorded under EventTypeMFADisabled with
	// reason "invalid_setup_token" even though MFA is not toggled off. Inherited
	// product behavior; consumers must not infer an actual disable from it.
	EventTypeMFAEnabled         = "mfa_enabled"
	EventTypeMFADisabled        = "mfa_disabled"
	EventTypeUnauthorizedAccess = "unauthorized_access"
)

type EventRepository interface {
	RecordEvent(ctx context.Context, event *model.AuditLog) error
}

// Logger appends security events on a best-effort basis. Storage failures are
// logged and swallowed so that audit unavailability never fails the operation
// that emitted the event.
type Logger struct {
	repo EventRepository
}

func (l *Logger) Log(ctx context.Context, event string, userID uint, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	err := l.repo.RecordEvent(ctx, &model.AuditLog{
		Event:   event,
		UserID:  userID,
		Details: details,
	})
	if err != nil {
		slog.Error("Failed to record audit event", "event", event, "userId", userID, "error", err)
	}
}

func NewLogger(repo EventRepository) *Logger {
	return &Logger{
		repo: repo,
	}
}

package middlewares

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/taskvault/internal/audit"
	"github.com/khanghh/taskvault/internal/auth"
	"github.com/khanghh/taskvault/internal/todos"
	"github.com/khanghh/taskvault/internal/users"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func statusCodeOf(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "INVALID_CREDENTIALS"
	case errors.Is(err, auth.ErrEmailNotVerified):
		return fiber.StatusUnauthorized, "EMAIL_NOT_VERIFIED"
	case errors.Is(err, auth.ErrInvalidOTP):
		return fiber.StatusUnauthorized, "INVALID_OTP"
	case errors.Is(err, auth.ErrSessionExpired):
		return fiber.StatusUnauthorized, "SESSION_EXPIRED"
	case errors.Is(err, auth.ErrMFANotInitialized),
		errors.Is(err, auth.ErrMFANotEnabled),
		errors.Is(err, auth.ErrInvalidMFACode),
		errors.Is(err, auth.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, todos.ErrNotOwner):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, users.ErrEmailRegistered):
		return fiber.StatusConflict, "EMAIL_REGISTERED"
	case errors.Is(err, users.ErrUserNotFound), errors.Is(err, todos.ErrTodoNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, auth.ErrOTPRateLimited):
		return fiber.StatusTooManyRequests, "OTP_RATE_LIMITED"
	case errors.Is(err, auth.ErrAlreadyVerified),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, users.ErrInvalidRole),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, audit.ErrInvalidPurgeWindow):
		return fiber.StatusBadRequest, "BAD_REQUEST"
	}
	return fiber.StatusInternalServerError, "INTERNAL_ERROR"
}

// ErrorHandler translates application errors to JSON responses. Business-rule
// violations keep their user-facing message; everything unexpected is logged
// and collapsed to a generic 500.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return ctx.Status(e.Code).JSON(errorResponse{
			Error: errorBody{Code: "HTTP_ERROR", Message: e.Message},
		})
	}
	code, tag := statusCodeOf(err)
	if code == fiber.StatusInternalServerError {
		slog.Error("Unhandled error", "path", ctx.Path(), "error", err)
		return ctx.Status(code).JSON(errorResponse{
			Error: errorBody{Code: tag, Message: "Something went wrong"},
		})
	}
	return ctx.Status(code).JSON(errorResponse{
		Error: errorBody{Code: tag, Message: err.Error()},
	})
}

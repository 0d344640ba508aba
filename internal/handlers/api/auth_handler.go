package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/taskvault/internal/auth"
	"github.com/khanghh/taskvault/internal/middlewares"
)

type AuthHandler struct {
	authService *auth.AuthService
}

func (h *AuthHandler) PostRegister(ctx *fiber.Ctx) error {
	var req registerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	user, err := h.authService.Register(ctx.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registered. Verify email via OTP.",
		"user":    user,
	})
}

func (h *AuthHandler) PostVerifyOTP(ctx *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	user, err := h.authService.VerifyOTP(ctx.Context(), req.Email, req.OTP)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"message": "Email verified successfully",
		"user":    user,
	})
}

func (h *AuthHandler) PostLogin(ctx *fiber.Ctx) error {
	var req loginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	result, err := h.authService.Login(ctx.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}

func (h *AuthHandler) PostLogout(ctx *fiber.Ctx) error {
	if err := h.authService.Logout(ctx.Context(), ctx.Get(fiber.HeaderAuthorization)); err != nil {
		return err
	}
	return ctx.JSON(messageResponse{Message: "Logout successful"})
}

func (h *AuthHandler) PostSendOTP(ctx *fiber.Ctx) error {
	var req emailRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := h.authService.SendOTP(ctx.Context(), req.Email); err != nil {
		return err
	}
	return ctx.JSON(messageResponse{Message: "OTP sent to email"})
}

func (h *AuthHandler) PostResendOTP(ctx *fiber.Ctx) error {
	var req emailRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := h.authService.ResendOTP(ctx.Context(), req.Email); err != nil {
		return err
	}
	return ctx.JSON(messageResponse{Message: "OTP resent successfully"})
}

func (h *AuthHandler) GetOTPStatus(ctx *fiber.Ctx) error {
	status, err := h.authService.CheckOTPStatus(ctx.Context(), ctx.Params("email"))
	if err != nil {
		return err
	}
	return ctx.JSON(status)
}

func (h *AuthHandler) PostForgotPassword(ctx *fiber.Ctx) error {
	var req emailRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := h.authService.ForgotPassword(ctx.Context(), req.Email); err != nil {
		return err
	}
	return ctx.JSON(messageResponse{Message: "Password reset OTP sent to email"})
}

func (h *AuthHandler) PostResetPassword(ctx *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := h.authService.ResetPassword(ctx.Context(), req.Email, req.OTPCode, req.NewPassword); err != nil {
		return err
	}
	return ctx.JSON(messageResponse{Message: "Password reset successful"})
}

func (h *AuthHandler) PostMFASetup(ctx *fiber.Ctx) error {
	principal, ok := middlewares.CurrentPrincipal(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}
	setup, err := h.authService.EnableMFA(ctx.Context(), principal.UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(setup)
}

func (h *AuthHandler) PostMFAActivate(ctx *fiber.Ctx) error {
	principal, ok := middlewares.CurrentPrincipal(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}
	var req mfaActivateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := h.authService.VerifyMFASetup(ctx.Context(), principal.UserID, req.Token); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"enabled": true})
}

func (h *AuthHandler) PostMFAVerifyLogin(ctx *fiber.Ctx) error {
	principal, ok := middlewares.CurrentPrincipal(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}
	var req mfaVerifyLoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	result, err := h.authService.VerifyLoginWithMFA(ctx.Context(), principal.UserID, req.Token, req.Backup)
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}

func (h *AuthHandler) PostMFADisable(ctx *fiber.Ctx) error {
	principal, ok := middlewares.CurrentPrincipal(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}
	if err := h.authService.DisableMFA(ctx.Context(), principal.UserID); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"disabled": true})
}

func (h *AuthHandler) PostMFABackupCodes(ctx *fiber.Ctx) error {
	principal, ok := middlewares.CurrentPrincipal(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}
	codes, err := h.authService.RegenerateBackupCodes(ctx.Context(), principal.UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"backupCodes": codes})
}

func NewAuthHandler(authService *auth.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

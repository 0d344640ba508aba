package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/taskvault/internal/auth"
	"github.com/khanghh/taskvault/internal/middlewares"
	"github.com/khanghh/taskvault/internal/users"
	"github.com/spf13/cast"
)

type UserHandler struct {
	userService *users.UserService
}

func (h *UserHandler) GetMe(ctx *fiber.Ctx) error {
	principal, ok := middlewares.CurrentPrincipal(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}
	user, err := h.userService.GetByID(ctx.Context(), principal.UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(user)
}

func (h *UserHandler) PutMe(ctx *fiber.Ctx) error {
	principal, ok := middlewares.CurrentPrincipal(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}
	var req updateProfileRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if req.Name == "" {
		return fiber.ErrBadRequest
	}
	user, err := h.userService.UpdateProfile(ctx.Context(), principal.UserID, req.Name)
	if err != nil {
		return err
	}
	return ctx.JSON(user)
}

// DeleteMe removes the authenticated user's own account.
func (h *UserHandler) DeleteMe(ctx *fiber.Ctx) error {
	principal, ok := middlewares.CurrentPrincipal(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}
	if err := h.userService.Delete(ctx.Context(), principal.UserID); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"deleted": true})
}

func (h *UserHandler) GetUsers(ctx *fiber.Ctx) error {
	page := cast.ToInt(ctx.Query("page"))
	limit := cast.ToInt(ctx.Query("limit"))
	result, err := h.userService.List(ctx.Context(), page, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}

func (h *UserHandler) GetUserSearch(ctx *fiber.Ctx) error {
	result, err := h.userService.Search(ctx.Context(),
		ctx.Query("q"),
		cast.ToInt(ctx.Query("page")),
		cast.ToInt(ctx.Query("limit")))
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}

func (h *UserHandler) PutUserRole(ctx *fiber.Ctx) error {
	userID, err := cast.ToUintE(ctx.Params("id"))
	if err != nil {
		return fiber.ErrBadRequest
	}
	var req updateRoleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	user, err := h.userService.UpdateRole(ctx.Context(), userID, req.Role)
	if err != nil {
		return err
	}
	return ctx.JSON(user)
}

func (h *UserHandler) DeleteUser(ctx *fiber.Ctx) error {
	userID, err := cast.ToUintE(ctx.Params("id"))
	if err != nil {
		return fiber.ErrBadRequest
	}
	if err := h.userService.Delete(ctx.Context(), userID); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"deleted": true})
}

func NewUserHandler(userService *users.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/taskvault/internal/auth"
	"github.com/khanghh/taskvault/internal/middlewares"
	"github.com/khanghh/taskvault/internal/todos"
	"github.com/spf13/cast"
)

type TodoHandler struct {
	todoService *todos.TodoService
}

func (h *TodoHandler) PostTodo(ctx *fiber.Ctx) error {
	principal, ok := middlewares.CurrentPrincipal(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}
	var req createTodoRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if req.Title == "" {
		return fiber.ErrBadRequest
	}
	todo, err := h.todoService.Create(ctx.Context(), principal.UserID, todos.CreateTodoOptions{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(todo)
}

func (h *TodoHandler) GetTodos(ctx *fiber.Ctx) error {
	principal, ok := middlewares.CurrentPrincipal(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}
	items, err := h.todoService.List(ctx.Context(), principal.UserID, principal.Role)
	if err != nil {
		return err
	}
	return ctx.JSON(items)
}

func (h *TodoHandler) GetTodo(ctx *fiber.Ctx) error {
	principal, ok := middlewares.CurrentPrincipal(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}
	todoID, err := cast.ToUintE(ctx.Params("id"))
	if err != nil {
		return fiber.ErrBadRequest
	}
	todo, err := h.todoService.Get(ctx.Context(), todoID, principal.UserID, principal.Role)
	if err != nil {
		return err
	}
	return ctx.JSON(todo)
}

func (h *TodoHandler) PutTodo(ctx *fiber.Ctx) error {
	principal, ok := middlewares.CurrentPrincipal(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}
	todoID, err := cast.ToUintE(ctx.Params("id"))
	if err != nil {
		return fiber.ErrBadRequest
	}
	var req updateTodoRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	todo, err := h.todoService.Update(ctx.Context(), todoID, principal.UserID, principal.Role, todos.UpdateTodoOptions{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(todo)
}

func (h *TodoHandler) DeleteTodo(ctx *fiber.Ctx) error {
	principal, ok := middlewares.CurrentPrincipal(ctx)
	if !ok {
		return auth.ErrUnauthorized
	}
	todoID, err := cast.ToUintE(ctx.Params("id"))
	if err != nil {
		return fiber.ErrBadRequest
	}
	if err := h.todoService.Delete(ctx.Context(), todoID, principal.UserID, principal.Role); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"deleted": true})
}

func NewTodoHandler(todoService *todos.TodoService) *TodoHandler {
	return &TodoHandler{
		todoService: todoService,
	}
}

package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/taskvault/internal/audit"
	"github.com/spf13/cast"
)

type AuditHandler struct {
	auditService *audit.AuditService
}

func (h *AuditHandler) GetAuditLogs(ctx *fiber.Ctx) error {
	opts := audit.QueryOptions{
		UserID: cast.ToUint(ctx.Query("userId")),
		Event:  ctx.Query("event"),
		Page:   cast.ToInt(ctx.Query("page")),
		Limit:  cast.ToInt(ctx.Query("limit")),
	}
	if from := ctx.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return fiber.ErrBadRequest
		}
		opts.From = t
	}
	if to := ctx.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return fiber.ErrBadRequest
		}
		opts.To = t
	}
	result, err := h.auditService.FindAll(ctx.Context(), opts)
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}

// DeleteOldAuditLogs purges entries older than the given day count. The
// window must parse as a non-negative integer before anything is deleted.
func (h *AuditHandler) DeleteOldAuditLogs(ctx *fiber.Ctx) error {
	days, err := cast.ToIntE(ctx.Query("days"))
	if err != nil {
		return audit.ErrInvalidPurgeWindow
	}
	deleted, err := h.auditService.PurgeOlderThan(ctx.Context(), days)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"deletedCount": deleted})
}

func NewAuditHandler(auditService *audit.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

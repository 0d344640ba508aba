package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/taskvault/internal/audit"
	"github.com/khanghh/taskvault/internal/middlewares"
	"github.com/khanghh/taskvault/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuditLogRepo struct {
	entries      []*model.AuditLog
	deleteCalled bool
	deleted      int64
}

func (r *fakeAuditLogRepo) RecordEvent(ctx context.Context, event *model.AuditLog) error {
	r.entries = append(r.entries, event)
	return nil
}

func (r *fakeAuditLogRepo) Find(ctx context.Context, filter audit.QueryFilter) ([]*model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

func (r *fakeAuditLogRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.deleteCalled = true
	return r.deleted, nil
}

func newAuditTestApp(repo *fakeAuditLogRepo) *fiber.App {
	handler := NewAuditHandler(audit.NewAuditService(repo))
	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	app.Get("/audit", handler.GetAuditLogs)
	app.Delete("/audit/purge", handler.DeleteOldAuditLogs)
	return app
}

func TestPurgeRejectsNonIntegerDays(t *testing.T) {
	repo := &fakeAuditLogRepo{}
	app := newAuditTestApp(repo)

	for _, days := range []string{"abc", "1.5", ""} {
		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/audit/purge?days="+days, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "days=%q", days)
	}
	// the window must parse before anything is deleted
	assert.False(t, repo.deleteCalled)
}

func TestPurgeRejectsNegativeDays(t *testing.T) {
	repo := &fakeAuditLogRepo{}
	app := newAuditTestApp(repo)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/audit/purge?days=-1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, repo.deleteCalled)
}

func TestPurgeReportsDeletedCount(t *testing.T) {
	repo := &fakeAuditLogRepo{deleted: 7}
	app := newAuditTestApp(repo)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/audit/purge?days=30", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, repo.deleteCalled)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed struct {
		DeletedCount int64 `json:"deletedCount"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, int64(7), parsed.DeletedCount)
}

func TestGetAuditLogsRejectsBadTimestamps(t *testing.T) {
	app := newAuditTestApp(&fakeAuditLogRepo{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/audit?from=yesterday", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/audit?to=not-a-time", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetAuditLogs(t *testing.T) {
	repo := &fakeAuditLogRepo{entries: []*model.AuditLog{
		{Event: audit.EventTypeLoginSuccess, UserID: 1},
	}}
	app := newAuditTestApp(repo)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/audit?event=login_success&page=1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, int64(1), parsed.Total)
}

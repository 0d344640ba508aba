package audit

import (
	"context"
	"errors"
	"time"

	"github.com/khanghh/taskvault/model"
	"github.com/khanghh/taskvault/params"
)

var (
	ErrInvalidPurgeWindow = errors.New("purge window must be a non-negative integer")
)

type QueryOptions struct {
	UserID uint
	Event  string
	From   time.Time
	To     time.Time
	Page   int
	Limit  int
}

type QueryResult struct {
	Items []*model.AuditLog `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type AuditService struct {
	repo AuditLogRepository
}

func (s *AuditService) FindAll(ctx context.Context, opts QueryOptions) (*QueryResult, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = params.PageLimit
	}
	if opts.Limit > params.PageLimitMax {
		opts.Limit = params.PageLimitMax
	}

	items, total, err := s.repo.Find(ctx, QueryFilter{
		UserID: opts.UserID,
		Event:  opts.Event,
		From:   opts.From,
		To:     opts.To,
		Offset: (opts.Page - 1) * opts.Limit,
		Limit:  opts.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &QueryResult{
		Items: items,
		Total: total,
		Page:  opts.Page,
		Limit: opts.Limit,
	}, nil
}

// PurgeOlderThan deletes entries older than the given number of days. The
// window is validated before any deletion occurs.
func (s *AuditService) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days < 0 {
		return 0, ErrInvalidPurgeWindow
	}
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	return s.repo.DeleteBefore(ctx, cutoff)
}

func NewAuditService(repo AuditLogRepository) *AuditService {
	return &AuditService{
		repo: repo,
	}
}

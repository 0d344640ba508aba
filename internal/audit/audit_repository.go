package audit

import (
	"context"
	"time"

	"github.com/khanghh/taskvault/model"
	"gorm.io/gorm"
)

type QueryFilter struct {
	UserID uint
	Event  string
	From   time.Time
	To     time.Time
	Offset int
	Limit  int
}

type AuditLogRepository interface {
	EventRepository
	Find(ctx context.Context, filter QueryFilter) ([]*model.AuditLog, int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

func (r *auditLogRepository) RecordEvent(ctx context.Context, event *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *auditLogRepository) Find(ctx context.Context, filter QueryFilter) ([]*model.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Event != "" {
		query = query.Where("event = ?", filter.Event)
	}
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at <= ?", filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []*model.AuditLog
	err := query.Order("created_at DESC").Offset(filter.Offset).Limit(filter.Limit).Find(&entries).Error
	return entries, total, err
}

func (r *auditLogRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ret := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.AuditLog{})
	return ret.RowsAffected, ret.Error
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db}
}

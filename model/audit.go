package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only security event record.
type AuditLog struct {
	ID        uint64            `gorm:"primaryKey;autoIncrement"`
	Event     string            `gorm:"size:64;not null;index:idx_audit_event"`       // event kind, see internal/audit
	UserID    uint              `gorm:"index:idx_audit_user"`                         // subject user id, 0 if none
	Details   datatypes.JSONMap `gorm:"type:json"`                                    // free-form structured context
	CreatedAt time.Time         `gorm:"autoCreateTime;index:idx_audit_created,sort:desc"`
}

func (AuditLog) TableName() string {
	return "audit"
}

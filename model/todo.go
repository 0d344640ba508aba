package model

import (
	"time"

	"gorm.io/gorm"
)

// Todo is a user-owned todo list item.
type Todo struct {
	ID          uint   `gorm:"primarykey"`
	UserID      uint   `gorm:"not null;index"`
	Title       string `gorm:"size:256;not null"`
	Description string `gorm:"size:2048"`
	Completed   bool   `gorm:"default:false;not null"`
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (t *Todo) BeforeCreate(tx *gorm.DB) error {
	if t.ID == 0 {
		t.ID = GenerateID()
	}
	return nil
}

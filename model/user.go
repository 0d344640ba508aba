package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleGuest = "guest"
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

// User is the full persistence record, including secret fields. It must never
// be serialized directly; handlers expose users.SafeUser instead.
type User struct {
	ID                uint       `gorm:"primarykey"`
	Name              string     `gorm:"size:64;not null"`
	Email             string     `gorm:"uniqueIndex;size:256;not null"` // stored lowercased and trimmed
	PasswordHash      string     `gorm:"size:64;not null"`
	Role              string     `gorm:"size:16;default:guest;not null;index"`
	EmailVerified     bool       `gorm:"default:false;not null"`
	OTPCode           string     `gorm:"size:8"`
	OTPExpiresAt      *time.Time `gorm:"default:null"`
	ResetOTPCode      string     `gorm:"size:8"`
	ResetOTPExpiresAt *time.Time `gorm:"default:null"`
	MFAEnabled        bool       `gorm:"default:false;not null"`
	MFASecret         string     `gorm:"size:128"`
	MFABackupCodes    datatypes.JSONSlice[string] `gorm:"column:mfa_backup_codes"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == 0 {
		u.ID = GenerateID()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationSettings is created together with its user and lives as long
// as the user does.
type NotificationSettings struct {
	ID                   uint      `gorm:"primaryKey" json:"-"`
	UID                  uuid.UUID `gorm:"type:char(36);uniqueIndex;not null" json:"uid"`
	UserID               uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User                 User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	IsEnableNotification bool      `gorm:"not null;default:true" json:"is_enable_notification"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (s *NotificationSettings) BeforeCreate(tx *gorm.DB) error {
	if s.UID == uuid.Nil {
		s.UID = uuid.New()
	}
	return nil
}

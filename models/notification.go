package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationStatus is the coarse lifecycle state of a record, distinct
// from the read flag.
type NotificationStatus string

const (
	StatusActive   NotificationStatus = "ACTIVE"
	StatusInactive NotificationStatus = "INACTIVE"
	StatusDraft    NotificationStatus = "DRAFT"
	StatusRemoved  NotificationStatus = "REMOVED"
	StatusDeleted  NotificationStatus = "DELETED"
)

func (s NotificationStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDraft, StatusRemoved, StatusDeleted:
		return true
	}
	return false
}

type Notification struct {
	ID          uint                                    `gorm:"primaryKey" json:"-"`
	UID         uuid.UUID                               `gorm:"type:char(36);uniqueIndex;not null" json:"uid"`
	UserID      uint                                    `gorm:"not null;index:idx_notifications_owner" json:"-"`
	User        User                                    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Payload     datatypes.JSONType[NotificationPayload] `gorm:"column:notification;not null" json:"notification"`
	IsRead      bool                                    `gorm:"not null;default:false;index" json:"is_read"`
	CustomInfo  datatypes.JSON                          `json:"custom_info"`
	CreatedByID *uint                                   `gorm:"index" json:"-"`
	CreatedBy   *User                                   `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE" json:"created_by"`
	Status      NotificationStatus                      `gorm:"type:varchar(20);not null;default:'ACTIVE';index:idx_notifications_owner" json:"status"`
	CreatedAt   time.Time                               `json:"created_at"`
	UpdatedAt   time.Time                               `json:"updated_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.UID == uuid.Nil {
		n.UID = uuid.New()
	}
	if n.Status == "" {
		n.Status = StatusActive
	}
	return nil
}

func (n Notification) String() string {
	return fmt.Sprintf("%d - %s - %t", n.UserID, n.Payload.Data().Message, n.IsRead)
}

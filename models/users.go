package models

import "time"

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"-"`
	FirstName string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(150)" json:"last_name"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Role      string    `gorm:"type:varchar(50);not null;default:'user'" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleUser  = "user"
)

// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yeremiapane/notification-hub/database"
	"github.com/yeremiapane/notification-hub/models"
)

const TestSecret = "test-secret-key-0123456789"

// NewTestDB opens a private in-memory SQLite database with the schema
// applied. A single connection keeps every query on the same database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user and, unless enabled is nil, its settings row.
func CreateUser(t *testing.T, db *gorm.DB, username, role string, enabled *bool) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		Username:  username,
		FirstName: username,
		LastName:  "Tester",
		Email:     username + "@example.com",
		Password:  string(hashed),
		Role:      role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if enabled != nil {
		settings := &models.NotificationSettings{UserID: user.ID, IsEnableNotification: *enabled}
		if err := db.Create(settings).Error; err != nil {
			t.Fatalf("create settings: %v", err)
		}
		// gorm skips zero values that have a column default on insert.
		if !*enabled {
			db.Model(settings).Update("is_enable_notification", false)
		}
	}
	return user
}

func Bool(b bool) *bool { return &b }

package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/utils"
)

// Models lists every table owned by the service, parents first.
var Models = []interface{}{
	&models.User{},
	&models.NotificationSettings{},
	&models.Notification{},
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

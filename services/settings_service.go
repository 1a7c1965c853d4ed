package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/utils"
)

type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// CreateDefault is subscribed to the user-created event and gives every new
// user an enabled settings row.
func (s *SettingsService) CreateDefault(ctx context.Context, tx *gorm.DB, user *models.User) error {
	settings := &models.NotificationSettings{
		UserID:               user.ID,
		IsEnableNotification: true,
	}
	if err := tx.WithContext(ctx).Create(settings).Error; err != nil {
		return fmt.Errorf("create notification settings for user %d: %w", user.ID, err)
	}
	return nil
}

func (s *SettingsService) Get(ctx context.Context, userID uint) (*models.NotificationSettings, error) {
	var settings models.NotificationSettings
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("notification settings for user %d: %w", userID, utils.ErrNotFound)
		}
		return nil, err
	}
	return &settings, nil
}

func (s *SettingsService) SetEnabled(ctx context.Context, userID uint, enabled bool) (*models.NotificationSettings, error) {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Update with a map so false is written too.
	if err := s.db.WithContext(ctx).Model(&models.NotificationSettings{}).
		Where("id = ?", settings.ID).
		Updates(map[string]interface{}{"is_enable_notification": enabled}).Error; err != nil {
		return nil, err
	}
	settings.IsEnableNotification = enabled

	utils.InfoLogger.Printf("Notifications for user %d set to enabled=%t", userID, enabled)
	return settings, nil
}

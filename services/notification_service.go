package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/utils"
)

// ChangeNotifier is told which users' notifications changed after a write
// has been committed.
type ChangeNotifier interface {
	NotificationsChanged(ctx context.Context, userIDs ...uint)
}

type CreateInput struct {
	UserID      uint
	Payload     models.NotificationPayload
	CustomInfo  json.RawMessage
	CreatedByID *uint
}

type BulkCreateInput struct {
	UserIDs     []uint
	Payload     models.NotificationPayload
	CustomInfo  json.RawMessage
	CreatedByID *uint
}

type BulkCreateResult struct {
	Created        []models.Notification `json:"created_notifications"`
	MissingUserIDs []uint                `json:"missing_user_ids"`
}

// UpdateInput carries the client-writable fields. Nil fields are left alone.
type UpdateInput struct {
	Status *models.NotificationStatus `json:"status"`
	IsRead *bool                      `json:"is_read"`
}

type NotificationService struct {
	db       *gorm.DB
	notifier ChangeNotifier
	batch    int
}

func NewNotificationService(db *gorm.DB, notifier ChangeNotifier) *NotificationService {
	return &NotificationService{db: db, notifier: notifier, batch: 500}
}

func (s *NotificationService) changed(ctx context.Context, userIDs ...uint) {
	if s.notifier == nil || len(userIDs) == 0 {
		return
	}
	s.notifier.NotificationsChanged(ctx, userIDs...)
}

func customInfo(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	return datatypes.JSON(raw)
}

func validateCustomInfo(raw json.RawMessage) error {
	if len(raw) > 0 && !json.Valid(raw) {
		return fmt.Errorf("%w: custom_info is not valid JSON", utils.ErrValidation)
	}
	return nil
}

// Create stores one notification for an existing user. The payload is
// validated before anything is written.
func (s *NotificationService) Create(ctx context.Context, in CreateInput) (*models.Notification, error) {
	if err := in.Payload.Validate(); err != nil {
		return nil, err
	}
	if err := validateCustomInfo(in.CustomInfo); err != nil {
		return nil, err
	}

	n := &models.Notification{
		UserID:      in.UserID,
		Payload:     datatypes.NewJSONType(in.Payload),
		CustomInfo:  customInfo(in.CustomInfo),
		CreatedByID: in.CreatedByID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", in.UserID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("user %d: %w", in.UserID, utils.ErrNotFound)
		}
		return tx.Create(n).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Notification %s created for user %d", n.UID, n.UserID)
	s.changed(ctx, n.UserID)
	return s.load(ctx, n.ID)
}

// BulkCreate stores one notification per distinct existing user. Unknown
// user ids are reported back and skipped.
func (s *NotificationService) BulkCreate(ctx context.Context, in BulkCreateInput) (*BulkCreateResult, error) {
	if err := in.Payload.Validate(); err != nil {
		return nil, err
	}
	if err := validateCustomInfo(in.CustomInfo); err != nil {
		return nil, err
	}

	requested := uniqueIDs(in.UserIDs)
	result := &BulkCreateResult{
		Created:        []models.Notification{},
		MissingUserIDs: []uint{},
	}
	if len(requested) == 0 {
		return result, nil
	}

	var found []uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id IN ?", requested).Order("id").Pluck("id", &found).Error; err != nil {
			return err
		}
		if len(found) == 0 {
			return nil
		}
		rows := make([]models.Notification, 0, len(found))
		for _, id := range found {
			rows = append(rows, models.Notification{
				UserID:      id,
				Payload:     datatypes.NewJSONType(in.Payload),
				CustomInfo:  customInfo(in.CustomInfo),
				CreatedByID: in.CreatedByID,
			})
		}
		if err := tx.CreateInBatches(&rows, s.batch).Error; err != nil {
			return err
		}
		result.Created = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	present := make(map[uint]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	for _, id := range requested {
		if _, ok := present[id]; !ok {
			result.MissingUserIDs = append(result.MissingUserIDs, id)
		}
	}

	utils.InfoLogger.Printf("Bulk notification: %d created, %d missing users", len(result.Created), len(result.MissingUserIDs))
	s.changed(ctx, found...)

	loaded, err := s.loadMany(ctx, result.Created)
	if err != nil {
		return nil, err
	}
	result.Created = loaded
	return result, nil
}

// GetAndMarkRead returns one of the user's notifications and flips its read
// flag if it was unread.
func (s *NotificationService) GetAndMarkRead(ctx context.Context, userID uint, uid uuid.UUID) (*models.Notification, error) {
	n, err := s.owned(ctx, userID, uid)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}

	if err := s.byID(ctx, n.ID).Update("is_read", true).Error; err != nil {
		return nil, err
	}
	n.IsRead = true
	s.changed(ctx, userID)
	return n, nil
}

func (s *NotificationService) Update(ctx context.Context, userID uint, uid uuid.UUID, in UpdateInput) (*models.Notification, error) {
	fields := map[string]interface{}{}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", utils.ErrValidation, *in.Status)
		}
		fields["status"] = *in.Status
	}
	if in.IsRead != nil {
		fields["is_read"] = *in.IsRead
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", utils.ErrValidation)
	}

	n, err := s.owned(ctx, userID, uid)
	if err != nil {
		return nil, err
	}
	if err := s.byID(ctx, n.ID).Updates(fields).Error; err != nil {
		return nil, err
	}

	s.changed(ctx, userID)
	return s.load(ctx, n.ID)
}

func (s *NotificationService) Delete(ctx context.Context, userID uint, uid uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("uid = ? AND user_id = ?", uid, userID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification %s: %w", uid, utils.ErrNotFound)
	}

	s.changed(ctx, userID)
	return nil
}

// MarkAllRead flags every unread active notification of the user as read
// and reports how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND status = ? AND is_read = ?", userID, models.StatusActive, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		s.changed(ctx, userID)
	}
	return res.RowsAffected, nil
}

func (s *NotificationService) owned(ctx context.Context, userID uint, uid uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("CreatedBy").
		Where("uid = ? AND user_id = ?", uid, userID).
		First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("notification %s: %w", uid, utils.ErrNotFound)
		}
		return nil, err
	}
	return &n, nil
}

// byID scopes a write to one row without carrying loaded associations.
func (s *NotificationService) byID(ctx context.Context, id uint) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id)
}

func (s *NotificationService) load(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).Preload("User").Preload("CreatedBy").First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// loadMany reloads rows with their users, keeping the input order.
func (s *NotificationService) loadMany(ctx context.Context, rows []models.Notification) ([]models.Notification, error) {
	out := make([]models.Notification, 0, len(rows))
	for start := 0; start < len(rows); start += s.batch {
		end := start + s.batch
		if end > len(rows) {
			end = len(rows)
		}
		ids := make([]uint, 0, end-start)
		for _, n := range rows[start:end] {
			ids = append(ids, n.ID)
		}
		var chunk []models.Notification
		err := s.db.WithContext(ctx).
			Preload("User").
			Preload("CreatedBy").
			Where("id IN ?", ids).
			Order("id").
			Find(&chunk).Error
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

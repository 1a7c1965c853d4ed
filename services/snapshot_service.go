package services

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/notification-hub/cache"
	"github.com/yeremiapane/notification-hub/hub"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/utils"
)

const DefaultPageSize = 20

// SnapshotQuery selects what Build returns. IsRead is "true", "false" or
// anything else for no filter. Pages start at 1.
type SnapshotQuery struct {
	IsRead         string
	Page           int
	IncludeContent bool
	UseCache       bool
}

// readFilter returns the parsed filter and whether one applies.
func (q SnapshotQuery) readFilter() (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(q.IsRead)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func (q SnapshotQuery) cacheParams() url.Values {
	params := url.Values{}
	if v, ok := q.readFilter(); ok {
		params.Set("is_read", strconv.FormatBool(v))
	}
	return params
}

// SnapshotService computes a user's notification snapshot.
type SnapshotService struct {
	db       *gorm.DB
	settings *SettingsService
	cache    cache.PageCache
	cacheTTL time.Duration
	pageSize int
}

func NewSnapshotService(db *gorm.DB, settings *SettingsService, pages cache.PageCache, cacheTTL time.Duration, pageSize int) *SnapshotService {
	if pages == nil {
		pages = cache.NopPageCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = cache.DefaultTTL
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &SnapshotService{
		db:       db,
		settings: settings,
		cache:    pages,
		cacheTTL: cacheTTL,
		pageSize: pageSize,
	}
}

func (s *SnapshotService) PageSize() int {
	return s.pageSize
}

// Build fails with ErrNotificationsDisabled when the user turned
// notifications off and with ErrNotFound when the user has no settings.
// Counts always cover every active notification of the user; the read
// filter narrows the returned page only.
func (s *SnapshotService) Build(ctx context.Context, userID uint, q SnapshotQuery) (*models.Snapshot, error) {
	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !settings.IsEnableNotification {
		return nil, utils.ErrNotificationsDisabled
	}

	if q.Page < 1 {
		q.Page = 1
	}

	cacheable := q.UseCache && q.IncludeContent
	var (
		subKey string
		gen    int64
	)
	if cacheable {
		subKey = cache.SubKey(q.cacheParams(), q.Page)
		var snap *models.Snapshot
		snap, gen, cacheable = s.fromCache(ctx, userID, subKey)
		if snap != nil {
			return snap, nil
		}
	}

	snap, err := s.counts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !q.IncludeContent {
		return snap, nil
	}

	page, err := s.page(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	snap.SetNotifications(page, q.Page, s.pageSize)

	if cacheable {
		s.toCache(ctx, userID, gen, subKey, snap)
	}
	return snap, nil
}

// LiveSnapshot answers an inbound frame on a live connection. It always
// reads the store.
func (s *SnapshotService) LiveSnapshot(ctx context.Context, userID uint, req hub.SnapshotRequest) (interface{}, error) {
	snap, err := s.Build(ctx, userID, SnapshotQuery{
		IsRead:         req.IsRead,
		Page:           req.Page,
		IncludeContent: true,
	})
	if err != nil {
		return nil, err
	}
	return snap.Payload(), nil
}

func (s *SnapshotService) activeFor(ctx context.Context, userID uint) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND status = ?", userID, models.StatusActive)
}

func (s *SnapshotService) counts(ctx context.Context, userID uint) (*models.Snapshot, error) {
	var row struct {
		TotalCount int64
		ReadCount  int64
	}
	err := s.activeFor(ctx, userID).
		Select("COUNT(*) AS total_count, COALESCE(SUM(CASE WHEN is_read THEN 1 ELSE 0 END), 0) AS read_count").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return models.NewSnapshot(row.TotalCount, row.ReadCount), nil
}

func (s *SnapshotService) page(ctx context.Context, userID uint, q SnapshotQuery) ([]models.Notification, error) {
	query := s.activeFor(ctx, userID)
	if v, ok := q.readFilter(); ok {
		query = query.Where("is_read = ?", v)
	}

	var list []models.Notification
	err := query.
		Preload("User").
		Preload("CreatedBy").
		Order("created_at DESC").
		Order("id DESC").
		Offset((q.Page - 1) * s.pageSize).
		Limit(s.pageSize).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Cache failures are logged and otherwise ignored; the store stays the
// source of truth. fromCache reports whether a miss may be filled: not after
// a read error, since the generation is then unknown.
func (s *SnapshotService) fromCache(ctx context.Context, userID uint, subKey string) (*models.Snapshot, int64, bool) {
	raw, gen, ok, err := s.cache.Get(ctx, userID, subKey)
	if err != nil {
		utils.InfoLogger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("Snapshot cache read failed")
		return nil, 0, false
	}
	if !ok {
		return nil, gen, true
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		utils.InfoLogger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("Discarding unreadable cache entry")
		return nil, gen, true
	}
	snap.SetNotifications(snap.Notifications, snap.Page, snap.PageSize)
	return &snap, gen, true
}

func (s *SnapshotService) toCache(ctx context.Context, userID uint, gen int64, subKey string, snap *models.Snapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling snapshot for cache: %v", err)
		return
	}
	if err := s.cache.Put(ctx, userID, gen, subKey, raw, s.cacheTTL); err != nil {
		utils.InfoLogger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("Snapshot cache write failed")
	}
}

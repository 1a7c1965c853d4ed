package services

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/notification-hub/cache"
	"github.com/yeremiapane/notification-hub/hub"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/utils"
)

// Broadcaster delivers a message to every live connection of a group.
type Broadcaster interface {
	Broadcast(group string, msg hub.Message) int
}

// SnapshotBuilder is the part of SnapshotService the propagator needs.
type SnapshotBuilder interface {
	Build(ctx context.Context, userID uint, q SnapshotQuery) (*models.Snapshot, error)
}

const propagatorStripes = 64

// ChangePropagator pushes a fresh snapshot to a user's live connections
// after their notifications changed. Failures are logged and dropped.
type ChangePropagator struct {
	snapshots      SnapshotBuilder
	pages          cache.PageCache
	broadcaster    Broadcaster
	includeContent bool

	// Updates for one user are built and enqueued under the same stripe,
	// so a later write is never pushed before an earlier one.
	locks [propagatorStripes]sync.Mutex
}

func NewChangePropagator(snapshots SnapshotBuilder, pages cache.PageCache, broadcaster Broadcaster, includeContent bool) *ChangePropagator {
	if pages == nil {
		pages = cache.NopPageCache{}
	}
	return &ChangePropagator{
		snapshots:      snapshots,
		pages:          pages,
		broadcaster:    broadcaster,
		includeContent: includeContent,
	}
}

// NotificationsChanged runs one propagation per distinct user. It never
// returns an error to the write path.
func (p *ChangePropagator) NotificationsChanged(ctx context.Context, userIDs ...uint) {
	// The request that triggered the write may finish before we do.
	ctx = context.WithoutCancel(ctx)
	for _, userID := range uniqueIDs(userIDs) {
		p.propagate(ctx, userID)
	}
}

func (p *ChangePropagator) propagate(ctx context.Context, userID uint) {
	mu := &p.locks[userID%propagatorStripes]
	mu.Lock()
	defer mu.Unlock()

	if err := p.pages.Invalidate(ctx, userID); err != nil {
		utils.InfoLogger.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("Snapshot cache invalidation failed")
	}

	snap, err := p.snapshots.Build(ctx, userID, SnapshotQuery{
		Page:           1,
		IncludeContent: p.includeContent,
	})
	if err != nil {
		entry := utils.InfoLogger.WithFields(logrus.Fields{"user_id": userID, "error": err})
		if errors.Is(err, utils.ErrNotificationsDisabled) {
			entry.Debug("Push skipped, notifications disabled")
		} else {
			entry.Warn("Push skipped, snapshot failed")
		}
		return
	}

	if p.broadcaster == nil {
		return
	}
	p.broadcaster.Broadcast(hub.GroupKeyFor(userID), hub.Message{
		Event: hub.EventNotificationUpdate,
		Data:  snap.Payload(),
	})
}

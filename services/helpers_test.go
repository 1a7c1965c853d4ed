package services

import (
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yeremiapane/notification-hub/hub"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/testutil"
	"github.com/yeremiapane/notification-hub/utils"
)

type sentMessage struct {
	group string
	msg   hub.Message
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (r *recordingBroadcaster) Broadcast(group string, msg hub.Message) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{group: group, msg: msg})
	return 1
}

func (r *recordingBroadcaster) messages() []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMessage(nil), r.sent...)
}

func (r *recordingBroadcaster) groups() []string {
	var out []string
	for _, m := range r.messages() {
		out = append(out, m.group)
	}
	return out
}

// stack wires the services against a fresh database the way main does.
type stack struct {
	db            *gorm.DB
	tokens        *utils.TokenManager
	users         *UserService
	settings      *SettingsService
	auth          *AuthService
	snapshots     *SnapshotService
	notifications *NotificationService
	propagator    *ChangePropagator
	broadcaster   *recordingBroadcaster
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := testutil.NewTestDB(t)
	s := &stack{
		db:          db,
		tokens:      utils.NewTokenManager(testutil.TestSecret, time.Hour),
		broadcaster: &recordingBroadcaster{},
	}
	s.settings = NewSettingsService(db)
	s.users = NewUserService(db, s.tokens)
	s.users.SetPasswordCost(bcrypt.MinCost)
	s.users.OnUserCreated(s.settings.CreateDefault)
	s.auth = NewAuthService(s.tokens, s.users)
	s.snapshots = NewSnapshotService(db, s.settings, nil, time.Hour, 3)
	s.propagator = NewChangePropagator(s.snapshots, nil, s.broadcaster, false)
	s.notifications = NewNotificationService(db, s.propagator)
	return s
}

func validPayload(msg string) models.NotificationPayload {
	return models.NotificationPayload{
		Message: msg,
		Object:  map[string]interface{}{"id": 1},
		Method:  models.MethodPost,
	}
}

// seedNotification writes a row directly, bypassing propagation.
func seedNotification(t *testing.T, db *gorm.DB, userID uint, isRead bool, status models.NotificationStatus, createdAt time.Time) *models.Notification {
	t.Helper()
	n := &models.Notification{
		UserID:    userID,
		Payload:   datatypes.NewJSONType(validPayload("seeded")),
		IsRead:    isRead,
		Status:    status,
		CreatedAt: createdAt,
	}
	if err := db.Create(n).Error; err != nil {
		t.Fatalf("seed notification: %v", err)
	}
	return n
}

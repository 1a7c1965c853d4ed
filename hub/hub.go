package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/notification-hub/utils"
)

// Authenticator resolves a bearer token to an existing user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uint, error)
}

// SnapshotSource computes the reply to an inbound frame.
type SnapshotSource interface {
	LiveSnapshot(ctx context.Context, userID uint, req SnapshotRequest) (interface{}, error)
}

type Config struct {
	// SendBuffer is the per-connection outbound queue length. Frames
	// that do not fit are dropped for that connection only.
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
}

func DefaultConfig() Config {
	return Config{
		SendBuffer:     16,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 4096,
	}
}

// Hub holds the live connections grouped by user and fans messages out to
// a group.
type Hub struct {
	auth      Authenticator
	snapshots SnapshotSource
	cfg       Config

	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
	closed bool
}

func NewHub(auth Authenticator, snapshots SnapshotSource, cfg Config) *Hub {
	def := DefaultConfig()
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	return &Hub{
		auth:      auth,
		snapshots: snapshots,
		cfg:       cfg,
		groups:    make(map[string]map[*Client]struct{}),
	}
}

// ServeConn runs one connection from handshake to close and blocks until
// the connection is gone. An invalid token closes the connection without
// sending any message.
func (h *Hub) ServeConn(ctx context.Context, conn *websocket.Conn, token string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := newClient(h, conn, token)

	userID, err := h.auth.Authenticate(ctx, token)
	if err != nil {
		utils.InfoLogger.WithField("error", err).Info("Live connection rejected")
		c.reject(websocket.ClosePolicyViolation, utils.ErrorCode(err))
		return
	}
	c.userID = userID
	c.group = GroupKeyFor(userID)
	c.setState(StateAuthenticated)

	if !h.join(c) {
		c.reject(websocket.CloseGoingAway, "shutting down")
		return
	}
	defer h.Leave(c)

	go c.writePump()
	c.enqueueMessage(Message{
		Event: EventConnected,
		Data:  map[string]interface{}{"group": c.group},
	})

	c.readPump(ctx)
}

func (h *Hub) join(c *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	members, ok := h.groups[c.group]
	if !ok {
		members = make(map[*Client]struct{})
		h.groups[c.group] = members
	}
	members[c] = struct{}{}
	c.setState(StateJoined)
	size := len(members)
	h.mu.Unlock()

	utils.InfoLogger.WithFields(logrus.Fields{
		"group":   c.group,
		"user_id": c.userID,
		"clients": size,
	}).Info("Live connection joined")
	return true
}

// Leave removes c from its group and closes it. Calling it again for the
// same client does nothing.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	removed := false
	if members, ok := h.groups[c.group]; ok {
		if _, present := members[c]; present {
			delete(members, c)
			removed = true
			if len(members) == 0 {
				delete(h.groups, c.group)
			}
		}
	}
	h.mu.Unlock()

	c.close()

	if removed {
		utils.InfoLogger.WithFields(logrus.Fields{
			"group":   c.group,
			"user_id": c.userID,
		}).Info("Live connection left")
	}
}

// Broadcast queues msg on every connection of group and returns how many
// connections accepted it. A full or closed connection is skipped.
func (h *Hub) Broadcast(group string, msg Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling message: %v", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.groups[group] {
		if c.enqueue(data) {
			delivered++
		}
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"group":     group,
		"event":     msg.Event,
		"clients":   len(h.groups[group]),
		"delivered": delivered,
	}).Debug("Broadcast")
	return delivered
}

// GroupSize reports how many live connections group has.
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Shutdown closes every connection and refuses new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	var clients []*Client
	for _, members := range h.groups {
		for c := range members {
			clients = append(clients, c)
		}
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.sendClose(websocket.CloseGoingAway, "server shutting down")
		h.Leave(c)
	}
	utils.InfoLogger.Printf("Live hub stopped, %d connections closed", len(clients))
}

func (h *Hub) handleReceive(ctx context.Context, c *Client, data []byte) {
	// The token may have expired since the handshake. Errors here are
	// advisory and leave the connection open.
	userID, err := h.auth.Authenticate(ctx, c.token)
	if err != nil {
		c.enqueueMessage(errorMessage(err))
		return
	}

	payload, err := h.snapshots.LiveSnapshot(ctx, userID, parseSnapshotRequest(data))
	if err != nil {
		c.enqueueMessage(errorMessage(err))
		return
	}
	c.enqueueMessage(Message{Event: EventNotifications, Data: payload})
}

package hub

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/notification-hub/utils"
)

type State int32

const (
	StateConnecting State = iota
	StateAuthenticated
	StateJoined
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateJoined:
		return "joined"
	default:
		return "closed"
	}
}

// Client is one live connection. Outbound frames go through send and are
// written by a single writePump goroutine.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	token  string
	userID uint
	group  string

	send      chan []byte
	done      chan struct{}
	state     atomic.Int32
	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, token string) *Client {
	return &Client{
		hub:   h,
		conn:  conn,
		token: token,
		send:  make(chan []byte, h.cfg.SendBuffer),
		done:  make(chan struct{}),
	}
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

func (c *Client) UserID() uint {
	return c.userID
}

func (c *Client) Group() string {
	return c.group
}

// enqueue never blocks: a closed client or a full queue drops the frame.
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		utils.InfoLogger.WithFields(logrus.Fields{
			"group":   c.group,
			"user_id": c.userID,
		}).Warn("Outbound queue full, frame dropped")
		return false
	}
}

func (c *Client) enqueueMessage(msg Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling message: %v", err)
		return false
	}
	return c.enqueue(data)
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.setState(StateClosed)
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

func (c *Client) sendClose(code int, reason string) {
	if c.conn == nil {
		return
	}
	deadline := time.Now().Add(c.hub.cfg.WriteWait)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}

func (c *Client) reject(code int, reason string) {
	c.sendClose(code, reason)
	c.close()
}

func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.InfoLogger.WithFields(logrus.Fields{
					"group": c.group,
					"error": err,
				}).Warn("Live connection read failed")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
		c.hub.handleReceive(ctx, c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				utils.InfoLogger.WithFields(logrus.Fields{
					"group": c.group,
					"error": err,
				}).Warn("Error sending message to client")
				c.hub.Leave(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.Leave(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

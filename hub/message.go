package hub

import (
	"encoding/json"

	"github.com/yeremiapane/notification-hub/utils"
)

// Event types
const (
	EventConnected          = "connected"
	EventNotifications      = "notifications"
	EventNotificationUpdate = "notification_update"
	EventError              = "error"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type ErrorData struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func errorMessage(err error) Message {
	return Message{
		Event: EventError,
		Data: ErrorData{
			Code:   utils.ErrorCode(err),
			Detail: err.Error(),
		},
	}
}

// SnapshotRequest is the optional body of an inbound frame. Frames that do
// not decode are treated as an empty request.
type SnapshotRequest struct {
	IsRead string `json:"is_read"`
	Page   int    `json:"page"`
}

func parseSnapshotRequest(data []byte) SnapshotRequest {
	var req SnapshotRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return SnapshotRequest{}
	}
	return req
}

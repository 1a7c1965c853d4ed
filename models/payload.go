package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/yeremiapane/notification-hub/utils"
)

// NotificationMethod is the operation that triggered a notification.
type NotificationMethod string

const (
	MethodPost      NotificationMethod = "POST"
	MethodPatch     NotificationMethod = "PATCH"
	MethodGet       NotificationMethod = "GET"
	MethodDelete    NotificationMethod = "DELETE"
	MethodUpdate    NotificationMethod = "UPDATE"
	MethodUndefined NotificationMethod = "UNDEFINED"
)

// NotificationPayload is the fixed wire schema of a notification body.
// Anything not modelled here belongs in Notification.CustomInfo.
type NotificationPayload struct {
	Message     string                 `json:"message" validate:"required"`
	Object      map[string]interface{} `json:"object" validate:"required"`
	Method      NotificationMethod     `json:"method" validate:"required,oneof=POST PATCH GET DELETE UPDATE UNDEFINED"`
	ChangedData map[string]interface{} `json:"changed_data,omitempty"`
}

var payloadValidator = validator.New()

func (p NotificationPayload) Validate() error {
	if err := payloadValidator.Struct(p); err != nil {
		return fmt.Errorf("%w: notification: %v", utils.ErrValidation, err)
	}
	return nil
}

// ParseNotificationPayload decodes and validates a raw payload. Type
// mismatches are reported the same way as missing fields.
func ParseNotificationPayload(raw []byte) (NotificationPayload, error) {
	var p NotificationPayload
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return p, fmt.Errorf("%w: notification: payload is required", utils.ErrValidation)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%w: notification: %v", utils.ErrValidation, err)
	}
	return p, p.Validate()
}

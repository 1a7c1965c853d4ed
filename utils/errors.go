package utils

import "errors"

var (
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrNotFound              = errors.New("not found")
	ErrNotificationsDisabled = errors.New("notifications are not enabled for the current user")
	ErrValidation            = errors.New("validation failed")
	ErrForbidden             = errors.New("forbidden")
)

// ErrorCode maps err to the short code sent to API and live-channel clients.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotificationsDisabled):
		return "notifications_disabled"
	case errors.Is(err, ErrValidation):
		return "validation_failed"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "internal_error"
	}
}

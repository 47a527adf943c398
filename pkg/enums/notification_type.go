package enums

import "fmt"

// NotificationType categorizes feed entries so the client can pick an icon
// and a landing route.
type NotificationType string

const (
	NotificationTypeOrder        NotificationType = "order"
	NotificationTypeRequest      NotificationType = "request"
	NotificationTypeCancellation NotificationType = "cancellation"
	NotificationTypeDefault      NotificationType = "default"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrder,
	NotificationTypeRequest,
	NotificationTypeCancellation,
	NotificationTypeDefault,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType. Unknown
// values fall back to the default bucket instead of erroring: the feed must
// keep rendering entries produced by newer backends.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return NotificationTypeDefault, fmt.Errorf("invalid notification type %q", value)
}

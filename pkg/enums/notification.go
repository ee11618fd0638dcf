package enums

import "fmt"

// NotificationType classifies operational notifications the pipeline emits.
type NotificationType string

const (
	NotificationTypeOrder    NotificationType = "order"
	NotificationTypeLowStock NotificationType = "low_stock"
	NotificationTypePipeline NotificationType = "pipeline"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrder,
	NotificationTypeLowStock,
	NotificationTypePipeline,
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

package enums

import "fmt"

// NotificationType labels what kind of event a queued notification describes.
type NotificationType string

const (
	NotificationTypeAssignment     NotificationType = "assignment"
	NotificationTypeStatusChange   NotificationType = "status_change"
	NotificationTypePriorityChange NotificationType = "priority_change"
	NotificationTypeNoteAdded      NotificationType = "note_added"
	NotificationTypeInvitation     NotificationType = "invitation"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeAssignment,
	NotificationTypeStatusChange,
	NotificationTypePriorityChange,
	NotificationTypeNoteAdded,
	NotificationTypeInvitation,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
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

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

package enums

import "fmt"

// IncidentStatus tracks the lifecycle of an incident.
type IncidentStatus string

const (
	IncidentStatusOpen       IncidentStatus = "open"
	IncidentStatusInProgress IncidentStatus = "in_progress"
	IncidentStatusClosed     IncidentStatus = "closed"
)

var validIncidentStatuses = []IncidentStatus{
	IncidentStatusOpen,
	IncidentStatusInProgress,
	IncidentStatusClosed,
}

// String implements fmt.Stringer.
func (s IncidentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known IncidentStatus.
func (s IncidentStatus) IsValid() bool {
	for _, candidate := range validIncidentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseIncidentStatus converts raw input into an IncidentStatus.
func ParseIncidentStatus(value string) (IncidentStatus, error) {
	for _, candidate := range validIncidentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid incident status %q", value)
}

// DisplayName returns the human-readable label used in notification payloads.
func (s IncidentStatus) DisplayName() string {
	switch s {
	case IncidentStatusOpen:
		return "Open"
	case IncidentStatusInProgress:
		return "In Progress"
	case IncidentStatusClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// CanTransitionTo reports whether an incident may move from s to target.
// Staying in the same status is always allowed. A closed incident can only
// be reopened; resuming work requires reopening first.
func (s IncidentStatus) CanTransitionTo(target IncidentStatus) bool {
	if s == target {
		return true
	}
	switch s {
	case IncidentStatusOpen:
		return target == IncidentStatusInProgress || target == IncidentStatusClosed
	case IncidentStatusInProgress:
		return target == IncidentStatusOpen || target == IncidentStatusClosed
	case IncidentStatusClosed:
		return target == IncidentStatusOpen
	default:
		return false
	}
}

// IncidentStatuses returns the valid statuses in lifecycle order.
func IncidentStatuses() []IncidentStatus {
	out := make([]IncidentStatus, len(validIncidentStatuses))
	copy(out, validIncidentStatuses)
	return out
}

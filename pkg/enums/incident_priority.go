package enums

import "fmt"

// IncidentPriority ranks how urgently an incident needs attention.
type IncidentPriority string

const (
	IncidentPriorityLow      IncidentPriority = "low"
	IncidentPriorityMedium   IncidentPriority = "medium"
	IncidentPriorityHigh     IncidentPriority = "high"
	IncidentPriorityCritical IncidentPriority = "critical"
)

var validIncidentPriorities = []IncidentPriority{
	IncidentPriorityLow,
	IncidentPriorityMedium,
	IncidentPriorityHigh,
	IncidentPriorityCritical,
}

// String implements fmt.Stringer.
func (p IncidentPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known IncidentPriority.
func (p IncidentPriority) IsValid() bool {
	for _, candidate := range validIncidentPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseIncidentPriority converts raw input into an IncidentPriority.
func ParseIncidentPriority(value string) (IncidentPriority, error) {
	for _, candidate := range validIncidentPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid incident priority %q", value)
}

// DisplayName returns the human-readable label used in notification payloads.
func (p IncidentPriority) DisplayName() string {
	switch p {
	case IncidentPriorityLow:
		return "Low"
	case IncidentPriorityMedium:
		return "Medium"
	case IncidentPriorityHigh:
		return "High"
	case IncidentPriorityCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// IncidentPriorities returns the valid priorities from lowest to highest.
func IncidentPriorities() []IncidentPriority {
	out := make([]IncidentPriority, len(validIncidentPriorities))
	copy(out, validIncidentPriorities)
	return out
}

package domain

import "strings"

// Status is the lifecycle state of a quote.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusArchived Status = "ARCHIVED"
)

// Statuses lists every status in declaration order.
func Statuses() []Status {
	return []Status{StatusActive, StatusInactive, StatusArchived}
}

// ParseStatus parses a status name, ignoring case and surrounding whitespace.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive, nil
	case StatusInactive:
		return StatusInactive, nil
	case StatusArchived:
		return StatusArchived, nil
	default:
		return "", NewValidationErrorWithValue("status", "must be one of ACTIVE, INACTIVE, ARCHIVED", s)
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusArchived:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

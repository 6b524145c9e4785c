package core

import (
	"time"
)

// Timestamp represents a point in time with timezone awareness
type Timestamp time.Time

// NewTimestamp creates a new timestamp from time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// Now returns the current timestamp in UTC
func Now() Timestamp {
	return Timestamp(time.Now().UTC())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// IsZero checks if the timestamp is zero
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

// ISO renders the timestamp the way result documents carry it
func (t Timestamp) ISO() string {
	return time.Time(t).Format(time.RFC3339)
}

// ParseISO parses an RFC3339 timestamp as written by ISO
func ParseISO(s string) (Timestamp, error) {
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp(parsed), nil
}

// Package system provides the wall-clock implementation of crawler.Clock.
package system

import "time"

// Clock reads the system time in UTC, truncated to millisecond precision so
// document timestamps survive a JSON snapshot round trip unchanged.
type Clock struct{}

// New returns a system Clock.
func New() Clock {
	return Clock{}
}

// Now returns the current UTC time at millisecond precision.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

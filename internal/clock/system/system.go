// Package system provides the wall clock used for status check timestamps.
package system

import "time"

// Clock implements school.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time truncated to milliseconds, the precision
// kept by the document stores, so a created record equals its stored copy.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

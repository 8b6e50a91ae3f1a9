package retention

import "time"

// A Clock tells the current time.
// Components take a Clock so tests can simulate any "now".
type Clock interface {
	Now() time.Time
}

// SystemClock is the Clock backed by time.Now, in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// A FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the FixedClock's instant.
func (c FixedClock) Now() time.Time { return time.Time(c) }

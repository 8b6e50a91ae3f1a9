package scheduler

import (
	"fmt"
	"time"

	"github.com/xy-planning-network/retention"
)

// A Trigger computes when the Worker next runs its jobs.
type Trigger interface {
	Next(now time.Time) time.Time
}

// Daily triggers once a day at Hour:Minute UTC.
type Daily struct {
	Hour   int
	Minute int
}

// DefaultDaily triggers at 02:00 UTC.
var DefaultDaily = Daily{Hour: 2}

// Valid asserts Hour and Minute form a time of day.
func (d Daily) Valid() error {
	if d.Hour < 0 || d.Hour > 23 || d.Minute < 0 || d.Minute > 59 {
		return fmt.Errorf("%w: daily trigger %02d:%02d", retention.ErrBadConfig, d.Hour, d.Minute)
	}

	return nil
}

// Next returns the first Hour:Minute UTC strictly after now.
func (d Daily) Next(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), d.Hour, d.Minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	return next
}

package scheduler

import (
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/logger"
)

// An Option configures a Scheduler when constructing one.
type Option func(*Scheduler)

// WithClock sets the Clock deciding which deletions are due.
func WithClock(c retention.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the Logger Scheduler uses.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.l = l
		}
	}
}

// WithMetrics sets the collectors Scheduler counts outcomes in.
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithParallelism bounds how many accounts are processed at once.
func WithParallelism(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

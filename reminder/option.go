package reminder

import (
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/logger"
	"github.com/xy-planning-network/retention/scheduler"
)

// An Option configures an Emitter when constructing one.
type Option func(*Emitter)

// WithClock sets the Clock reminders are computed against.
func WithClock(c retention.Clock) Option {
	return func(e *Emitter) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLogger sets the Logger Emitter uses.
func WithLogger(l logger.Logger) Option {
	return func(e *Emitter) {
		if l != nil {
			e.l = l
		}
	}
}

// WithMetrics sets the collectors Emitter counts sent reminders in.
func WithMetrics(m *scheduler.Metrics) Option {
	return func(e *Emitter) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithParallelism bounds how many accounts are processed at once.
func WithParallelism(n int) Option {
	return func(e *Emitter) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// Package scheduler runs the daily retention batch.
//
// Scheduler erases every account whose grace period has elapsed,
// skipping accounts under legal hold.
// Worker fires the registered jobs on a Trigger,
// and RunNow runs the very same jobs on demand.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/audit"
	"github.com/xy-planning-network/retention/logger"
	"golang.org/x/sync/errgroup"
)

// DefaultParallelism bounds how many accounts a run processes at once.
const DefaultParallelism = 4

const skipHoldReason = "skip: hold active"

// A Deleter erases a pending account whose deletion is due.
type Deleter interface {
	ExecuteScheduledDeletion(ctx context.Context, id uuid.UUID) (retention.ErasureReceipt, error)
}

// A Lister finds pending accounts due for deletion.
type Lister interface {
	ListDue(ctx context.Context, now time.Time) ([]retention.Account, error)
}

// A Report summarizes one Scheduler run.
type Report struct {
	StartedAt       time.Time
	Deleted         int
	SkippedHeld     int
	SkippedConflict int
	Failed          map[uuid.UUID]error
}

// Failures returns how many accounts could not be processed.
func (r Report) Failures() int { return len(r.Failed) }

// MarshalJSON renders Failed as error messages keyed by account ID.
func (r Report) MarshalJSON() ([]byte, error) {
	failed := make(map[string]string, len(r.Failed))
	for id, err := range r.Failed {
		failed[id.String()] = err.Error()
	}

	return json.Marshal(struct {
		StartedAt       time.Time         `json:"startedAt"`
		Deleted         int               `json:"deleted"`
		SkippedHeld     int               `json:"skippedHeld"`
		SkippedConflict int               `json:"skippedConflict"`
		Failed          map[string]string `json:"failed"`
	}{r.StartedAt, r.Deleted, r.SkippedHeld, r.SkippedConflict, failed})
}

// A Scheduler executes due deletions.
//
// Running it more than once is safe:
// deleted accounts are no longer listed as due.
type Scheduler struct {
	accounts    Lister
	deleter     Deleter
	sink        *audit.Sink
	clock       retention.Clock
	l           logger.Logger
	metrics     *Metrics
	parallelism int
}

// New constructs a *Scheduler.
func New(accounts Lister, deleter Deleter, sink *audit.Sink, opts ...Option) *Scheduler {
	s := &Scheduler{
		accounts:    accounts,
		deleter:     deleter,
		sink:        sink,
		clock:       retention.SystemClock{},
		l:           logger.New(logger.WithKind(retention.WorkerLogKind)),
		metrics:     NewMetrics(nil),
		parallelism: DefaultParallelism,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name identifies the Scheduler as a Job.
func (s *Scheduler) Name() string { return "scheduler" }

// Job wraps s for a Worker.
func (s *Scheduler) Job() Job {
	return Job{Name: s.Name(), Run: func(ctx context.Context) Result { return s.Run(ctx) }}
}

// Run lists the accounts due now and processes each independently.
// One account failing never stops the others.
func (s *Scheduler) Run(ctx context.Context) Report {
	r := Report{StartedAt: s.clock.Now(), Failed: make(map[uuid.UUID]error)}

	due, err := s.accounts.ListDue(ctx, r.StartedAt)
	if err != nil {
		s.l.Error("failed listing due deletions", &logger.LogContext{Error: err})
		r.Failed[uuid.Nil] = err
		return r
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.parallelism)

	for _, a := range due {
		a := a
		g.Go(func() error {
			outcome, err := s.process(ctx, a)

			mu.Lock()
			defer mu.Unlock()

			switch outcome {
			case OutcomeDeleted:
				r.Deleted++
			case OutcomeSkippedHeld:
				r.SkippedHeld++
			case OutcomeSkippedConflict:
				r.SkippedConflict++
			case OutcomeFailed:
				r.Failed[a.ID] = err
			}

			s.metrics.Deletions.WithLabelValues(outcome).Inc()
			return nil
		})
	}

	_ = g.Wait()

	s.l.Info("scheduled deletions processed", &logger.LogContext{Data: map[string]any{
		"due":             len(due),
		"deleted":         r.Deleted,
		"skippedHeld":     r.SkippedHeld,
		"skippedConflict": r.SkippedConflict,
		"failed":          len(r.Failed),
	}})

	return r
}

func (s *Scheduler) process(ctx context.Context, a retention.Account) (string, error) {
	_, err := s.deleter.ExecuteScheduledDeletion(ctx, a.ID)
	switch {
	case err == nil:
		return OutcomeDeleted, nil

	case errors.Is(err, retention.ErrHoldActive):
		s.sink.Record(ctx, retention.AuditEntry{
			AccountID:   a.ID,
			Action:      retention.ActionSkipHoldActive,
			Reason:      skipHoldReason,
			BeforeState: a.State,
			AfterState:  a.State,
		})
		return OutcomeSkippedHeld, nil

	case errors.Is(err, retention.ErrConflict):
		s.l.Debug("scheduled deletion skipped", &logger.LogContext{
			Data:  map[string]any{"accountId": a.ID.String()},
			Error: err,
		})
		return OutcomeSkippedConflict, nil

	default:
		s.l.Error("scheduled deletion failed", &logger.LogContext{
			Data:  map[string]any{"accountId": a.ID.String()},
			Error: err,
		})
		return OutcomeFailed, fmt.Errorf("account %s: %w", a.ID, err)
	}
}

// Package reminder warns owners of self-initiated deletions as the deletion approaches.
package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/logger"
	"github.com/xy-planning-network/retention/scheduler"
	"golang.org/x/sync/errgroup"
)

// A Lister finds pending deletions their owners initiated.
type Lister interface {
	ListSelfPending(ctx context.Context) ([]retention.Account, error)
}

// A Report summarizes one Emitter run.
type Report struct {
	StartedAt time.Time
	Sent      map[retention.Milestone]int
	Skipped   int
	Failed    map[uuid.UUID]error
}

// Failures returns how many accounts a reminder could not be sent to.
func (r Report) Failures() int { return len(r.Failed) }

// MarshalJSON renders milestones by name and Failed as error messages keyed by account ID.
func (r Report) MarshalJSON() ([]byte, error) {
	sent := make(map[string]int, len(r.Sent))
	for m, n := range r.Sent {
		sent[m.String()] = n
	}

	failed := make(map[string]string, len(r.Failed))
	for id, err := range r.Failed {
		failed[id.String()] = err.Error()
	}

	return json.Marshal(struct {
		StartedAt time.Time         `json:"startedAt"`
		Sent      map[string]int    `json:"sent"`
		Skipped   int               `json:"skipped"`
		Failed    map[string]string `json:"failed"`
	}{r.StartedAt, sent, r.Skipped, failed})
}

// An Emitter sends the 7, 3 and 1 day deletion reminders.
//
// Each milestone is claimed in the ReminderLedger before sending,
// keyed by the deletion's scheduled time, so reruns never send it twice
// and a later, separate self-deletion gets a fresh set.
// Admin-initiated deletions are never reminded.
type Emitter struct {
	accounts    Lister
	ledger      retention.ReminderLedger
	notifier    retention.Notifier
	links       retention.CancelLinker
	clock       retention.Clock
	l           logger.Logger
	metrics     *scheduler.Metrics
	parallelism int
}

// New constructs an *Emitter.
func New(
	accounts Lister,
	ledger retention.ReminderLedger,
	notifier retention.Notifier,
	links retention.CancelLinker,
	opts ...Option,
) *Emitter {
	e := &Emitter{
		accounts:    accounts,
		ledger:      ledger,
		notifier:    notifier,
		links:       links,
		clock:       retention.SystemClock{},
		l:           logger.New(logger.WithKind(retention.WorkerLogKind)),
		metrics:     scheduler.NewMetrics(nil),
		parallelism: scheduler.DefaultParallelism,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Name identifies the Emitter as a Job.
func (e *Emitter) Name() string { return "reminder" }

// Job wraps e for a scheduler.Worker.
func (e *Emitter) Job() scheduler.Job {
	return scheduler.Job{Name: e.Name(), Run: func(ctx context.Context) scheduler.Result { return e.Run(ctx) }}
}

// Run sends every reminder due now.
func (e *Emitter) Run(ctx context.Context) Report {
	r := Report{
		StartedAt: e.clock.Now(),
		Sent:      make(map[retention.Milestone]int),
		Failed:    make(map[uuid.UUID]error),
	}

	accounts, err := e.accounts.ListSelfPending(ctx)
	if err != nil {
		e.l.Error("failed listing self-initiated deletions", &logger.LogContext{Error: err})
		r.Failed[uuid.Nil] = err
		return r
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(e.parallelism)

	for _, a := range accounts {
		a := a
		g.Go(func() error {
			m, sent, err := e.remind(ctx, a, r.StartedAt)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				r.Failed[a.ID] = err
			case sent:
				r.Sent[m]++
				e.metrics.RemindersSent.WithLabelValues(m.String()).Inc()
			default:
				r.Skipped++
			}

			return nil
		})
	}

	_ = g.Wait()

	e.l.Info("deletion reminders processed", &logger.LogContext{Data: map[string]any{
		"candidates": len(accounts),
		"sent":       len(accounts) - r.Skipped - len(r.Failed),
		"failed":     len(r.Failed),
	}})

	return r
}

// remind sends a's reminder if a has reached a milestone not yet claimed.
func (e *Emitter) remind(ctx context.Context, a retention.Account, now time.Time) (retention.Milestone, bool, error) {
	if !a.IsSelfInitiated() || a.DeletionScheduledFor == nil {
		return 0, false, nil
	}

	scheduled := *a.DeletionScheduledFor
	m, ok := retention.MilestoneFor(retention.DaysUntil(scheduled, now))
	if !ok {
		return 0, false, nil
	}

	claimed, err := e.ledger.Claim(ctx, a.ID, scheduled, m)
	if err != nil {
		return m, false, fmt.Errorf("%w: claiming %s reminder: %s", retention.ErrDependency, m, err)
	}

	if !claimed {
		return m, false, nil
	}

	err = e.send(ctx, a.ID, scheduled, m)
	if err == nil {
		return m, true, nil
	}

	if uerr := e.ledger.Unclaim(ctx, a.ID, scheduled, m); uerr != nil {
		e.l.Error("failed releasing reminder claim", &logger.LogContext{
			Data:  map[string]any{"accountId": a.ID.String(), "milestone": m.String()},
			Error: uerr,
		})
	}

	return m, false, err
}

func (e *Emitter) send(ctx context.Context, id uuid.UUID, scheduled time.Time, m retention.Milestone) error {
	link, err := e.links.CancelLink(id, scheduled)
	if err != nil {
		return fmt.Errorf("%w: building cancel link: %s", retention.ErrUnexpected, err)
	}

	err = e.notifier.Notify(ctx, retention.Notification{
		Kind:          retention.NotificationDeletionReminder,
		AccountID:     id,
		ScheduledFor:  scheduled,
		DaysRemaining: int(m),
		CancelLink:    link,
	})
	if err != nil {
		return fmt.Errorf("%w: sending %s reminder: %s", retention.ErrDependency, m, err)
	}

	return nil
}

// Package audit records lifecycle transitions to an append-only trail.
package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/logger"
)

// A Sink fans out AuditEntries to an AuditStore and a Logger.
//
// Recording is best-effort:
// a failure to store an entry is logged and never fails the transition that produced it.
type Sink struct {
	store retention.AuditStore
	l     logger.Logger
	clock retention.Clock
}

// New constructs a *Sink.
func New(store retention.AuditStore, l logger.Logger, clock retention.Clock) *Sink {
	if clock == nil {
		clock = retention.SystemClock{}
	}

	return &Sink{store: store, l: l, clock: clock}
}

// Record stamps e with the current time and request ID, when unset,
// and writes it to the store and log.
// A nil *Sink discards e.
func (s *Sink) Record(ctx context.Context, e retention.AuditEntry) {
	if s == nil {
		return
	}

	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.clock.Now()
	}

	if e.RequestID == "" {
		e.RequestID = retention.RequestIDFromContext(ctx)
	}

	data := map[string]any{
		"audit":       true,
		"accountId":   e.AccountID.String(),
		"action":      e.Action.String(),
		"beforeState": e.BeforeState.String(),
		"afterState":  e.AfterState.String(),
	}
	if e.AdminID != nil {
		data["adminId"] = e.AdminID.String()
	} else {
		data["adminId"] = "system"
	}

	if e.Reason != "" {
		data["reason"] = e.Reason
	}

	if e.RequestID != "" {
		data["requestId"] = e.RequestID
	}

	if err := e.Action.Valid(); err != nil {
		s.l.Error("audit entry rejected", &logger.LogContext{Data: data, Error: err})
		return
	}

	if err := s.store.AppendAudit(ctx, &e); err != nil {
		s.l.Error(
			"failed storing audit entry",
			&logger.LogContext{Data: data, Error: fmt.Errorf("%w: %s", retention.ErrDependency, err)},
		)
		return
	}

	s.l.Info("audit event", &logger.LogContext{Data: data})
}

// Query retrieves the account's entries ordered by when they occurred.
func (s *Sink) Query(ctx context.Context, accountID uuid.UUID) ([]retention.AuditEntry, error) {
	if s == nil {
		return nil, nil
	}

	return s.store.ListAudit(ctx, accountID)
}

// Package holds manages legal holds blocking permanent deletion.
package holds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/audit"
)

// A Registry answers whether an account is under legal hold
// and lets admins place and release holds.
//
// Holds are additive: an account may carry several at once
// and is held while any one of them is active.
type Registry struct {
	accounts retention.AccountStore
	store    retention.HoldStore
	sink     *audit.Sink
	clock    retention.Clock
}

// NewRegistry constructs a *Registry.
func NewRegistry(accounts retention.AccountStore, store retention.HoldStore, sink *audit.Sink, clock retention.Clock) *Registry {
	if clock == nil {
		clock = retention.SystemClock{}
	}

	return &Registry{accounts: accounts, store: store, sink: sink, clock: clock}
}

// HasActiveHold reports whether any hold on the account is active now.
// Expired holds lapse without being released.
func (r *Registry) HasActiveHold(ctx context.Context, accountID uuid.UUID) (bool, error) {
	holds, err := r.store.ListHolds(ctx, accountID)
	if err != nil {
		return false, err
	}

	now := r.clock.Now()
	for _, h := range holds {
		if h.Active(now) {
			return true, nil
		}
	}

	return false, nil
}

// Create places a new hold on the account.
func (r *Registry) Create(
	ctx context.Context,
	caller retention.Caller,
	accountID uuid.UUID,
	reason string,
	expiresAt *time.Time,
) (retention.LegalHold, error) {
	if !caller.IsAdmin {
		return retention.LegalHold{}, fmt.Errorf("%w: only admins may place legal holds", retention.ErrForbidden)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return retention.LegalHold{}, fmt.Errorf("%w: legal hold requires a reason", retention.ErrMissingData)
	}

	now := r.clock.Now()
	if expiresAt != nil && !expiresAt.After(now) {
		return retention.LegalHold{}, fmt.Errorf("%w: legal hold must expire in the future", retention.ErrNotValid)
	}

	a, err := r.accounts.Get(ctx, accountID)
	if err != nil {
		return retention.LegalHold{}, err
	}

	h := retention.LegalHold{
		AccountID: accountID,
		Reason:    reason,
		CreatedBy: caller.ID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := r.store.CreateHold(ctx, &h); err != nil {
		return retention.LegalHold{}, err
	}

	r.sink.Record(ctx, retention.AuditEntry{
		AccountID:   accountID,
		AdminID:     caller.AdminID(),
		Action:      retention.ActionHoldCreated,
		Reason:      reason,
		OccurredAt:  now,
		BeforeState: a.State,
		AfterState:  a.State,
	})

	return h, nil
}

// Release ends the hold.
// Releasing a hold twice returns ErrInvalidState.
func (r *Registry) Release(ctx context.Context, caller retention.Caller, holdID uuid.UUID) (retention.LegalHold, error) {
	if !caller.IsAdmin {
		return retention.LegalHold{}, fmt.Errorf("%w: only admins may release legal holds", retention.ErrForbidden)
	}

	now := r.clock.Now()
	h, err := r.store.ReleaseHold(ctx, holdID, caller.ID, now)
	if err != nil {
		return retention.LegalHold{}, err
	}

	var state retention.State
	if a, err := r.accounts.Get(ctx, h.AccountID); err == nil {
		state = a.State
	}

	r.sink.Record(ctx, retention.AuditEntry{
		AccountID:   h.AccountID,
		AdminID:     caller.AdminID(),
		Action:      retention.ActionHoldReleased,
		Reason:      h.Reason,
		OccurredAt:  now,
		BeforeState: state,
		AfterState:  state,
	})

	return h, nil
}

// List retrieves every hold on the account, released and expired ones included.
func (r *Registry) List(ctx context.Context, accountID uuid.UUID) ([]retention.LegalHold, error) {
	return r.store.ListHolds(ctx, accountID)
}

// Package lifecycle moves accounts through their retention states.
//
// Handler is the synchronous command surface used by admins and account owners,
// and the deletion path the scheduler runs.
// Every transition reads the account, checks it against the transition table,
// and writes through AccountStore.CompareAndSet with the state it read as the expected state.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/audit"
	"github.com/xy-planning-network/retention/logger"
)

// A HoldChecker reports whether an account is under an active legal hold.
type HoldChecker interface {
	HasActiveHold(ctx context.Context, accountID uuid.UUID) (bool, error)
}

// A Handler executes lifecycle commands.
type Handler struct {
	accounts retention.AccountStore
	holds    HoldChecker
	sink     *audit.Sink

	clock    retention.Clock
	eraser   retention.Eraser
	grace    time.Duration
	l        logger.Logger
	links    retention.CancelLinker
	notifier retention.Notifier
	reauth   retention.Reauthenticator
	receipts retention.ReceiptStore
	sessions retention.SessionRevoker
}

// New constructs a *Handler.
func New(accounts retention.AccountStore, holds HoldChecker, sink *audit.Sink, opts ...Option) *Handler {
	h := &Handler{
		accounts: accounts,
		holds:    holds,
		sink:     sink,
		clock:    retention.SystemClock{},
		grace:    retention.DefaultGracePeriod,
		l:        logger.New(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// A SelfDeletion is the outcome of an owner requesting their account be deleted.
type SelfDeletion struct {
	Account    retention.Account
	CancelLink string
}

// Suspend blocks an active or pending account, clearing any scheduled deletion
// and revoking the account's sessions.
func (h *Handler) Suspend(ctx context.Context, caller retention.Caller, id uuid.UUID, reason string) (retention.Account, error) {
	if err := requireAdmin(caller); err != nil {
		return retention.Account{}, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return retention.Account{}, fmt.Errorf("%w: cannot suspend: a reason is required", retention.ErrInvalidState)
	}

	now := h.clock.Now()
	a, err := h.apply(ctx, CommandSuspend, caller, id, reason, func(a *retention.Account) error {
		a.ClearDeletion()
		a.SuspendedAt = &now
		a.SuspendedBy = caller.AdminID()
		a.SuspensionReason = reason
		return nil
	})
	if err != nil {
		return retention.Account{}, err
	}

	if h.sessions != nil {
		if err := h.sessions.RevokeAll(ctx, id, now); err != nil {
			h.l.Error("failed revoking sessions of suspended account", &logger.LogContext{
				Data:  map[string]any{"accountId": id.String()},
				Error: fmt.Errorf("%w: %s", retention.ErrDependency, err),
				User:  caller,
			})
		}
	}

	return a, nil
}

// MoveToDeletion starts the grace period of a suspended account.
// Admin-initiated deletions are neither reminded nor cancellable by the owner.
func (h *Handler) MoveToDeletion(ctx context.Context, caller retention.Caller, id uuid.UUID) (retention.Account, error) {
	if err := requireAdmin(caller); err != nil {
		return retention.Account{}, err
	}

	scheduled := h.clock.Now().Add(h.grace)
	initiator := retention.InitiatorAdmin
	return h.apply(ctx, CommandMoveToDeletion, caller, id, "", func(a *retention.Account) error {
		a.DeletionScheduledFor = &scheduled
		a.DeletionInitiator = &initiator
		return nil
	})
}

// Unsuspend restores a suspended or pending account to active.
func (h *Handler) Unsuspend(ctx context.Context, caller retention.Caller, id uuid.UUID) (retention.Account, error) {
	if err := requireAdmin(caller); err != nil {
		return retention.Account{}, err
	}

	return h.apply(ctx, CommandUnsuspend, caller, id, "", func(a *retention.Account) error {
		a.ClearSuspension()
		a.ClearDeletion()
		return nil
	})
}

// SelfInitiateDeletion schedules the caller's own account for deletion
// once proof of re-authentication checks out,
// and sends the owner a confirmation carrying a cancellation link.
func (h *Handler) SelfInitiateDeletion(
	ctx context.Context,
	caller retention.Caller,
	id uuid.UUID,
	reauth string,
) (SelfDeletion, error) {
	if !caller.Owns(id) {
		return SelfDeletion{}, fmt.Errorf("%w: only the account owner may delete their account", retention.ErrForbidden)
	}

	if h.reauth == nil {
		return SelfDeletion{}, fmt.Errorf("%w: no reauthenticator configured", retention.ErrBadConfig)
	}

	if err := h.reauth.VerifyReauth(reauth, id); err != nil {
		return SelfDeletion{}, fmt.Errorf("%w: identity could not be re-verified: %s", retention.ErrForbidden, err)
	}

	now := h.clock.Now()
	scheduled := now.Add(h.grace)
	initiator := retention.InitiatorSelf
	a, err := h.apply(ctx, CommandSelfInitiateDeletion, caller, id, "", func(a *retention.Account) error {
		a.DeletionScheduledFor = &scheduled
		a.DeletionInitiator = &initiator
		return nil
	})
	if err != nil {
		return SelfDeletion{}, err
	}

	link := h.cancelLink(a)
	h.notify(ctx, retention.Notification{
		Kind:          retention.NotificationDeletionConfirmation,
		AccountID:     id,
		ScheduledFor:  scheduled,
		DaysRemaining: retention.DaysUntil(scheduled, now),
		CancelLink:    link,
	})

	return SelfDeletion{Account: a, CancelLink: link}, nil
}

// SelfCancelDeletion returns the caller's own pending account to active.
// Deletions an admin started return ErrNotSelfInitiated.
func (h *Handler) SelfCancelDeletion(ctx context.Context, caller retention.Caller, id uuid.UUID) (retention.Account, error) {
	if !caller.Owns(id) {
		return retention.Account{}, fmt.Errorf("%w: only the account owner may cancel their deletion", retention.ErrForbidden)
	}

	return h.apply(ctx, CommandSelfCancelDeletion, caller, id, "", func(a *retention.Account) error {
		if !a.IsSelfInitiated() {
			return retention.ErrNotSelfInitiated
		}

		a.ClearDeletion()
		return nil
	})
}

// PermanentlyDelete erases the account immediately, bypassing the grace period.
// An active legal hold blocks it with ErrHoldActive.
func (h *Handler) PermanentlyDelete(
	ctx context.Context,
	caller retention.Caller,
	id uuid.UUID,
	reason string,
) (retention.ErasureReceipt, error) {
	if err := requireAdmin(caller); err != nil {
		return retention.ErasureReceipt{}, err
	}

	return h.erase(ctx, CommandPermanentlyDelete, caller, id, strings.TrimSpace(reason))
}

// ExecuteScheduledDeletion erases a pending account whose grace period has elapsed.
//
// ErrConflict returns when the account left pending_deletion,
// or was rescheduled, since the caller listed it.
func (h *Handler) ExecuteScheduledDeletion(ctx context.Context, id uuid.UUID) (retention.ErasureReceipt, error) {
	return h.erase(ctx, CommandScheduledDelete, retention.SystemActor, id, "")
}

// apply runs the transition named by cmd against the account.
func (h *Handler) apply(
	ctx context.Context,
	cmd Command,
	caller retention.Caller,
	id uuid.UUID,
	reason string,
	mutate func(*retention.Account) error,
) (retention.Account, error) {
	current, err := h.accounts.Get(ctx, id)
	if err != nil {
		return retention.Account{}, err
	}

	t, err := guard(cmd, current.State)
	if err != nil {
		return retention.Account{}, err
	}

	updated, err := h.accounts.CompareAndSet(ctx, id, current.State, func(a *retention.Account) error {
		a.State = t.To
		return mutate(a)
	})
	if err != nil {
		return retention.Account{}, err
	}

	h.record(ctx, caller, t, reason, current.State, updated.State, id)

	return updated, nil
}

// erase removes the account's personal data, keeps a receipt of it,
// and only then marks the account deleted.
// The account stays locked throughout, so no other transition lands mid-erasure.
// A failed erasure step leaves the account in its prior state.
func (h *Handler) erase(
	ctx context.Context,
	cmd Command,
	caller retention.Caller,
	id uuid.UUID,
	reason string,
) (retention.ErasureReceipt, error) {
	if h.eraser == nil || h.receipts == nil {
		return retention.ErasureReceipt{}, fmt.Errorf("%w: erasure is not configured", retention.ErrBadConfig)
	}

	var (
		t        Transition
		receipt  retention.ErasureReceipt
		previous retention.State
		updated  retention.Account
	)

	err := h.accounts.Lock(ctx, id, func(ctx context.Context) error {
		current, err := h.accounts.Get(ctx, id)
		if err != nil {
			return err
		}

		scheduled := cmd == CommandScheduledDelete
		t, err = guard(cmd, current.State)
		if scheduled && err == nil && !h.due(current) {
			err = fmt.Errorf("%w: deletion of account %s is not yet due", retention.ErrInvalidState, id)
		}

		if scheduled && err != nil {
			return fmt.Errorf("%w: %s", retention.ErrConflict, err)
		}

		if err != nil {
			return err
		}

		held, err := h.holds.HasActiveHold(ctx, id)
		if err != nil {
			return err
		}

		if held {
			return fmt.Errorf("%w: account %s", retention.ErrHoldActive, id)
		}

		receipt, err = h.eraser.Erase(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: erasing account %s: %s", retention.ErrDependency, id, err)
		}

		now := h.clock.Now()
		receipt.AccountID = id
		receipt.CompletedAt = now
		if err := h.receipts.SaveReceipt(ctx, &receipt); err != nil {
			return fmt.Errorf("%w: saving erasure receipt: %s", retention.ErrDependency, err)
		}

		previous = current.State
		updated, err = h.accounts.CompareAndSet(ctx, id, current.State, func(a *retention.Account) error {
			a.State = t.To
			a.DeletedAt = &now
			a.ClearDeletion()
			a.ClearSuspension()
			return nil
		})
		if err != nil {
			h.l.Error("account erased but not marked deleted", &logger.LogContext{
				Data: map[string]any{
					"accountId": id.String(),
					"receiptId": receipt.ID.String(),
				},
				Error: err,
				User:  caller,
			})

			// the data is gone, so a conflict here is a failure, never a skip
			return fmt.Errorf(
				"%w: account %s erased under receipt %s but not marked deleted: %s",
				retention.ErrDependency, id, receipt.ID, err,
			)
		}

		return nil
	})
	if err != nil {
		return retention.ErasureReceipt{}, err
	}

	h.record(ctx, caller, t, reason, previous, updated.State, id)

	return receipt, nil
}

func (h *Handler) due(a retention.Account) bool {
	return a.DeletionScheduledFor != nil && !a.DeletionScheduledFor.After(h.clock.Now())
}

func (h *Handler) record(
	ctx context.Context,
	caller retention.Caller,
	t Transition,
	reason string,
	before, after retention.State,
	id uuid.UUID,
) {
	h.sink.Record(ctx, retention.AuditEntry{
		AccountID:   id,
		AdminID:     caller.AdminID(),
		Action:      t.Action,
		Reason:      reason,
		OccurredAt:  h.clock.Now(),
		BeforeState: before,
		AfterState:  after,
	})
}

func (h *Handler) cancelLink(a retention.Account) string {
	if h.links == nil || a.DeletionScheduledFor == nil {
		return ""
	}

	link, err := h.links.CancelLink(a.ID, *a.DeletionScheduledFor)
	if err != nil {
		h.l.Error("failed building cancel link", &logger.LogContext{
			Data:  map[string]any{"accountId": a.ID.String()},
			Error: err,
		})
		return ""
	}

	return link
}

// notify sends n, logging rather than returning a delivery failure.
func (h *Handler) notify(ctx context.Context, n retention.Notification) {
	if h.notifier == nil {
		return
	}

	if err := h.notifier.Notify(ctx, n); err != nil {
		h.l.Error("failed sending notification", &logger.LogContext{
			Data:  map[string]any{"accountId": n.AccountID.String(), "kind": n.Kind.String()},
			Error: fmt.Errorf("%w: %s", retention.ErrDependency, err),
		})
	}
}

func requireAdmin(caller retention.Caller) error {
	if !caller.IsAdmin {
		return fmt.Errorf("%w: admin only", retention.ErrForbidden)
	}

	return nil
}

package retention

//go:generate mockgen -destination=mocks/collaborators.go -package=mocks github.com/xy-planning-network/retention CancelLinker,Eraser,Notifier,Reauthenticator,SessionRevoker

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// An AccountStore persists Accounts.
// Every lifecycle transition goes through CompareAndSet.
type AccountStore interface {
	// Get retrieves the Account or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (Account, error)

	// CompareAndSet applies mutate to a copy of the Account
	// and saves it only if the stored State still equals expected.
	// CompareAndSet returns ErrConflict when the State moved underneath the caller.
	CompareAndSet(ctx context.Context, id uuid.UUID, expected State, mutate func(*Account) error) (Account, error)

	// Lock runs fn while holding the Account against writes from outside fn.
	// Get and CompareAndSet calls made with the context passed to fn join the lock;
	// concurrent CompareAndSet calls wait until fn returns.
	Lock(ctx context.Context, id uuid.UUID, fn func(ctx context.Context) error) error

	// Create inserts a new Account.
	Create(ctx context.Context, a *Account) error

	// ListDue retrieves pending deletions scheduled at or before now, earliest first.
	ListDue(ctx context.Context, now time.Time) ([]Account, error)

	// ListPending retrieves every pending deletion, earliest first.
	ListPending(ctx context.Context) ([]Account, error)

	// ListSelfPending retrieves pending deletions the owner initiated.
	ListSelfPending(ctx context.Context) ([]Account, error)
}

// A HoldStore persists LegalHolds.
type HoldStore interface {
	CreateHold(ctx context.Context, h *LegalHold) error
	GetHold(ctx context.Context, id uuid.UUID) (LegalHold, error)
	ListHolds(ctx context.Context, accountID uuid.UUID) ([]LegalHold, error)

	// ReleaseHold marks the hold released unless it already is,
	// in which case ErrInvalidState returns.
	ReleaseHold(ctx context.Context, id, by uuid.UUID, at time.Time) (LegalHold, error)
}

// An AuditStore is an append-only sink of AuditEntries.
type AuditStore interface {
	AppendAudit(ctx context.Context, e *AuditEntry) error
	ListAudit(ctx context.Context, accountID uuid.UUID) ([]AuditEntry, error)
}

// A ReminderLedger tracks the Milestones sent for each deletion schedule of an Account.
type ReminderLedger interface {
	// Claim records the Milestone as sent, returning false if it already was.
	Claim(ctx context.Context, accountID uuid.UUID, scheduledFor time.Time, m Milestone) (bool, error)

	// Unclaim forgets a Milestone so a later run can send it.
	Unclaim(ctx context.Context, accountID uuid.UUID, scheduledFor time.Time, m Milestone) error
}

// A ReceiptStore persists ErasureReceipts.
type ReceiptStore interface {
	SaveReceipt(ctx context.Context, r *ErasureReceipt) error
}

// An Eraser irreversibly removes an Account's personal data.
// Erase must be safe to call again after a partial failure.
type Eraser interface {
	Erase(ctx context.Context, accountID uuid.UUID) (ErasureReceipt, error)
}

// A SessionRevoker invalidates every session an Account holds.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, accountID uuid.UUID, at time.Time) error
}

// A Notifier hands a Notification to the mail collaborator.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// A Reauthenticator verifies proof that the account owner recently re-confirmed their identity.
type Reauthenticator interface {
	VerifyReauth(proof string, accountID uuid.UUID) error
}

// A CancelLinker builds the link an account owner follows to cancel their deletion.
type CancelLinker interface {
	CancelLink(accountID uuid.UUID, expiresAt time.Time) (string, error)
}

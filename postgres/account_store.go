package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
)

var _ retention.AccountStore = (*AccountStore)(nil)

// An AccountStore persists Accounts in the accounts table.
//
// CompareAndSet is a conditional UPDATE on the account's state and updated_at columns,
// the serialization point between admins, owners and the scheduler.
// Lock holds the account row for work, like erasure, spanning more than one statement.
type AccountStore struct {
	db *DB
}

// NewAccountStore constructs an *AccountStore.
func NewAccountStore(db *DB) *AccountStore { return &AccountStore{db: db} }

// Get retrieves the Account by id.
func (s *AccountStore) Get(ctx context.Context, id uuid.UUID) (retention.Account, error) {
	var a retention.Account
	err := s.db.conn(ctx).Where("id = ?", id).First(&a)
	if errors.Is(err, retention.ErrNotFound) {
		return retention.Account{}, fmt.Errorf("%w: account %s", retention.ErrNotFound, id)
	}

	if err != nil {
		return retention.Account{}, err
	}

	return a, nil
}

// Create inserts a, assigning an ID if a has none.
func (s *AccountStore) Create(ctx context.Context, a *retention.Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	if a.State == "" {
		a.State = retention.StateActive
	}

	if err := a.Valid(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Create(a)
}

// CompareAndSet applies mutate to a copy of the stored Account
// and writes it back only while the stored state is still expected.
func (s *AccountStore) CompareAndSet(
	ctx context.Context,
	id uuid.UUID,
	expected retention.State,
	mutate func(*retention.Account) error,
) (retention.Account, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return retention.Account{}, err
	}

	if current.State != expected {
		return retention.Account{}, conflict(id, expected, current.State)
	}

	next := current
	if err := mutate(&next); err != nil {
		return retention.Account{}, err
	}

	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	if err := next.Valid(); err != nil {
		return retention.Account{}, err
	}

	err = s.db.
		conn(ctx).
		Model(new(retention.Account)).
		Where("id = ?", id).
		Where("state = ?", string(expected)).
		Where("updated_at = ?", current.UpdatedAt).
		Update(accountUpdates(next))
	if errors.Is(err, retention.ErrNotFound) {
		latest, gerr := s.Get(ctx, id)
		if gerr != nil {
			return retention.Account{}, gerr
		}

		return retention.Account{}, conflict(id, expected, latest.State)
	}

	if err != nil {
		return retention.Account{}, err
	}

	return next, nil
}

// Lock runs fn inside a transaction holding the account row with SELECT ... FOR UPDATE.
// Get and CompareAndSet calls made with the context passed to fn run inside that transaction.
func (s *AccountStore) Lock(ctx context.Context, id uuid.UUID, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*DB); ok {
		if err := s.lockRow(ctx, id); err != nil {
			return err
		}

		return fn(ctx)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *DB) error {
		txCtx := context.WithValue(ctx, txKey{}, tx)
		if err := s.lockRow(txCtx, id); err != nil {
			return err
		}

		return fn(txCtx)
	})
}

func (s *AccountStore) lockRow(ctx context.Context, id uuid.UUID) error {
	var a retention.Account
	err := s.db.conn(ctx).Locking().Where("id = ?", id).First(&a)
	if errors.Is(err, retention.ErrNotFound) {
		return fmt.Errorf("%w: account %s", retention.ErrNotFound, id)
	}

	return err
}

// ListDue retrieves pending deletions scheduled at or before now, earliest first.
func (s *AccountStore) ListDue(ctx context.Context, now time.Time) ([]retention.Account, error) {
	var accounts []retention.Account
	err := s.db.
		WithContext(ctx).
		Where("state = ?", string(retention.StatePendingDeletion)).
		Where("deletion_scheduled_for <= ?", now).
		Order("deletion_scheduled_for ASC, id ASC").
		Find(&accounts)

	return accounts, err
}

// ListPending retrieves every pending deletion, earliest first.
func (s *AccountStore) ListPending(ctx context.Context) ([]retention.Account, error) {
	var accounts []retention.Account
	err := s.db.
		WithContext(ctx).
		Where("state = ?", string(retention.StatePendingDeletion)).
		Order("deletion_scheduled_for ASC, id ASC").
		Find(&accounts)

	return accounts, err
}

// ListSelfPending retrieves pending deletions the account owner initiated.
func (s *AccountStore) ListSelfPending(ctx context.Context) ([]retention.Account, error) {
	var accounts []retention.Account
	err := s.db.
		WithContext(ctx).
		Where("state = ?", string(retention.StatePendingDeletion)).
		Where("deletion_initiator = ?", string(retention.InitiatorSelf)).
		Order("deletion_scheduled_for ASC, id ASC").
		Find(&accounts)

	return accounts, err
}

// accountUpdates lists every lifecycle column of a, nils included,
// so cleared fields become NULL.
func accountUpdates(a retention.Account) Updates {
	var initiator *string
	if a.DeletionInitiator != nil {
		i := a.DeletionInitiator.String()
		initiator = &i
	}

	return Updates{
		"state":                  a.State.String(),
		"suspended_at":           a.SuspendedAt,
		"suspended_by":           a.SuspendedBy,
		"suspension_reason":      a.SuspensionReason,
		"deletion_scheduled_for": a.DeletionScheduledFor,
		"deletion_initiator":     initiator,
		"deleted_at":             a.DeletedAt,
		"updated_at":             a.UpdatedAt,
	}
}

func conflict(id uuid.UUID, expected, got retention.State) error {
	return fmt.Errorf("%w: account %s is %s, expected %s", retention.ErrConflict, id, got, expected)
}

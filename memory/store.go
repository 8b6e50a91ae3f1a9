// Package memory implements the retention stores on mutex-guarded maps.
//
// A Store backs unit tests and the stub mode ranger starts
// when no database is configured. It honors the same contracts as the postgres stores,
// CompareAndSet included.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
)

var (
	_ retention.AccountStore   = (*Store)(nil)
	_ retention.HoldStore      = (*Store)(nil)
	_ retention.AuditStore     = (*Store)(nil)
	_ retention.ReminderLedger = (*Store)(nil)
	_ retention.ReceiptStore   = (*Store)(nil)
)

// lockKey marks a context as holding the lock on one account.
type lockKey struct{ id uuid.UUID }

type milestoneKey struct {
	accountID    uuid.UUID
	scheduledFor int64
	milestone    retention.Milestone
}

// A Store holds every retention record in memory.
type Store struct {
	mu         sync.Mutex
	accounts   map[uuid.UUID]retention.Account
	holds      map[uuid.UUID]retention.LegalHold
	audit      []retention.AuditEntry
	milestones map[milestoneKey]struct{}
	receipts   []retention.ErasureReceipt
	clock      retention.Clock

	// locks serialize Lock against CompareAndSet per account.
	locks map[uuid.UUID]*sync.Mutex
}

// New constructs an empty *Store.
func New() *Store {
	return &Store{
		accounts:   make(map[uuid.UUID]retention.Account),
		holds:      make(map[uuid.UUID]retention.LegalHold),
		milestones: make(map[milestoneKey]struct{}),
		clock:      retention.SystemClock{},
		locks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

// WithClock sets the clock stamping created and updated times.
func (s *Store) WithClock(c retention.Clock) *Store {
	s.clock = c
	return s
}

// **************************************************************************
// ACCOUNTS
// **************************************************************************

func (s *Store) Get(_ context.Context, id uuid.UUID) (retention.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return retention.Account{}, fmt.Errorf("%w: account %s", retention.ErrNotFound, id)
	}

	return a, nil
}

func (s *Store) Create(_ context.Context, a *retention.Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	if a.State == "" {
		a.State = retention.StateActive
	}

	if err := a.Valid(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[a.ID]; ok {
		return fmt.Errorf("%w: account %s", retention.ErrExists, a.ID)
	}

	now := s.clock.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}

	a.UpdatedAt = now
	s.accounts[a.ID] = *a
	return nil
}

// Lock runs fn holding the account's lock.
func (s *Store) Lock(ctx context.Context, id uuid.UUID, fn func(ctx context.Context) error) error {
	if ctx.Value(lockKey{id}) != nil {
		return fn(ctx)
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	m := s.accountLock(id)
	m.Lock()
	defer m.Unlock()

	return fn(context.WithValue(ctx, lockKey{id}, true))
}

func (s *Store) accountLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.locks[id]
	if !ok {
		m = new(sync.Mutex)
		s.locks[id] = m
	}

	return m
}

// CompareAndSet holds the lock across the read, mutate and write,
// so only one of several racing callers observes expected.
// Outside of Lock, CompareAndSet waits for the account's lock.
func (s *Store) CompareAndSet(
	ctx context.Context,
	id uuid.UUID,
	expected retention.State,
	mutate func(*retention.Account) error,
) (retention.Account, error) {
	if ctx.Value(lockKey{id}) == nil {
		m := s.accountLock(id)
		m.Lock()
		defer m.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.accounts[id]
	if !ok {
		return retention.Account{}, fmt.Errorf("%w: account %s", retention.ErrNotFound, id)
	}

	if current.State != expected {
		return retention.Account{}, fmt.Errorf(
			"%w: account %s is %s, expected %s",
			retention.ErrConflict, id, current.State, expected,
		)
	}

	next := current
	if err := mutate(&next); err != nil {
		return retention.Account{}, err
	}

	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.clock.Now()
	if err := next.Valid(); err != nil {
		return retention.Account{}, err
	}

	s.accounts[id] = next
	return next, nil
}

func (s *Store) ListDue(_ context.Context, now time.Time) ([]retention.Account, error) {
	return s.pending(func(a retention.Account) bool { return !a.DeletionScheduledFor.After(now) }), nil
}

func (s *Store) ListPending(context.Context) ([]retention.Account, error) {
	return s.pending(func(retention.Account) bool { return true }), nil
}

func (s *Store) ListSelfPending(context.Context) ([]retention.Account, error) {
	return s.pending(retention.Account.IsSelfInitiated), nil
}

// pending lists pending deletions matching keep, earliest scheduled first.
func (s *Store) pending(keep func(retention.Account) bool) []retention.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []retention.Account
	for _, a := range s.accounts {
		if a.State == retention.StatePendingDeletion && keep(a) {
			out = append(out, a)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		ti, tj := *out[i].DeletionScheduledFor, *out[j].DeletionScheduledFor
		if ti.Equal(tj) {
			return out[i].ID.String() < out[j].ID.String()
		}

		return ti.Before(tj)
	})

	return out
}

// **************************************************************************
// LEGAL HOLDS
// **************************************************************************

func (s *Store) CreateHold(_ context.Context, h *retention.LegalHold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[h.AccountID]; !ok {
		return fmt.Errorf("%w: account %s does not exist", retention.ErrNotValid, h.AccountID)
	}

	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}

	if h.CreatedAt.IsZero() {
		h.CreatedAt = s.clock.Now()
	}

	s.holds[h.ID] = *h
	return nil
}

func (s *Store) GetHold(_ context.Context, id uuid.UUID) (retention.LegalHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.holds[id]
	if !ok {
		return retention.LegalHold{}, fmt.Errorf("%w: legal hold %s", retention.ErrNotFound, id)
	}

	return h, nil
}

func (s *Store) ListHolds(_ context.Context, accountID uuid.UUID) ([]retention.LegalHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []retention.LegalHold
	for _, h := range s.holds {
		if h.AccountID == accountID {
			out = append(out, h)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}

		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (s *Store) ReleaseHold(_ context.Context, id, by uuid.UUID, at time.Time) (retention.LegalHold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.holds[id]
	if !ok {
		return retention.LegalHold{}, fmt.Errorf("%w: legal hold %s", retention.ErrNotFound, id)
	}

	if h.ReleasedAt != nil {
		return retention.LegalHold{}, fmt.Errorf("%w: legal hold %s already released", retention.ErrInvalidState, id)
	}

	h.ReleasedAt = &at
	h.ReleasedBy = &by
	s.holds[id] = h
	return h, nil
}

// **************************************************************************
// AUDIT
// **************************************************************************

func (s *Store) AppendAudit(_ context.Context, e *retention.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = uint(len(s.audit) + 1)
	s.audit = append(s.audit, *e)
	return nil
}

func (s *Store) ListAudit(_ context.Context, accountID uuid.UUID) ([]retention.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []retention.AuditEntry
	for _, e := range s.audit {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].ID < out[j].ID
		}

		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})

	return out, nil
}

// **************************************************************************
// REMINDER LEDGER
// **************************************************************************

func (s *Store) Claim(_ context.Context, accountID uuid.UUID, scheduledFor time.Time, m retention.Milestone) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := milestoneKey{accountID, scheduledFor.UnixNano(), m}
	if _, ok := s.milestones[k]; ok {
		return false, nil
	}

	s.milestones[k] = struct{}{}
	return true, nil
}

func (s *Store) Unclaim(_ context.Context, accountID uuid.UUID, scheduledFor time.Time, m retention.Milestone) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.milestones, milestoneKey{accountID, scheduledFor.UnixNano(), m})
	return nil
}

// **************************************************************************
// RECEIPTS
// **************************************************************************

func (s *Store) SaveReceipt(_ context.Context, r *retention.ErasureReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	if r.CompletedAt.IsZero() {
		r.CompletedAt = s.clock.Now()
	}

	s.receipts = append(s.receipts, *r)
	return nil
}

// ListReceipts retrieves the receipts recorded for the account, oldest first.
func (s *Store) ListReceipts(_ context.Context, accountID uuid.UUID) ([]retention.ErasureReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []retention.ErasureReceipt
	for _, r := range s.receipts {
		if r.AccountID == accountID {
			out = append(out, r)
		}
	}

	return out, nil
}

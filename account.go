package retention

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Day is the unit deletion countdowns are measured in.
const Day = 24 * time.Hour

// DefaultGracePeriod is the time between entering StatePendingDeletion and erasure.
const DefaultGracePeriod = 90 * Day

// A State is where an Account sits in its lifecycle.
// An Account is in exactly one State at any time.
type State string

const (
	StateActive          State = "active"
	StateSuspended       State = "suspended"
	StatePendingDeletion State = "pending_deletion"
	StateDeleted         State = "deleted"
)

// String stringifies the State.
//
// String implements fmt.Stringer.
func (s State) String() string { return string(s) }

// Valid asserts the State is a known value.
//
// Valid implements Enumerable.
func (s State) Valid() error {
	switch s {
	case StateActive, StateSuspended, StatePendingDeletion, StateDeleted:
		return nil
	default:
		return fmt.Errorf("%w: State %q", ErrNotValid, string(s))
	}
}

// An Initiator distinguishes who put an Account into StatePendingDeletion.
type Initiator string

const (
	InitiatorSelf  Initiator = "self"
	InitiatorAdmin Initiator = "admin"
)

// String stringifies the Initiator.
//
// String implements fmt.Stringer.
func (i Initiator) String() string { return string(i) }

// Valid asserts the Initiator is a known value.
//
// Valid implements Enumerable.
func (i Initiator) Valid() error {
	switch i {
	case InitiatorSelf, InitiatorAdmin:
		return nil
	default:
		return fmt.Errorf("%w: Initiator %q", ErrNotValid, string(i))
	}
}

// An Account is the lifecycle record of a single marketplace user.
type Account struct {
	ID                   uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	State                State      `json:"state"`
	SuspendedAt          *time.Time `json:"suspendedAt,omitempty"`
	SuspendedBy          *uuid.UUID `json:"suspendedBy,omitempty" gorm:"type:uuid"`
	SuspensionReason     string     `json:"suspensionReason,omitempty"`
	DeletionScheduledFor *time.Time `json:"deletionScheduledFor,omitempty"`
	DeletionInitiator    *Initiator `json:"deletionInitiator,omitempty"`
	DeletedAt            *time.Time `json:"deletedAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// Exists asserts whether the Account has been persisted.
func (a Account) Exists() bool { return a.ID != uuid.Nil && !a.CreatedAt.IsZero() }

// IsSelfInitiated asserts whether the Account owner started the pending deletion.
func (a Account) IsSelfInitiated() bool {
	return a.DeletionInitiator != nil && *a.DeletionInitiator == InitiatorSelf
}

// DaysRemaining returns the whole days, rounded up, until the Account's scheduled deletion.
// Accounts without a schedule return 0.
func (a Account) DaysRemaining(now time.Time) int {
	if a.DeletionScheduledFor == nil {
		return 0
	}

	return DaysUntil(*a.DeletionScheduledFor, now)
}

// Valid checks the Account's fields agree with its State.
func (a Account) Valid() error {
	if err := a.State.Valid(); err != nil {
		return err
	}

	pending := a.State == StatePendingDeletion
	if pending != (a.DeletionScheduledFor != nil) {
		return fmt.Errorf("%w: deletion schedule must be set only while %s", ErrNotValid, StatePendingDeletion)
	}

	if pending != (a.DeletionInitiator != nil) {
		return fmt.Errorf("%w: deletion initiator must be set only while %s", ErrNotValid, StatePendingDeletion)
	}

	if a.DeletionInitiator != nil {
		if err := a.DeletionInitiator.Valid(); err != nil {
			return err
		}
	}

	if (a.State == StateDeleted) != (a.DeletedAt != nil) {
		return fmt.Errorf("%w: deleted at must be set only when %s", ErrNotValid, StateDeleted)
	}

	if a.State == StateSuspended && a.SuspendedAt == nil {
		return fmt.Errorf("%w: suspended account missing suspension time", ErrNotValid)
	}

	return nil
}

// ClearDeletion removes every field tied to a pending deletion.
func (a *Account) ClearDeletion() {
	a.DeletionScheduledFor = nil
	a.DeletionInitiator = nil
}

// ClearSuspension removes every field tied to a suspension.
func (a *Account) ClearSuspension() {
	a.SuspendedAt = nil
	a.SuspendedBy = nil
	a.SuspensionReason = ""
}

// DaysUntil returns ceil((then - now) / Day).
func DaysUntil(then, now time.Time) int {
	return int(math.Ceil(float64(then.Sub(now)) / float64(Day)))
}

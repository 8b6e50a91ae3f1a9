package retention

import (
	"errors"
	"fmt"
)

var (
	ErrBadConfig    = errors.New("bad config")
	ErrConflict     = errors.New("state changed, please refresh")
	ErrDependency   = errors.New("dependency failed")
	ErrExists       = errors.New("already exists")
	ErrForbidden    = errors.New("forbidden")
	ErrHoldActive   = errors.New("legal hold active")
	ErrInvalidState = errors.New("invalid state")
	ErrMissingData  = errors.New("missing data")
	ErrNotFound     = errors.New("not found")
	ErrNotValid     = errors.New("invalid")
	ErrUnexpected   = errors.New("unexpected")

	// ErrNotSelfInitiated is returned when the account owner tries to cancel
	// a deletion an admin started.
	ErrNotSelfInitiated = fmt.Errorf("%w: deletion was not self-initiated", ErrInvalidState)

	// ErrNotSuspended is returned when an admin schedules deletion of an account
	// that is not suspended.
	ErrNotSuspended = fmt.Errorf("%w: account is not suspended", ErrInvalidState)
)

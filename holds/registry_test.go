package holds_test

import (
	"bytes"
	"context"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/audit"
	"github.com/xy-planning-network/retention/holds"
	"github.com/xy-planning-network/retention/logger"
	"github.com/xy-planning-network/retention/memory"
)

var now = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*holds.Registry, *memory.Store, retention.Account) {
	t.Helper()

	clock := retention.FixedClock(now)
	store := memory.New().WithClock(clock)
	sink := audit.New(store, logger.New(logger.WithLogger(log.New(new(bytes.Buffer), "", 0))), clock)

	a := retention.Account{}
	require.Nil(t, store.Create(context.Background(), &a))

	return holds.NewRegistry(store, store, sink, clock), store, a
}

func TestCreate(t *testing.T) {
	admin := retention.NewCaller(uuid.New(), true)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	tcs := []struct {
		name      string
		caller    retention.Caller
		accountID func(retention.Account) uuid.UUID
		reason    string
		expiresAt *time.Time
		err       error
	}{
		{"non-admin", retention.NewCaller(uuid.New(), false), nil, "litigation", nil, retention.ErrForbidden},
		{"no-reason", admin, nil, "  ", nil, retention.ErrMissingData},
		{"expired", admin, nil, "litigation", &past, retention.ErrNotValid},
		{"unknown-account", admin, func(retention.Account) uuid.UUID { return uuid.New() }, "litigation", nil, retention.ErrNotFound},
		{"indefinite", admin, nil, "litigation", nil, nil},
		{"expiring", admin, nil, "litigation", &future, nil},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			r, store, a := setup(t)
			id := a.ID
			if tc.accountID != nil {
				id = tc.accountID(a)
			}

			// Act
			h, err := r.Create(context.Background(), tc.caller, id, tc.reason, tc.expiresAt)

			// Assert
			require.ErrorIs(t, err, tc.err)
			if tc.err != nil {
				return
			}

			require.Equal(t, tc.caller.ID, h.CreatedBy)
			held, err := r.HasActiveHold(context.Background(), a.ID)
			require.Nil(t, err)
			require.True(t, held)

			entries, err := store.ListAudit(context.Background(), a.ID)
			require.Nil(t, err)
			require.Len(t, entries, 1)
			require.Equal(t, retention.ActionHoldCreated, entries[0].Action)
			require.Equal(t, tc.caller.ID, *entries[0].AdminID)
		})
	}
}

func TestHoldsAreAdditive(t *testing.T) {
	// Arrange
	ctx := context.Background()
	r, _, a := setup(t)
	admin := retention.NewCaller(uuid.New(), true)
	first, err := r.Create(ctx, admin, a.ID, "litigation", nil)
	require.Nil(t, err)
	_, err = r.Create(ctx, admin, a.ID, "regulator request", nil)
	require.Nil(t, err)

	// Act
	_, err = r.Release(ctx, admin, first.ID)
	require.Nil(t, err)
	held, err := r.HasActiveHold(ctx, a.ID)

	// Assert
	require.Nil(t, err)
	require.True(t, held)

	list, err := r.List(ctx, a.ID)
	require.Nil(t, err)
	require.Len(t, list, 2)
}

func TestHasActiveHoldExpiry(t *testing.T) {
	// Arrange
	ctx := context.Background()
	_, store, a := setup(t)
	expires := now.Add(time.Hour)
	require.Nil(t, store.CreateHold(ctx, &retention.LegalHold{AccountID: a.ID, Reason: "audit", ExpiresAt: &expires}))

	before := holds.NewRegistry(store, store, nil, retention.FixedClock(now))
	at := holds.NewRegistry(store, store, nil, retention.FixedClock(expires))

	// Act
	heldBefore, err := before.HasActiveHold(ctx, a.ID)
	require.Nil(t, err)
	heldAt, err := at.HasActiveHold(ctx, a.ID)
	require.Nil(t, err)

	// Assert
	require.True(t, heldBefore)
	require.False(t, heldAt)
}

func TestRelease(t *testing.T) {
	// Arrange
	ctx := context.Background()
	r, store, a := setup(t)
	admin := retention.NewCaller(uuid.New(), true)
	h, err := r.Create(ctx, admin, a.ID, "litigation", nil)
	require.Nil(t, err)

	// Act
	_, err = r.Release(ctx, retention.NewCaller(a.ID, false), h.ID)

	// Assert
	require.ErrorIs(t, err, retention.ErrForbidden)

	// Act
	released, err := r.Release(ctx, admin, h.ID)

	// Assert
	require.Nil(t, err)
	require.Equal(t, admin.ID, *released.ReleasedBy)
	held, err := r.HasActiveHold(ctx, a.ID)
	require.Nil(t, err)
	require.False(t, held)

	entries, err := store.ListAudit(ctx, a.ID)
	require.Nil(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, retention.ActionHoldReleased, entries[1].Action)

	// Act
	_, err = r.Release(ctx, admin, h.ID)

	// Assert
	require.ErrorIs(t, err, retention.ErrInvalidState)

	// Act
	_, err = r.Release(ctx, admin, uuid.New())

	// Assert
	require.ErrorIs(t, err, retention.ErrNotFound)
}

package postgres_test

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/postgres"
)

func (suite *DBTestSuite) newAccount() retention.Account {
	a := retention.Account{State: retention.StateActive}
	suite.Require().Nil(postgres.NewAccountStore(suite.db).Create(context.Background(), &a))
	return a
}

func (suite *DBTestSuite) TestAccountStoreCompareAndSet() {
	// Arrange
	ctx := context.Background()
	store := postgres.NewAccountStore(suite.db)
	a := suite.newAccount()
	when := time.Now().UTC().Add(retention.DefaultGracePeriod).Truncate(time.Microsecond)
	self := retention.InitiatorSelf

	// Act
	got, err := store.CompareAndSet(ctx, a.ID, retention.StateActive, func(a *retention.Account) error {
		a.State = retention.StatePendingDeletion
		a.DeletionScheduledFor = &when
		a.DeletionInitiator = &self
		return nil
	})

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(retention.StatePendingDeletion, got.State)

	stored, err := store.Get(ctx, a.ID)
	suite.Require().Nil(err)
	suite.Require().Equal(retention.StatePendingDeletion, stored.State)
	suite.Require().True(when.Equal(*stored.DeletionScheduledFor))
	suite.Require().True(stored.IsSelfInitiated())

	// Act
	_, err = store.CompareAndSet(ctx, a.ID, retention.StateActive, func(a *retention.Account) error {
		a.State = retention.StateSuspended
		return nil
	})

	// Assert
	suite.Require().ErrorIs(err, retention.ErrConflict)

	// Act
	_, err = store.CompareAndSet(ctx, a.ID, retention.StatePendingDeletion, func(a *retention.Account) error {
		a.State = retention.StateActive
		return nil
	})

	// Assert
	suite.Require().ErrorIs(err, retention.ErrNotValid)

	// Act
	_, err = store.CompareAndSet(ctx, uuid.New(), retention.StateActive, func(*retention.Account) error { return nil })

	// Assert
	suite.Require().ErrorIs(err, retention.ErrNotFound)
}

func (suite *DBTestSuite) TestAccountStoreCompareAndSetRoundTrip() {
	// Arrange
	ctx := context.Background()
	store := postgres.NewAccountStore(suite.db)
	a := suite.newAccount()
	self := retention.InitiatorSelf
	first := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	second := first.Add(retention.Day)
	schedule := func(at time.Time) func(*retention.Account) error {
		return func(a *retention.Account) error {
			a.State = retention.StatePendingDeletion
			a.DeletionScheduledFor = &at
			a.DeletionInitiator = &self
			return nil
		}
	}

	_, err := store.CompareAndSet(ctx, a.ID, retention.StateActive, schedule(first))
	suite.Require().Nil(err)

	// Act
	_, err = store.CompareAndSet(ctx, a.ID, retention.StatePendingDeletion, func(a *retention.Account) error {
		_, cerr := store.CompareAndSet(ctx, a.ID, retention.StatePendingDeletion, func(a *retention.Account) error {
			a.State = retention.StateActive
			a.ClearDeletion()
			return nil
		})
		suite.Require().Nil(cerr)

		_, cerr = store.CompareAndSet(ctx, a.ID, retention.StateActive, schedule(second))
		suite.Require().Nil(cerr)

		a.State = retention.StateDeleted
		now := time.Now().UTC()
		a.DeletedAt = &now
		a.ClearDeletion()
		return nil
	})

	// Assert
	suite.Require().ErrorIs(err, retention.ErrConflict)

	stored, err := store.Get(ctx, a.ID)
	suite.Require().Nil(err)
	suite.Require().Equal(retention.StatePendingDeletion, stored.State)
	suite.Require().True(second.Equal(*stored.DeletionScheduledFor))
}

func (suite *DBTestSuite) TestAccountStoreLock() {
	// Arrange
	ctx := context.Background()
	store := postgres.NewAccountStore(suite.db)
	a := suite.newAccount()
	landed := make(chan error, 1)

	// Act
	err := store.Lock(ctx, a.ID, func(ctx context.Context) error {
		go func() {
			_, err := store.CompareAndSet(context.Background(), a.ID, retention.StateActive, func(a *retention.Account) error {
				a.State = retention.StateSuspended
				at := time.Now().UTC()
				a.SuspendedAt = &at
				return nil
			})
			landed <- err
		}()

		select {
		case err := <-landed:
			return fmt.Errorf("write landed while locked: %v", err)
		case <-time.After(100 * time.Millisecond):
		}

		_, err := store.CompareAndSet(ctx, a.ID, retention.StateActive, func(a *retention.Account) error {
			a.State = retention.StateDeleted
			now := time.Now().UTC()
			a.DeletedAt = &now
			return nil
		})
		return err
	})

	// Assert
	suite.Require().Nil(err)
	suite.Require().ErrorIs(<-landed, retention.ErrConflict)

	stored, err := store.Get(ctx, a.ID)
	suite.Require().Nil(err)
	suite.Require().Equal(retention.StateDeleted, stored.State)

	// Act
	err = store.Lock(ctx, uuid.New(), func(context.Context) error { return nil })

	// Assert
	suite.Require().ErrorIs(err, retention.ErrNotFound)
}

func (suite *DBTestSuite) TestAccountStoreListDue() {
	// Arrange
	ctx := context.Background()
	store := postgres.NewAccountStore(suite.db)
	now := time.Now().UTC().Truncate(time.Microsecond)
	admin := retention.InitiatorAdmin
	self := retention.InitiatorSelf

	schedule := func(at time.Time, by *retention.Initiator) uuid.UUID {
		a := suite.newAccount()
		_, err := store.CompareAndSet(ctx, a.ID, retention.StateActive, func(a *retention.Account) error {
			a.State = retention.StatePendingDeletion
			a.DeletionScheduledFor = &at
			a.DeletionInitiator = by
			return nil
		})
		suite.Require().Nil(err)
		return a.ID
	}

	later := schedule(now.Add(-time.Hour), &admin)
	earlier := schedule(now.Add(-2*time.Hour), &self)
	future := schedule(now.Add(time.Hour), &self)
	suite.newAccount()

	// Act
	due, err := store.ListDue(ctx, now)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Len(due, 2)
	suite.Require().Equal(earlier, due[0].ID)
	suite.Require().Equal(later, due[1].ID)

	// Act
	pending, err := store.ListPending(ctx)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Len(pending, 3)
	suite.Require().Equal(future, pending[2].ID)

	// Act
	selfPending, err := store.ListSelfPending(ctx)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Len(selfPending, 2)
	suite.Require().Equal(earlier, selfPending[0].ID)
	suite.Require().Equal(future, selfPending[1].ID)
}

func (suite *DBTestSuite) TestHoldStoreRelease() {
	// Arrange
	ctx := context.Background()
	store := postgres.NewHoldStore(suite.db)
	a := suite.newAccount()
	admin := uuid.New()
	h := retention.LegalHold{AccountID: a.ID, Reason: "litigation", CreatedBy: admin}
	suite.Require().Nil(store.CreateHold(ctx, &h))

	// Act
	released, err := store.ReleaseHold(ctx, h.ID, admin, time.Now().UTC())

	// Assert
	suite.Require().Nil(err)
	suite.Require().NotNil(released.ReleasedAt)
	suite.Require().Equal(admin, *released.ReleasedBy)
	suite.Require().False(released.Active(time.Now().UTC()))

	// Act
	_, err = store.ReleaseHold(ctx, h.ID, admin, time.Now().UTC())

	// Assert
	suite.Require().ErrorIs(err, retention.ErrInvalidState)

	// Act
	_, err = store.ReleaseHold(ctx, uuid.New(), admin, time.Now().UTC())

	// Assert
	suite.Require().ErrorIs(err, retention.ErrNotFound)

	// Act
	holds, err := store.ListHolds(ctx, a.ID)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Len(holds, 1)
}

func (suite *DBTestSuite) TestAuditStore() {
	// Arrange
	ctx := context.Background()
	store := postgres.NewAuditStore(suite.db)
	a := suite.newAccount()
	now := time.Now().UTC().Truncate(time.Microsecond)
	first := retention.AuditEntry{
		AccountID:   a.ID,
		Action:      retention.ActionSuspend,
		OccurredAt:  now,
		BeforeState: retention.StateActive,
		AfterState:  retention.StateSuspended,
	}
	second := retention.AuditEntry{
		AccountID:   a.ID,
		Action:      retention.ActionUnsuspend,
		OccurredAt:  now.Add(time.Minute),
		BeforeState: retention.StateSuspended,
		AfterState:  retention.StateActive,
	}

	// Act
	suite.Require().Nil(store.AppendAudit(ctx, &second))
	suite.Require().Nil(store.AppendAudit(ctx, &first))
	entries, err := store.ListAudit(ctx, a.ID)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Len(entries, 2)
	suite.Require().Equal(retention.ActionSuspend, entries[0].Action)
	suite.Require().Equal(retention.ActionUnsuspend, entries[1].Action)
}

func (suite *DBTestSuite) TestReminderLedger() {
	// Arrange
	ctx := context.Background()
	ledger := postgres.NewReminderLedger(suite.db)
	id := uuid.New()
	at := time.Now().UTC().Truncate(time.Microsecond)

	// Act
	first, err := ledger.Claim(ctx, id, at, 7)
	suite.Require().Nil(err)
	second, err := ledger.Claim(ctx, id, at, 7)
	suite.Require().Nil(err)
	other, err := ledger.Claim(ctx, id, at.Add(retention.Day), 7)
	suite.Require().Nil(err)

	// Assert
	suite.Require().True(first)
	suite.Require().False(second)
	suite.Require().True(other)

	// Act
	suite.Require().Nil(ledger.Unclaim(ctx, id, at, 7))
	again, err := ledger.Claim(ctx, id, at, 7)

	// Assert
	suite.Require().Nil(err)
	suite.Require().True(again)
}

func (suite *DBTestSuite) TestReceiptStoreAndPurge() {
	// Arrange
	ctx := context.Background()
	a := suite.newAccount()
	suite.Require().Nil(suite.db.DB().Exec("CREATE TABLE IF NOT EXISTS listings (id serial PRIMARY KEY, account_id uuid NOT NULL)").Error)
	suite.Require().Nil(suite.db.Exec("INSERT INTO listings (account_id) VALUES (?), (?)", a.ID, a.ID))

	step, err := postgres.NewPurgeStep(suite.db, []string{"listings"})
	suite.Require().Nil(err)

	// Act
	removed, err := step.Erase(ctx, a.ID)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(2, removed)

	// Arrange
	receipts := postgres.NewReceiptStore(suite.db)
	r := retention.ErasureReceipt{
		AccountID: a.ID,
		Steps:     []retention.ErasureStep{{Name: step.Name(), Removed: removed}},
	}

	// Act
	err = receipts.SaveReceipt(ctx, &r)

	// Assert
	suite.Require().Nil(err)
	got, err := receipts.ListReceipts(ctx, a.ID)
	suite.Require().Nil(err)
	suite.Require().Len(got, 1)
	suite.Require().Equal(r.Steps, got[0].Steps)
}

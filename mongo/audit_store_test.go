package mongo

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/xy-planning-network/retention"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestAuditDocConversion(t *testing.T) {
	// Arrange
	admin := uuid.New()
	at := time.Date(2024, time.March, 1, 12, 0, 0, 123456789, time.UTC)
	for _, e := range []retention.AuditEntry{
		{
			ID:          4,
			AccountID:   uuid.New(),
			AdminID:     &admin,
			Action:      retention.ActionSuspend,
			Reason:      "fraud",
			OccurredAt:  at,
			BeforeState: retention.StateActive,
			AfterState:  retention.StateSuspended,
			RequestID:   "req-1",
		},
		{
			ID:          5,
			AccountID:   uuid.New(),
			Action:      retention.ActionScheduledDelete,
			OccurredAt:  at,
			BeforeState: retention.StatePendingDeletion,
			AfterState:  retention.StateDeleted,
		},
	} {
		// Act
		actual, err := toDoc(e).entry()

		// Assert
		require.Nil(t, err)
		require.True(t, actual.OccurredAt.Equal(at.Truncate(time.Millisecond)))
		actual.OccurredAt = e.OccurredAt
		require.Equal(t, e, actual)
	}
}

func TestAuditDocCorrupt(t *testing.T) {
	// Arrange
	bad := "not-a-uuid"

	// Act
	_, err := auditDoc{ID: 1, AccountID: "nope"}.entry()
	_, adminErr := auditDoc{ID: 2, AccountID: uuid.NewString(), AdminID: &bad}.entry()

	// Assert
	require.ErrorIs(t, err, retention.ErrUnexpected)
	require.ErrorIs(t, adminErr, retention.ErrUnexpected)
}

type MongoTestSuite struct {
	suite.Suite

	db    *mongo.Database
	store *AuditStore
}

func TestRunSuite(t *testing.T) {
	err := godotenv.Load("../.env")
	var pe *fs.PathError
	if err != nil && !errors.As(err, &pe) {
		t.Fatal(err)
	}

	if os.Getenv("MONGO_TEST_URI") == "" {
		t.Skip("no test mongo configured")
	}

	suite.Run(t, new(MongoTestSuite))
}

func (suite *MongoTestSuite) SetupSuite() {
	var err error
	suite.db, err = Connect(context.Background(), os.Getenv("MONGO_TEST_URI"), "retention_test")
	suite.Require().Nil(err)

	suite.store = NewAuditStore(suite.db)
	suite.Require().Nil(suite.store.EnsureIndexes(context.Background()))
}

func (suite *MongoTestSuite) TearDownTest() {
	suite.Require().Nil(suite.db.Drop(context.Background()))
	suite.Require().Nil(suite.store.EnsureIndexes(context.Background()))
}

func (suite *MongoTestSuite) TearDownSuite() {
	suite.Require().Nil(suite.db.Client().Disconnect(context.Background()))
}

func (suite *MongoTestSuite) TestPing() {
	suite.Require().Nil(Ping(context.Background(), suite.db))
}

func (suite *MongoTestSuite) TestAppendListAudit() {
	// Arrange
	ctx := context.Background()
	accountID := uuid.New()
	admin := uuid.New()
	at := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	entries := []retention.AuditEntry{
		{AccountID: accountID, AdminID: &admin, Action: retention.ActionSuspend, Reason: "fraud", OccurredAt: at, BeforeState: retention.StateActive, AfterState: retention.StateSuspended},
		{AccountID: accountID, AdminID: &admin, Action: retention.ActionMoveToDeletion, OccurredAt: at, BeforeState: retention.StateSuspended, AfterState: retention.StatePendingDeletion},
		{AccountID: uuid.New(), Action: retention.ActionSelfInitiateDeletion, OccurredAt: at, BeforeState: retention.StateActive, AfterState: retention.StatePendingDeletion},
		{AccountID: accountID, Action: retention.ActionScheduledDelete, OccurredAt: at.Add(-time.Hour), BeforeState: retention.StatePendingDeletion, AfterState: retention.StateDeleted},
	}

	// Act
	for i := range entries {
		suite.Require().Nil(suite.store.AppendAudit(ctx, &entries[i]))
	}
	actual, err := suite.store.ListAudit(ctx, accountID)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(uint(1), entries[0].ID)
	suite.Require().Equal(uint(4), entries[3].ID)
	suite.Require().Len(actual, 3)
	suite.Require().Equal(
		[]retention.Action{retention.ActionScheduledDelete, retention.ActionSuspend, retention.ActionMoveToDeletion},
		[]retention.Action{actual[0].Action, actual[1].Action, actual[2].Action},
	)
	suite.Require().Equal(admin, *actual[1].AdminID)
	suite.Require().Nil(actual[0].AdminID)
}

func (suite *MongoTestSuite) TestListAuditEmpty() {
	// Act
	actual, err := suite.store.ListAudit(context.Background(), uuid.New())

	// Assert
	suite.Require().Nil(err)
	suite.Require().Empty(actual)
}

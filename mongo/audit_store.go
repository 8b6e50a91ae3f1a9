package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	auditCollection   = "audit_log"
	counterCollection = "counters"
	auditCounter      = "audit_log"
)

var _ retention.AuditStore = (*AuditStore)(nil)

// An AuditStore appends AuditEntries to the audit_log collection.
//
// Entry IDs come from a counter document so they increase in insertion order,
// matching the ids the Postgres store assigns.
type AuditStore struct {
	entries  *mongo.Collection
	counters *mongo.Collection
}

// NewAuditStore constructs an *AuditStore.
func NewAuditStore(db *mongo.Database) *AuditStore {
	return &AuditStore{
		entries:  db.Collection(auditCollection),
		counters: db.Collection(counterCollection),
	}
}

// EnsureIndexes creates the index ListAudit reads through.
func (s *AuditStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.entries.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "account_id", Value: 1},
			{Key: "occurred_at", Value: 1},
			{Key: "_id", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: creating audit indexes: %s", retention.ErrDependency, err)
	}

	return nil
}

type auditDoc struct {
	ID          uint      `bson:"_id"`
	AccountID   string    `bson:"account_id"`
	AdminID     *string   `bson:"admin_id,omitempty"`
	Action      string    `bson:"action"`
	Reason      string    `bson:"reason,omitempty"`
	OccurredAt  time.Time `bson:"occurred_at"`
	BeforeState string    `bson:"before_state"`
	AfterState  string    `bson:"after_state"`
	RequestID   string    `bson:"request_id,omitempty"`
}

func toDoc(e retention.AuditEntry) auditDoc {
	d := auditDoc{
		ID:          e.ID,
		AccountID:   e.AccountID.String(),
		Action:      string(e.Action),
		Reason:      e.Reason,
		OccurredAt:  e.OccurredAt.UTC().Truncate(time.Millisecond),
		BeforeState: string(e.BeforeState),
		AfterState:  string(e.AfterState),
		RequestID:   e.RequestID,
	}

	if e.AdminID != nil {
		id := e.AdminID.String()
		d.AdminID = &id
	}

	return d
}

func (d auditDoc) entry() (retention.AuditEntry, error) {
	accountID, err := uuid.Parse(d.AccountID)
	if err != nil {
		return retention.AuditEntry{}, fmt.Errorf("%w: audit entry %d account_id: %s", retention.ErrUnexpected, d.ID, err)
	}

	e := retention.AuditEntry{
		ID:          d.ID,
		AccountID:   accountID,
		Action:      retention.Action(d.Action),
		Reason:      d.Reason,
		OccurredAt:  d.OccurredAt,
		BeforeState: retention.State(d.BeforeState),
		AfterState:  retention.State(d.AfterState),
		RequestID:   d.RequestID,
	}

	if d.AdminID != nil {
		id, err := uuid.Parse(*d.AdminID)
		if err != nil {
			return retention.AuditEntry{}, fmt.Errorf("%w: audit entry %d admin_id: %s", retention.ErrUnexpected, d.ID, err)
		}

		e.AdminID = &id
	}

	return e, nil
}

// nextID increments and returns the audit counter.
func (s *AuditStore) nextID(ctx context.Context) (uint, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}

	err := s.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": auditCounter},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("%w: incrementing audit counter: %s", retention.ErrDependency, err)
	}

	return uint(counter.Seq), nil
}

// AppendAudit assigns e its ID and inserts it.
func (s *AuditStore) AppendAudit(ctx context.Context, e *retention.AuditEntry) error {
	id, err := s.nextID(ctx)
	if err != nil {
		return err
	}

	e.ID = id
	if _, err := s.entries.InsertOne(ctx, toDoc(*e)); err != nil {
		return fmt.Errorf("%w: inserting audit entry: %s", retention.ErrDependency, err)
	}

	return nil
}

// ListAudit retrieves the account's entries in the order they occurred.
func (s *AuditStore) ListAudit(ctx context.Context, accountID uuid.UUID) ([]retention.AuditEntry, error) {
	cur, err := s.entries.Find(
		ctx,
		bson.M{"account_id": accountID.String()},
		options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: finding audit entries: %s", retention.ErrDependency, err)
	}
	defer cur.Close(ctx)

	var docs []auditDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decoding audit entries: %s", retention.ErrDependency, err)
	}

	entries := make([]retention.AuditEntry, 0, len(docs))
	for _, d := range docs {
		e, err := d.entry()
		if err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}

	return entries, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
)

var _ retention.ReceiptStore = (*ReceiptStore)(nil)

// A ReceiptStore keeps ErasureReceipts in the erasure_receipts table.
// Receipts outlive the account data they describe.
type ReceiptStore struct {
	db *DB
}

// NewReceiptStore constructs a *ReceiptStore.
func NewReceiptStore(db *DB) *ReceiptStore { return &ReceiptStore{db: db} }

func (s *ReceiptStore) SaveReceipt(ctx context.Context, r *retention.ErasureReceipt) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	if r.CompletedAt.IsZero() {
		r.CompletedAt = time.Now().UTC()
	}

	steps := r.Steps
	if steps == nil {
		steps = []retention.ErasureStep{}
	}

	b, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("%w: %s", retention.ErrNotValid, err)
	}

	return s.db.
		WithContext(ctx).
		Exec(
			"INSERT INTO erasure_receipts (id, account_id, steps, completed_at) VALUES (?, ?, ?::jsonb, ?)",
			r.ID, r.AccountID, string(b), r.CompletedAt,
		)
}

// ListReceipts retrieves the receipts recorded for the account, oldest first.
func (s *ReceiptStore) ListReceipts(ctx context.Context, accountID uuid.UUID) ([]retention.ErasureReceipt, error) {
	var rows []receiptRow
	err := s.db.
		WithContext(ctx).
		Table("erasure_receipts").
		Where("account_id = ?", accountID).
		Order("completed_at ASC").
		Find(&rows)
	if err != nil {
		return nil, err
	}

	receipts := make([]retention.ErasureReceipt, len(rows))
	for i, row := range rows {
		receipts[i] = retention.ErasureReceipt{ID: row.ID, AccountID: row.AccountID, CompletedAt: row.CompletedAt}
		if err := json.Unmarshal([]byte(row.Steps), &receipts[i].Steps); err != nil {
			return nil, fmt.Errorf("%w: receipt %s steps: %s", retention.ErrUnexpected, row.ID, err)
		}
	}

	return receipts, nil
}

type receiptRow struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	Steps       string
	CompletedAt time.Time
}

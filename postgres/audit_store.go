package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
)

var _ retention.AuditStore = (*AuditStore)(nil)

// An AuditStore appends AuditEntries to the audit_log table.
// Entries are never updated or deleted.
type AuditStore struct {
	db *DB
}

// NewAuditStore constructs an *AuditStore.
func NewAuditStore(db *DB) *AuditStore { return &AuditStore{db: db} }

func (s *AuditStore) AppendAudit(ctx context.Context, e *retention.AuditEntry) error {
	return s.db.WithContext(ctx).Create(e)
}

// ListAudit retrieves the account's entries in the order they occurred.
func (s *AuditStore) ListAudit(ctx context.Context, accountID uuid.UUID) ([]retention.AuditEntry, error) {
	var entries []retention.AuditEntry
	err := s.db.
		WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("occurred_at ASC, id ASC").
		Find(&entries)

	return entries, err
}

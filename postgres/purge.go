package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
)

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)?$`)

// A PurgeStep deletes an account's rows from marketplace tables
// keyed by an account_id column.
type PurgeStep struct {
	db     *DB
	tables []string
}

// NewPurgeStep constructs a *PurgeStep over tables.
// Every table must be a plain, optionally schema-qualified, identifier.
func NewPurgeStep(db *DB, tables []string) (*PurgeStep, error) {
	for _, t := range tables {
		if !tableName.MatchString(t) {
			return nil, fmt.Errorf("%w: purge table %q", retention.ErrBadConfig, t)
		}
	}

	return &PurgeStep{db: db, tables: tables}, nil
}

func (p *PurgeStep) Name() string { return "postgres" }

// Erase deletes every row belonging to accountID in one transaction,
// returning how many rows were removed.
func (p *PurgeStep) Erase(ctx context.Context, accountID uuid.UUID) (int, error) {
	var removed int64
	err := p.db.WithContext(ctx).Transaction(func(tx *DB) error {
		for _, t := range p.tables {
			n, err := tx.ExecAffected(fmt.Sprintf("DELETE FROM %s WHERE account_id = ?", t), accountID)
			if errors.Is(err, retention.ErrNotFound) {
				continue
			}

			if err != nil {
				return fmt.Errorf("purging %s: %w", t, err)
			}

			removed += n
		}

		return nil
	})

	return int(removed), err
}

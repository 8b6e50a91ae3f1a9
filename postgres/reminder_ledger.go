package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
)

var _ retention.ReminderLedger = (*ReminderLedger)(nil)

// A ReminderLedger records which reminder milestones were sent
// for which deletion schedule in the reminder_milestones table.
type ReminderLedger struct {
	db *DB
}

// NewReminderLedger constructs a *ReminderLedger.
func NewReminderLedger(db *DB) *ReminderLedger { return &ReminderLedger{db: db} }

const claimMilestone = `INSERT INTO reminder_milestones (account_id, scheduled_for, milestone, sent_at)
VALUES (?, ?, ?, ?)
ON CONFLICT DO NOTHING`

// Claim records the milestone, reporting false if another run already did.
func (l *ReminderLedger) Claim(ctx context.Context, accountID uuid.UUID, scheduledFor time.Time, m retention.Milestone) (bool, error) {
	_, err := l.db.
		WithContext(ctx).
		ExecAffected(claimMilestone, accountID, scheduledFor.UTC(), int(m), time.Now().UTC())
	if errors.Is(err, retention.ErrNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// Unclaim forgets the milestone so a later run retries it.
func (l *ReminderLedger) Unclaim(ctx context.Context, accountID uuid.UUID, scheduledFor time.Time, m retention.Milestone) error {
	err := l.db.
		WithContext(ctx).
		Exec(
			"DELETE FROM reminder_milestones WHERE account_id = ? AND scheduled_for = ? AND milestone = ?",
			accountID, scheduledFor.UTC(), int(m),
		)
	if errors.Is(err, retention.ErrNotFound) {
		return nil
	}

	return err
}

package retention

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// A NotificationKind is the type of message sent to an account owner.
type NotificationKind string

const (
	NotificationDeletionConfirmation NotificationKind = "deletion_confirmation"
	NotificationDeletionReminder     NotificationKind = "deletion_reminder"
)

// String stringifies the NotificationKind.
func (k NotificationKind) String() string { return string(k) }

// Valid asserts the NotificationKind is a known value.
//
// Valid implements Enumerable.
func (k NotificationKind) Valid() error {
	switch k {
	case NotificationDeletionConfirmation, NotificationDeletionReminder:
		return nil
	default:
		return fmt.Errorf("%w: NotificationKind %q", ErrNotValid, string(k))
	}
}

// A Notification asks the mail collaborator to message an account owner.
type Notification struct {
	Kind          NotificationKind `json:"kind"`
	AccountID     uuid.UUID        `json:"accountId"`
	ScheduledFor  time.Time        `json:"scheduledFor"`
	DaysRemaining int              `json:"daysRemaining"`
	CancelLink    string           `json:"cancelLink"`
}

// A Milestone is a number of days before deletion at which a reminder goes out.
type Milestone int

// Milestones are the reminder points, in the order they are reached.
var Milestones = []Milestone{7, 3, 1}

// Valid asserts the Milestone is one of Milestones.
//
// Valid implements Enumerable.
func (m Milestone) Valid() error {
	for _, known := range Milestones {
		if m == known {
			return nil
		}
	}

	return fmt.Errorf("%w: Milestone %d", ErrNotValid, int(m))
}

// String stringifies the Milestone, e.g. "7-day".
func (m Milestone) String() string { return fmt.Sprintf("%d-day", int(m)) }

// MilestoneFor returns the Milestone matching daysRemaining exactly.
func MilestoneFor(daysRemaining int) (Milestone, bool) {
	m := Milestone(daysRemaining)
	return m, m.Valid() == nil
}

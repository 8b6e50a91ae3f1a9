package retention

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// An Action names a state-changing event recorded in the audit log.
type Action string

const (
	ActionSuspend              Action = "suspend"
	ActionMoveToDeletion       Action = "move_to_deletion"
	ActionUnsuspend            Action = "unsuspend"
	ActionSelfInitiateDeletion Action = "self_initiate_deletion"
	ActionSelfCancelDeletion   Action = "self_cancel_deletion"
	ActionPermanentlyDelete    Action = "permanently_delete"
	ActionScheduledDelete      Action = "scheduled_delete"
	ActionSkipHoldActive       Action = "skip_hold_active"
	ActionHoldCreated          Action = "hold_created"
	ActionHoldReleased         Action = "hold_released"
)

// String stringifies the Action.
//
// String implements fmt.Stringer.
func (a Action) String() string { return string(a) }

// Valid asserts the Action is a known value.
//
// Valid implements Enumerable.
func (a Action) Valid() error {
	switch a {
	case ActionSuspend,
		ActionMoveToDeletion,
		ActionUnsuspend,
		ActionSelfInitiateDeletion,
		ActionSelfCancelDeletion,
		ActionPermanentlyDelete,
		ActionScheduledDelete,
		ActionSkipHoldActive,
		ActionHoldCreated,
		ActionHoldReleased:
		return nil
	default:
		return fmt.Errorf("%w: Action %q", ErrNotValid, string(a))
	}
}

// An AuditEntry records one state-changing action against an Account.
// AuditEntries are append-only.
//
// AdminID is nil for self-service and scheduled actions.
type AuditEntry struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	AccountID   uuid.UUID  `json:"accountId" gorm:"type:uuid"`
	AdminID     *uuid.UUID `json:"adminId,omitempty" gorm:"type:uuid"`
	Action      Action     `json:"action"`
	Reason      string     `json:"reason,omitempty"`
	OccurredAt  time.Time  `json:"occurredAt"`
	BeforeState State      `json:"beforeState"`
	AfterState  State      `json:"afterState"`
	RequestID   string     `json:"requestId,omitempty"`
}

// TableName sets the table AuditEntry is stored in.
func (AuditEntry) TableName() string { return "audit_log" }

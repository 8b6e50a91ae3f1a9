package lifecycle

import (
	"fmt"

	"github.com/xy-planning-network/retention"
)

// A Command names one transition of an account's lifecycle.
type Command string

const (
	CommandSuspend              Command = "suspend"
	CommandMoveToDeletion       Command = "move_to_deletion"
	CommandUnsuspend            Command = "unsuspend"
	CommandSelfInitiateDeletion Command = "self_initiate_deletion"
	CommandSelfCancelDeletion   Command = "self_cancel_deletion"
	CommandPermanentlyDelete    Command = "permanently_delete"
	CommandScheduledDelete      Command = "scheduled_delete"
)

// A Transition moves an account from any state in From to To,
// recording Action in the audit log.
type Transition struct {
	From   []retention.State
	To     retention.State
	Action retention.Action

	// Guard describes the violation when the account is not in a From state.
	Guard string

	// Violation is the error a guard violation wraps; ErrInvalidState when nil.
	Violation error
}

// allows reports whether s is one of t's source states.
func (t Transition) allows(s retention.State) bool {
	for _, from := range t.From {
		if from == s {
			return true
		}
	}

	return false
}

// transitions is the lifecycle state machine.
// Handler checks the current state against From before acting
// and passes that same state to CompareAndSet as the expected state.
var transitions = map[Command]Transition{
	CommandSuspend: {
		From:   []retention.State{retention.StateActive, retention.StatePendingDeletion},
		To:     retention.StateSuspended,
		Action: retention.ActionSuspend,
		Guard:  "cannot suspend: account is not active or pending deletion",
	},
	CommandMoveToDeletion: {
		From:      []retention.State{retention.StateSuspended},
		To:        retention.StatePendingDeletion,
		Action:    retention.ActionMoveToDeletion,
		Guard:     "cannot move to deletion: account is not currently suspended",
		Violation: retention.ErrNotSuspended,
	},
	CommandUnsuspend: {
		From:   []retention.State{retention.StateSuspended, retention.StatePendingDeletion},
		To:     retention.StateActive,
		Action: retention.ActionUnsuspend,
		Guard:  "cannot unsuspend: account is not suspended or pending deletion",
	},
	CommandSelfInitiateDeletion: {
		From:   []retention.State{retention.StateActive},
		To:     retention.StatePendingDeletion,
		Action: retention.ActionSelfInitiateDeletion,
		Guard:  "cannot delete account: account is not active",
	},
	CommandSelfCancelDeletion: {
		From:   []retention.State{retention.StatePendingDeletion},
		To:     retention.StateActive,
		Action: retention.ActionSelfCancelDeletion,
		Guard:  "cannot cancel deletion: account is not pending deletion",
	},
	CommandPermanentlyDelete: {
		From:   []retention.State{retention.StateActive, retention.StateSuspended, retention.StatePendingDeletion},
		To:     retention.StateDeleted,
		Action: retention.ActionPermanentlyDelete,
		Guard:  "cannot permanently delete: account is already deleted",
	},
	CommandScheduledDelete: {
		From:   []retention.State{retention.StatePendingDeletion},
		To:     retention.StateDeleted,
		Action: retention.ActionScheduledDelete,
		Guard:  "cannot execute scheduled deletion: account is no longer pending deletion",
	},
}

// guard returns the Transition for cmd or an ErrInvalidState naming the violated guard.
func guard(cmd Command, current retention.State) (Transition, error) {
	t, ok := transitions[cmd]
	if !ok {
		return Transition{}, fmt.Errorf("%w: unknown command %q", retention.ErrUnexpected, cmd)
	}

	if !t.allows(current) {
		violation := t.Violation
		if violation == nil {
			violation = retention.ErrInvalidState
		}

		return t, fmt.Errorf("%w: %s", violation, t.Guard)
	}

	return t, nil
}

package lifecycle

import (
	"context"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
)

// A QueueItem is one pending deletion as the admin retention dashboard shows it.
type QueueItem struct {
	Account       retention.Account   `json:"account"`
	DaysRemaining int                 `json:"daysRemaining"`
	Initiator     retention.Initiator `json:"deletionInitiator"`
	HoldActive    bool                `json:"holdActive"`
}

// RetentionQueue lists every account pending deletion, earliest scheduled first.
func (h *Handler) RetentionQueue(ctx context.Context, caller retention.Caller) ([]QueueItem, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	pending, err := h.accounts.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	now := h.clock.Now()
	items := make([]QueueItem, 0, len(pending))
	for _, a := range pending {
		held, err := h.holds.HasActiveHold(ctx, a.ID)
		if err != nil {
			return nil, err
		}

		item := QueueItem{Account: a, DaysRemaining: a.DaysRemaining(now), HoldActive: held}
		if a.DeletionInitiator != nil {
			item.Initiator = *a.DeletionInitiator
		}

		items = append(items, item)
	}

	return items, nil
}

// AuditLog lists the account's audit entries in the order they occurred.
func (h *Handler) AuditLog(ctx context.Context, caller retention.Caller, accountID uuid.UUID) ([]retention.AuditEntry, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	return h.sink.Query(ctx, accountID)
}

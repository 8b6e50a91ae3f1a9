package retention

import (
	"time"

	"github.com/google/uuid"
)

// An ErasureReceipt confirms personal data removal completed for an Account.
// An Account is only marked deleted once its ErasureReceipt is recorded.
type ErasureReceipt struct {
	ID          uuid.UUID     `json:"id"`
	AccountID   uuid.UUID     `json:"accountId"`
	Steps       []ErasureStep `json:"steps"`
	CompletedAt time.Time     `json:"completedAt"`
}

// An ErasureStep reports what one erasure step removed.
type ErasureStep struct {
	Name    string `json:"name"`
	Removed int    `json:"removed"`
}

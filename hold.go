package retention

import (
	"time"

	"github.com/google/uuid"
)

// A LegalHold blocks an Account's deletion regardless of its schedule.
//
// An Account may have many LegalHolds; any one of them being active blocks deletion.
type LegalHold struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	AccountID  uuid.UUID  `json:"accountId" gorm:"type:uuid"`
	Reason     string     `json:"reason"`
	CreatedBy  uuid.UUID  `json:"createdBy" gorm:"type:uuid"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	ReleasedAt *time.Time `json:"releasedAt,omitempty"`
	ReleasedBy *uuid.UUID `json:"releasedBy,omitempty" gorm:"type:uuid"`
}

// Active asserts whether the LegalHold still blocks deletion at now.
// An expired hold is inactive even if nobody released it.
func (h LegalHold) Active(now time.Time) bool {
	if h.ReleasedAt != nil {
		return false
	}

	return h.ExpiresAt == nil || h.ExpiresAt.After(now)
}

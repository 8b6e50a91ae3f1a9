package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
)

var _ retention.HoldStore = (*HoldStore)(nil)

// A HoldStore persists LegalHolds in the legal_holds table.
type HoldStore struct {
	db *DB
}

// NewHoldStore constructs a *HoldStore.
func NewHoldStore(db *DB) *HoldStore { return &HoldStore{db: db} }

func (s *HoldStore) CreateHold(ctx context.Context, h *retention.LegalHold) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}

	return s.db.WithContext(ctx).Create(h)
}

func (s *HoldStore) GetHold(ctx context.Context, id uuid.UUID) (retention.LegalHold, error) {
	var h retention.LegalHold
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&h)
	if errors.Is(err, retention.ErrNotFound) {
		return retention.LegalHold{}, fmt.Errorf("%w: legal hold %s", retention.ErrNotFound, id)
	}

	return h, err
}

// ListHolds retrieves every hold on the account, released ones included, oldest first.
func (s *HoldStore) ListHolds(ctx context.Context, accountID uuid.UUID) ([]retention.LegalHold, error) {
	var holds []retention.LegalHold
	err := s.db.
		WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC, id ASC").
		Find(&holds)

	return holds, err
}

// ReleaseHold stamps the hold released.
// Releasing an already released hold returns ErrInvalidState.
func (s *HoldStore) ReleaseHold(ctx context.Context, id, by uuid.UUID, at time.Time) (retention.LegalHold, error) {
	err := s.db.
		WithContext(ctx).
		Model(new(retention.LegalHold)).
		Where("id = ?", id).
		Where("released_at IS NULL").
		Update(Updates{"released_at": at, "released_by": by})
	if errors.Is(err, retention.ErrNotFound) {
		if _, gerr := s.GetHold(ctx, id); gerr != nil {
			return retention.LegalHold{}, gerr
		}

		return retention.LegalHold{}, fmt.Errorf("%w: legal hold %s already released", retention.ErrInvalidState, id)
	}

	if err != nil {
		return retention.LegalHold{}, err
	}

	return s.GetHold(ctx, id)
}

package erasure

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/logger"
)

// AccountPrefix is the object key prefix under which an account's uploads live.
func AccountPrefix(accountID uuid.UUID) string { return "accounts/" + accountID.String() + "/" }

// A Step removes the account's data from one system,
// returning how many records or objects it removed.
type Step interface {
	Name() string
	Erase(ctx context.Context, accountID uuid.UUID) (int, error)
}

// A Pipeline is a retention.Eraser running Steps in order.
type Pipeline struct {
	l     logger.Logger
	steps []Step
}

// New constructs a *Pipeline.
func New(l logger.Logger, steps ...Step) *Pipeline {
	if l == nil {
		l = logger.New(logger.WithKind(retention.WorkerLogKind))
	}

	return &Pipeline{l: l, steps: steps}
}

// Erase runs every Step, stopping at the first failure.
func (p *Pipeline) Erase(ctx context.Context, accountID uuid.UUID) (retention.ErasureReceipt, error) {
	receipt := retention.ErasureReceipt{
		ID:        uuid.New(),
		AccountID: accountID,
		Steps:     make([]retention.ErasureStep, 0, len(p.steps)),
	}

	for _, s := range p.steps {
		n, err := s.Erase(ctx, accountID)
		if err != nil {
			return retention.ErasureReceipt{}, fmt.Errorf("erasure step %s: %w", s.Name(), err)
		}

		p.l.Debug("erasure step done", &logger.LogContext{
			Data: map[string]any{
				"accountId": accountID.String(),
				"step":      s.Name(),
				"removed":   n,
			},
		})

		receipt.Steps = append(receipt.Steps, retention.ErasureStep{Name: s.Name(), Removed: n})
	}

	return receipt, nil
}

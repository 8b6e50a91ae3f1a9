package erasure_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/erasure"
	"github.com/xy-planning-network/retention/logger"
)

type fakeStep struct {
	name    string
	removed int
	err     error
	calls   *[]string
}

func (s fakeStep) Name() string { return s.name }

func (s fakeStep) Erase(context.Context, uuid.UUID) (int, error) {
	*s.calls = append(*s.calls, s.name)
	return s.removed, s.err
}

func TestPipelineErase(t *testing.T) {
	// Arrange
	var calls []string
	l := logger.New(logger.WithLogger(log.New(new(bytes.Buffer), "", 0)))
	id := uuid.New()
	p := erasure.New(l,
		fakeStep{name: "postgres", removed: 12, calls: &calls},
		fakeStep{name: "marketplace", removed: 0, calls: &calls},
		fakeStep{name: "gcs", removed: 3, calls: &calls},
	)

	// Act
	receipt, err := p.Erase(context.Background(), id)

	// Assert
	require.Nil(t, err)
	require.NotEqual(t, uuid.Nil, receipt.ID)
	require.Equal(t, id, receipt.AccountID)
	require.Equal(t, []retention.ErasureStep{
		{Name: "postgres", Removed: 12},
		{Name: "marketplace", Removed: 0},
		{Name: "gcs", Removed: 3},
	}, receipt.Steps)
	require.Equal(t, []string{"postgres", "marketplace", "gcs"}, calls)
}

func TestPipelineEraseStopsAtFailure(t *testing.T) {
	// Arrange
	var calls []string
	boom := errors.New("boom")
	p := erasure.New(nil,
		fakeStep{name: "postgres", removed: 1, calls: &calls},
		fakeStep{name: "marketplace", err: boom, calls: &calls},
		fakeStep{name: "gcs", calls: &calls},
	)

	// Act
	receipt, err := p.Erase(context.Background(), uuid.New())

	// Assert
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "marketplace")
	require.Empty(t, receipt.Steps)
	require.Equal(t, []string{"postgres", "marketplace"}, calls)
}

func TestAccountPrefix(t *testing.T) {
	// Arrange
	id := uuid.MustParse("5f0c7a4e-8a8e-4c1c-9d55-6f6b1b0f3e21")

	// Act
	actual := erasure.AccountPrefix(id)

	// Assert
	require.Equal(t, "accounts/5f0c7a4e-8a8e-4c1c-9d55-6f6b1b0f3e21/", actual)
}

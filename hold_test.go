package retention_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/retention"
)

func TestLegalHoldActive(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	require.True(t, retention.LegalHold{}.Active(now))
	require.True(t, retention.LegalHold{ExpiresAt: &future}.Active(now))
	require.False(t, retention.LegalHold{ExpiresAt: &past}.Active(now))
	require.False(t, retention.LegalHold{ExpiresAt: &now}.Active(now))
	require.False(t, retention.LegalHold{ReleasedAt: &past}.Active(now))
	require.False(t, retention.LegalHold{ReleasedAt: &past, ExpiresAt: &future}.Active(now))
}

func TestMilestoneFor(t *testing.T) {
	for _, days := range []int{7, 3, 1} {
		m, ok := retention.MilestoneFor(days)
		require.True(t, ok)
		require.Equal(t, days, int(m))
	}

	for _, days := range []int{-1, 0, 2, 4, 6, 8, 90} {
		_, ok := retention.MilestoneFor(days)
		require.False(t, ok)
	}

	require.Equal(t, "7-day", retention.Milestone(7).String())
}

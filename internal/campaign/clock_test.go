package campaign

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

func TestCampaignClockFundingBoundary(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	source := lib.NewManualClock(start)
	clock := newCampaignClock(start.Add(time.Hour), source)

	require.True(t, clock.FundingOpen())

	source.Set(start.Add(time.Hour - time.Nanosecond))
	require.True(t, clock.FundingOpen())

	source.Set(start.Add(time.Hour))
	require.False(t, clock.FundingOpen(), "deadline itself is closed")
	require.True(t, clock.DeadlinePassed())
}

func TestCampaignClockVoteBoundary(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	source := lib.NewManualClock(start)
	clock := newCampaignClock(start, source)
	votingDeadline := start.Add(time.Minute)

	require.True(t, clock.VoteWindowOpen(votingDeadline))
	require.False(t, clock.VoteWindowClosed(votingDeadline))

	source.Set(votingDeadline)
	require.True(t, clock.VoteWindowOpen(votingDeadline), "votes are accepted at the deadline")
	require.False(t, clock.VoteWindowClosed(votingDeadline))

	source.Advance(time.Nanosecond)
	require.False(t, clock.VoteWindowOpen(votingDeadline))
	require.True(t, clock.VoteWindowClosed(votingDeadline))
}

package campaign

import (
	"time"

	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

// campaignClock derives temporal phases from the time source and stored deadlines.
// Nothing here fires on its own, every boundary is crossed by an explicit call
type campaignClock struct {
	deadline time.Time
	source   lib.Clock
}

func newCampaignClock(deadline time.Time, source lib.Clock) campaignClock {
	return campaignClock{deadline: deadline, source: source}
}

func (c campaignClock) Now() time.Time {
	return c.source.Now()
}

// FundingOpen is true strictly before the deadline
func (c campaignClock) FundingOpen() bool {
	return c.source.Now().Before(c.deadline)
}

// DeadlinePassed is true at and after the deadline
func (c campaignClock) DeadlinePassed() bool {
	return !c.FundingOpen()
}

// VoteWindowOpen is true up to and including the voting deadline
func (c campaignClock) VoteWindowOpen(votingDeadline time.Time) bool {
	return !c.source.Now().After(votingDeadline)
}

// VoteWindowClosed is true strictly after the voting deadline
func (c campaignClock) VoteWindowClosed(votingDeadline time.Time) bool {
	return c.source.Now().After(votingDeadline)
}

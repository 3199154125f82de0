package httphandlers

import (
	"math/big"
	"time"

	"gitlab.com/TitanInd/milestone-escrow/internal/campaign"
)

func (h *HTTPHandler) mapCampaign(c *campaign.Campaign, withMilestones bool) Campaign {
	info := c.Info()
	res := Campaign{
		Resource: Resource{
			Self: h.publicUrl.JoinPath("campaigns", info.ID).String(),
		},
		ID:                 info.ID,
		Title:              info.Title,
		Owner:              info.Owner.Hex(),
		Goal:               info.Goal.String(),
		TotalRaised:        info.TotalRaised.String(),
		CustodyBalance:     info.CustodyBalance.String(),
		Phase:              info.Phase.String(),
		Finalized:          info.Finalized,
		CreatedAt:          formatTime(info.CreatedAt),
		Deadline:           formatTime(info.Deadline),
		Contributors:       info.Contributors,
		MilestoneCount:     info.MilestoneCount,
		MilestonesReleased: info.MilestonesReleased,
	}
	if withMilestones {
		res.Milestones = mapMilestones(c.Milestones())
	}
	return res
}

func mapMilestones(items []campaign.Milestone) []Milestone {
	res := make([]Milestone, len(items))
	for i, m := range items {
		res[i] = mapMilestone(m)
	}
	return res
}

func mapMilestone(m campaign.Milestone) Milestone {
	res := Milestone{
		Index:       m.Index,
		Title:       m.Title,
		Amount:      m.Amount.String(),
		Released:    m.Released,
		VotingPhase: m.VotingPhase.String(),
		YesWeight:   m.YesWeight.String(),
		NoWeight:    m.NoWeight.String(),
		Voters:      m.Voters,
		Round:       m.Round,
	}
	if !m.VotingDeadline.IsZero() {
		deadline := formatTime(m.VotingDeadline)
		res.VotingDeadline = &deadline
	}
	return res
}

func mapNotification(n campaign.Notification) Notification {
	res := Notification{
		ID:         n.ID,
		CampaignID: n.CampaignID,
		Kind:       string(n.Kind),
		Actor:      n.Actor.Hex(),
		Support:    n.Support,
		Outcome:    n.Outcome,
		Timestamp:  formatTime(n.Timestamp),
	}
	if n.Amount != nil {
		res.Amount = amountString(n.Amount)
	}
	if n.MilestoneIndex != campaign.NoMilestone {
		index := n.MilestoneIndex
		res.MilestoneIndex = &index
	}
	return res
}

func amountString(amount *big.Int) *string {
	s := amount.String()
	return &s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

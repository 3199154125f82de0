package campaignmanager

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/TitanInd/milestone-escrow/internal/campaign"
	"gitlab.com/TitanInd/milestone-escrow/internal/custody"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
	"gitlab.com/TitanInd/milestone-escrow/internal/repositories/journal"
)

func newTestManager(maxMilestones int) (*CampaignManager, *lib.ManualClock) {
	log := lib.NewTestLogger()
	clock := lib.NewManualClock(time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC))
	factory := NewCampaignFactory(campaign.Config{}, custody.NewVault(log), clock, log)
	return NewCampaignManager(maxMilestones, factory, journal.NewMemory(64), log), clock
}

func testParams() campaign.Params {
	return campaign.Params{
		Title:            "Community garden",
		Owner:            lib.GetRandomAddr(),
		Goal:             big.NewInt(10),
		Duration:         time.Hour,
		MilestoneTitles:  []string{"soil", "seeds"},
		MilestoneAmounts: []*big.Int{big.NewInt(4), big.NewInt(6)},
	}
}

func TestCreateAndGetCampaign(t *testing.T) {
	cm, _ := newTestManager(10)

	cmp, err := cm.CreateCampaign(testParams())
	require.NoError(t, err)

	found, err := cm.GetCampaign(cmp.ID())
	require.NoError(t, err)
	require.Same(t, cmp, found)

	found, err = cm.GetCampaign(strings.ToLower(cmp.ID()))
	require.NoError(t, err, "lookup is case insensitive")
	require.Same(t, cmp, found)

	_, err = cm.GetCampaign(lib.GetRandomAddr().Hex())
	require.ErrorIs(t, err, ErrCampaignNotFound)
	_, err = cm.GetCampaign("not-an-address")
	require.ErrorIs(t, err, ErrCampaignNotFound)

	_, err = cm.CreateCampaign(testParams())
	require.NoError(t, err)
	require.Len(t, cm.GetCampaigns(), 2)
}

func TestCreateCampaignInvalid(t *testing.T) {
	cm, _ := newTestManager(1)

	_, err := cm.CreateCampaign(testParams())
	require.ErrorIs(t, err, ErrTooManyMilestones)
	require.ErrorIs(t, err, campaign.ErrInvalidParams)

	p := testParams()
	p.MilestoneTitles, p.MilestoneAmounts = p.MilestoneTitles[:1], []*big.Int{big.NewInt(11)}
	_, err = cm.CreateCampaign(p)
	require.ErrorIs(t, err, campaign.ErrInvalidParams)

	require.Empty(t, cm.GetCampaigns())
}

func TestEventsAreJournaled(t *testing.T) {
	cm, clock := newTestManager(10)
	ctx := context.Background()
	alice := lib.GetRandomAddr()

	cmp, err := cm.CreateCampaign(testParams())
	require.NoError(t, err)
	other, err := cm.CreateCampaign(testParams())
	require.NoError(t, err)

	require.NoError(t, cmp.Pledge(ctx, alice, big.NewInt(10)))
	require.NoError(t, other.Pledge(ctx, alice, big.NewInt(1)))
	clock.Advance(time.Hour)
	require.NoError(t, cmp.Finalize(ctx))

	events, err := cm.GetEvents(ctx, cmp.ID(), 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, campaign.KindPledgeMade, events[0].Kind)
	require.Equal(t, alice, events[0].Actor)
	require.Equal(t, campaign.KindCampaignSucceeded, events[1].Kind)

	events, err = cm.GetEvents(ctx, cmp.ID(), 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, campaign.KindCampaignSucceeded, events[0].Kind)

	_, err = cm.GetEvents(ctx, lib.GetRandomAddr().Hex(), 0)
	require.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestRunClosesJournal(t *testing.T) {
	cm, _ := newTestManager(10)
	cmp, err := cm.CreateCampaign(testParams())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cm.Run(ctx) }()
	cancel()
	require.NoError(t, <-done)

	_, err = cm.GetEvents(context.Background(), cmp.ID(), 0)
	require.ErrorIs(t, err, journal.ErrClosed)
}

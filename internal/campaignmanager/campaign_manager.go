package campaignmanager

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/TitanInd/milestone-escrow/internal/campaign"
	"gitlab.com/TitanInd/milestone-escrow/internal/interfaces"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
	"gitlab.com/TitanInd/milestone-escrow/internal/repositories/journal"
)

var (
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrTooManyMilestones = errors.New("too many milestones")
)

type CampaignManager struct {
	maxMilestones int

	campaigns *lib.Collection[*campaign.Campaign]

	campaignFactory CampaignFactory
	journal         journal.Journal
	log             interfaces.ILogger
}

func NewCampaignManager(maxMilestones int, campaignFactory CampaignFactory, journal journal.Journal, log interfaces.ILogger) *CampaignManager {
	return &CampaignManager{
		maxMilestones:   maxMilestones,
		campaigns:       lib.NewCollection[*campaign.Campaign](),
		campaignFactory: campaignFactory,
		journal:         journal,
		log:             log,
	}
}

// Run keeps the manager alive until ctx is done, then closes the journal
func (cm *CampaignManager) Run(ctx context.Context) error {
	cm.log.Infof("campaign manager started")
	<-ctx.Done()

	cm.log.Infof("campaign manager stopping, %d campaigns hosted", cm.campaigns.Len())
	if err := cm.journal.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return nil
}

func (cm *CampaignManager) CreateCampaign(params campaign.Params) (*campaign.Campaign, error) {
	if cm.maxMilestones > 0 && len(params.MilestoneTitles) > cm.maxMilestones {
		return nil, lib.WrapError(campaign.ErrInvalidParams, lib.WrapError(ErrTooManyMilestones, fmt.Errorf("got %d, max %d", len(params.MilestoneTitles), cm.maxMilestones)))
	}

	cmp, err := cm.campaignFactory(params)
	if err != nil {
		return nil, err
	}
	cmp.AddListener(cm.record)

	if _, loaded := cm.campaigns.LoadOrStore(cmp); loaded {
		return nil, fmt.Errorf("campaign %s already exists", cmp.ID())
	}

	cm.log.Infof("campaign %s created: %s, goal %s, %d milestones, owner %s",
		cmp.ID(), params.Title, params.Goal, len(params.MilestoneTitles), params.Owner.Hex())
	return cmp, nil
}

// GetCampaign looks the campaign up by its address in any hex casing
func (cm *CampaignManager) GetCampaign(ID string) (*campaign.Campaign, error) {
	if !common.IsHexAddress(ID) {
		return nil, lib.WrapError(ErrCampaignNotFound, fmt.Errorf("invalid campaign id %s", ID))
	}
	cmp, ok := cm.campaigns.Load(common.HexToAddress(ID).Hex())
	if !ok {
		return nil, ErrCampaignNotFound
	}
	return cmp, nil
}

func (cm *CampaignManager) GetCampaigns() []*campaign.Campaign {
	res := make([]*campaign.Campaign, 0, cm.campaigns.Len())
	cm.campaigns.Range(func(item *campaign.Campaign) bool {
		res = append(res, item)
		return true
	})
	return res
}

func (cm *CampaignManager) GetEvents(ctx context.Context, ID string, limit int) ([]campaign.Notification, error) {
	cmp, err := cm.GetCampaign(ID)
	if err != nil {
		return nil, err
	}
	return cm.journal.List(ctx, cmp.ID(), limit)
}

func (cm *CampaignManager) record(n campaign.Notification) {
	if err := cm.journal.Append(context.Background(), n); err != nil {
		cm.log.Errorf("failed to journal %s of campaign %s: %s", n.Kind, n.CampaignID, err)
	}
}

package campaignmanager

import (
	"gitlab.com/TitanInd/milestone-escrow/internal/campaign"
	"gitlab.com/TitanInd/milestone-escrow/internal/interfaces"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

type CampaignFactory func(params campaign.Params) (*campaign.Campaign, error)

// NewCampaignFactory creates campaigns sharing one custody backend. Every campaign is keyed
// by a fresh random address and gets its own named logger
func NewCampaignFactory(cfg campaign.Config, transferer campaign.Transferer, clock lib.Clock, log interfaces.ILogger) CampaignFactory {
	return func(params campaign.Params) (*campaign.Campaign, error) {
		addr := lib.GetRandomAddr()
		return campaign.NewCampaign(addr, params, cfg, transferer, clock, log.Named(lib.AddrShort(addr.Hex())))
	}
}

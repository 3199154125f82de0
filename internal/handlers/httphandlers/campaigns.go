package httphandlers

import (
	"errors"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"gitlab.com/TitanInd/milestone-escrow/internal/campaign"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
	"golang.org/x/exp/slices"
)

const defaultEventsLimit = 100

func (h *HTTPHandler) GetCampaigns(ctx *gin.Context) {
	data := []Campaign{}
	for _, item := range h.campaignManager.GetCampaigns() {
		data = append(data, h.mapCampaign(item, false))
	}

	slices.SortStableFunc(data, func(a Campaign, b Campaign) bool {
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})

	ctx.JSON(200, data)
}

func (h *HTTPHandler) GetCampaign(ctx *gin.Context) {
	c, err := h.campaignManager.GetCampaign(ctx.Param("ID"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(200, h.mapCampaign(c, true))
}

func (h *HTTPHandler) CreateCampaign(ctx *gin.Context) {
	owner, ok := h.caller(ctx)
	if !ok {
		return
	}

	var req CreateCampaignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, lib.WrapError(ErrInvalidRequest, err))
		return
	}

	goal, err := parseAmount(req.Goal)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	params := campaign.Params{
		Title:            req.Title,
		Owner:            owner,
		Goal:             goal,
		Duration:         time.Duration(req.DurationSeconds) * time.Second,
		MilestoneTitles:  make([]string, len(req.Milestones)),
		MilestoneAmounts: make([]*big.Int, len(req.Milestones)),
	}
	for i, m := range req.Milestones {
		amount, err := parseAmount(m.Amount)
		if err != nil {
			h.writeError(ctx, err)
			return
		}
		params.MilestoneTitles[i] = m.Title
		params.MilestoneAmounts[i] = amount
	}

	c, err := h.campaignManager.CreateCampaign(params)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(201, h.mapCampaign(c, true))
}

func (h *HTTPHandler) Pledge(ctx *gin.Context) {
	h.pledgeOperation(ctx, func(c *campaign.Campaign, caller common.Address, amount *big.Int) error {
		return c.Pledge(ctx.Request.Context(), caller, amount)
	})
}

// Receive accepts value sent to the campaign address itself
func (h *HTTPHandler) Receive(ctx *gin.Context) {
	h.pledgeOperation(ctx, func(c *campaign.Campaign, caller common.Address, amount *big.Int) error {
		return c.Receive(ctx.Request.Context(), caller, amount)
	})
}

func (h *HTTPHandler) Withdraw(ctx *gin.Context) {
	h.amountOperation(ctx, func(c *campaign.Campaign, caller common.Address, amount *big.Int) error {
		return c.Withdraw(ctx.Request.Context(), caller, amount)
	})
}

func (h *HTTPHandler) Finalize(ctx *gin.Context) {
	c, err := h.campaignManager.GetCampaign(ctx.Param("ID"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	if err := c.Finalize(ctx.Request.Context()); err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(200, h.mapCampaign(c, false))
}

func (h *HTTPHandler) ClaimRefund(ctx *gin.Context) {
	h.callerOperation(ctx, func(c *campaign.Campaign, caller common.Address) error {
		return c.ClaimRefund(ctx.Request.Context(), caller)
	})
}

func (h *HTTPHandler) CancelSuccessful(ctx *gin.Context) {
	h.callerOperation(ctx, func(c *campaign.Campaign, caller common.Address) error {
		return c.CancelSuccessful(ctx.Request.Context(), caller)
	})
}

func (h *HTTPHandler) GetContribution(ctx *gin.Context) {
	c, err := h.campaignManager.GetCampaign(ctx.Param("ID"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	addr, err := parseAddress(ctx.Param("addr"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(200, Contribution{
		CampaignID: c.ID(),
		Address:    addr.Hex(),
		Amount:     c.ContributionOf(addr).String(),
	})
}

func (h *HTTPHandler) GetEvents(ctx *gin.Context) {
	limit := defaultEventsLimit
	if value, ok := ctx.GetQuery("limit"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			ctx.JSON(400, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}

	events, err := h.campaignManager.GetEvents(ctx.Request.Context(), ctx.Param("ID"), limit)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	data := make([]Notification, len(events))
	for i, n := range events {
		data[i] = mapNotification(n)
	}
	ctx.JSON(200, data)
}

// caller reads the identity the transport layer authenticated, writes 400 if it is missing
func (h *HTTPHandler) caller(ctx *gin.Context) (common.Address, bool) {
	var header CallerHeader
	if err := ctx.ShouldBindHeader(&header); err != nil {
		ctx.JSON(400, gin.H{"error": "X-Caller-Address header must be an ethereum address"})
		return common.Address{}, false
	}
	return common.HexToAddress(header.Address), true
}

func (h *HTTPHandler) callerOperation(ctx *gin.Context, op func(c *campaign.Campaign, caller common.Address) error) {
	c, err := h.campaignManager.GetCampaign(ctx.Param("ID"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	caller, ok := h.caller(ctx)
	if !ok {
		return
	}

	status := 200
	if err := op(c, caller); err != nil {
		if !errors.Is(err, campaign.ErrTransferPending) {
			h.writeError(ctx, err)
			return
		}
		status = 202
	}
	ctx.JSON(status, h.mapCampaign(c, false))
}

// pledgeOperation books a pledge, with a deposit claimer configured the pledge must name
// a verified inbound transaction which is released again if booking fails
func (h *HTTPHandler) pledgeOperation(ctx *gin.Context, op func(c *campaign.Campaign, caller common.Address, amount *big.Int) error) {
	h.callerOperation(ctx, func(c *campaign.Campaign, caller common.Address) error {
		var req PledgeRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return lib.WrapError(ErrInvalidRequest, err)
		}
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return err
		}
		if h.deposits == nil {
			return op(c, caller, amount)
		}

		if req.TxHash == "" {
			return ErrDepositRequired
		}
		release, err := h.deposits.Claim(ctx.Request.Context(), common.HexToHash(req.TxHash), caller, amount)
		if err != nil {
			return err
		}
		if err := op(c, caller, amount); err != nil {
			release()
			return err
		}
		return nil
	})
}

func (h *HTTPHandler) amountOperation(ctx *gin.Context, op func(c *campaign.Campaign, caller common.Address, amount *big.Int) error) {
	h.callerOperation(ctx, func(c *campaign.Campaign, caller common.Address) error {
		var req AmountRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return lib.WrapError(ErrInvalidRequest, err)
		}
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return err
		}
		return op(c, caller, amount)
	})
}

package httphandlers

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"gitlab.com/TitanInd/milestone-escrow/internal/campaign"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

func (h *HTTPHandler) GetMilestones(ctx *gin.Context) {
	c, err := h.campaignManager.GetCampaign(ctx.Param("ID"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(200, mapMilestones(c.Milestones()))
}

func (h *HTTPHandler) GetMilestone(ctx *gin.Context) {
	c, index, ok := h.milestoneTarget(ctx)
	if !ok {
		return
	}
	m, err := c.Milestone(index)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(200, mapMilestone(m))
}

func (h *HTTPHandler) StartMilestoneVote(ctx *gin.Context) {
	h.milestoneOperation(ctx, true, func(c *campaign.Campaign, caller common.Address, index int) error {
		var req StartVoteRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return lib.WrapError(ErrInvalidRequest, err)
		}
		return c.StartMilestoneVote(ctx.Request.Context(), caller, index, time.Duration(req.DurationSeconds)*time.Second)
	})
}

func (h *HTTPHandler) VoteOnMilestone(ctx *gin.Context) {
	h.milestoneOperation(ctx, true, func(c *campaign.Campaign, caller common.Address, index int) error {
		var req VoteRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return lib.WrapError(ErrInvalidRequest, err)
		}
		return c.VoteOnMilestone(ctx.Request.Context(), caller, index, *req.Support)
	})
}

// FinalizeMilestoneVote can be triggered by anyone once the window closed,
// the caller header is only recorded as the actor when present
func (h *HTTPHandler) FinalizeMilestoneVote(ctx *gin.Context) {
	h.milestoneOperation(ctx, false, func(c *campaign.Campaign, caller common.Address, index int) error {
		return c.FinalizeMilestoneVote(ctx.Request.Context(), caller, index)
	})
}

func (h *HTTPHandler) milestoneTarget(ctx *gin.Context) (*campaign.Campaign, int, bool) {
	c, err := h.campaignManager.GetCampaign(ctx.Param("ID"))
	if err != nil {
		h.writeError(ctx, err)
		return nil, 0, false
	}
	index, err := parseIndex(ctx.Param("index"))
	if err != nil {
		h.writeError(ctx, err)
		return nil, 0, false
	}
	return c, index, true
}

func (h *HTTPHandler) milestoneOperation(ctx *gin.Context, callerRequired bool, op func(c *campaign.Campaign, caller common.Address, index int) error) {
	c, index, ok := h.milestoneTarget(ctx)
	if !ok {
		return
	}

	var caller common.Address
	if callerRequired || ctx.GetHeader("X-Caller-Address") != "" {
		caller, ok = h.caller(ctx)
		if !ok {
			return
		}
	}

	status := 200
	if err := op(c, caller, index); err != nil {
		if !errors.Is(err, campaign.ErrTransferPending) {
			h.writeError(ctx, err)
			return
		}
		status = 202
	}

	m, err := c.Milestone(index)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(status, mapMilestone(m))
}

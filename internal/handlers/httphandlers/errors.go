package httphandlers

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"gitlab.com/TitanInd/milestone-escrow/internal/campaign"
	"gitlab.com/TitanInd/milestone-escrow/internal/campaignmanager"
	"gitlab.com/TitanInd/milestone-escrow/internal/custody"
)

var (
	ErrInvalidAmountFormat = errors.New("amount must be a base-10 integer")
	ErrInvalidIndex        = errors.New("milestone index must be a non-negative integer")
	ErrInvalidAddress      = errors.New("invalid address")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrDepositRequired     = errors.New("deposit TxHash is required")
)

// statusFromError maps domain errors to http status codes
func statusFromError(err error) int {
	switch {
	case errors.Is(err, campaignmanager.ErrCampaignNotFound):
		return 404
	case errors.Is(err, campaign.ErrNotAuthorized):
		return 403
	case errors.Is(err, campaign.ErrInvalidAmount),
		errors.Is(err, campaign.ErrInvalidParams),
		errors.Is(err, ErrInvalidAmountFormat),
		errors.Is(err, ErrInvalidIndex),
		errors.Is(err, ErrInvalidAddress),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrDepositRequired),
		errors.Is(err, custody.ErrDepositNotFound),
		errors.Is(err, custody.ErrDepositMismatch):
		return 400
	case errors.Is(err, campaign.ErrTransferPending):
		return 202
	case errors.Is(err, campaign.ErrTransferFailed):
		return 502
	case errors.Is(err, campaign.ErrInsufficientCustodyBalance):
		return 422
	case errors.Is(err, campaign.ErrReentrantCall),
		errors.Is(err, campaign.ErrCampaignClosed),
		errors.Is(err, campaign.ErrCampaignStillOpen),
		errors.Is(err, campaign.ErrAlreadyFinalized),
		errors.Is(err, campaign.ErrNotYetFinalized),
		errors.Is(err, campaign.ErrGoalNotReached),
		errors.Is(err, campaign.ErrMilestoneOutOfOrder),
		errors.Is(err, campaign.ErrMilestoneReleased),
		errors.Is(err, campaign.ErrVotingNotOpen),
		errors.Is(err, campaign.ErrVotingStillOpen),
		errors.Is(err, campaign.ErrDuplicateVote),
		errors.Is(err, campaign.ErrNothingToRefund),
		errors.Is(err, custody.ErrDepositClaimed),
		errors.Is(err, custody.ErrDepositUnconfirmed):
		return 409
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return 503
	}
	return 500
}

func (h *HTTPHandler) writeError(ctx *gin.Context, err error) {
	status := statusFromError(err)
	if status >= 500 {
		h.log.Warnf("%s %s failed: %s", ctx.Request.Method, ctx.Request.URL.Path, err)
	}
	ctx.JSON(status, gin.H{"error": err.Error()})
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmountFormat, value)
	}
	return amount, nil
}

func parseIndex(value string) (int, error) {
	index, err := strconv.Atoi(value)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIndex, value)
	}
	return index, nil
}

func parseAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, value)
	}
	return common.HexToAddress(value), nil
}

package campaign

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount              = errors.New("invalid amount")
	ErrInvalidParams              = errors.New("invalid campaign params")
	ErrCampaignClosed             = errors.New("campaign is closed")
	ErrCampaignStillOpen          = errors.New("campaign deadline not reached")
	ErrNotAuthorized              = errors.New("not authorized")
	ErrNotContributor             = fmt.Errorf("%w: caller has no contribution", ErrNotAuthorized)
	ErrAlreadyFinalized           = errors.New("campaign already finalized")
	ErrNotYetFinalized            = errors.New("campaign not yet finalized")
	ErrGoalNotReached             = errors.New("operation not allowed for campaign outcome")
	ErrMilestoneOutOfOrder        = errors.New("earlier milestone not released")
	ErrMilestoneReleased          = errors.New("milestone already released")
	ErrVotingNotOpen              = errors.New("voting is not open")
	ErrVotingStillOpen            = errors.New("voting is still open")
	ErrDuplicateVote              = errors.New("already voted")
	ErrNothingToRefund            = errors.New("nothing to refund")
	ErrInsufficientCustodyBalance = errors.New("insufficient custody balance")
	ErrTransferFailed             = errors.New("transfer failed")
	ErrTransferPending            = errors.New("transfer sent, confirmation pending")
	ErrReentrantCall              = errors.New("reentrant call")
)

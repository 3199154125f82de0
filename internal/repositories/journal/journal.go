package journal

import (
	"context"
	"errors"

	"gitlab.com/TitanInd/milestone-escrow/internal/campaign"
)

var (
	ErrAlreadyExists = errors.New("notification already recorded")
	ErrClosed        = errors.New("journal is closed")
)

// Journal keeps campaign notifications for later inspection
type Journal interface {
	Append(ctx context.Context, n campaign.Notification) error
	// List returns up to limit most recent notifications of the campaign, oldest first. Non-positive limit returns all
	List(ctx context.Context, campaignID string, limit int) ([]campaign.Notification, error)
	Close() error
}

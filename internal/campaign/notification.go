package campaign

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

type NotificationKind string

const (
	KindPledgeMade          NotificationKind = "pledge_made"
	KindWithdrawalMade      NotificationKind = "withdrawal_made"
	KindRefundMade          NotificationKind = "refund_made"
	KindCampaignSucceeded   NotificationKind = "campaign_succeeded"
	KindCampaignFailed      NotificationKind = "campaign_failed"
	KindCampaignCancelled   NotificationKind = "campaign_cancelled"
	KindMilestoneVoteOpened NotificationKind = "milestone_vote_opened"
	KindVoteCast            NotificationKind = "vote_cast"
	KindMilestoneReleased   NotificationKind = "milestone_released"
	KindMilestoneRejected   NotificationKind = "milestone_rejected"
)

// NoMilestone marks notifications that are not about a milestone
const NoMilestone = -1

type Notification struct {
	ID             string
	CampaignID     string
	Kind           NotificationKind
	Actor          common.Address
	Amount         *big.Int // nil when not applicable
	MilestoneIndex int
	Support        bool
	Outcome        string
	Timestamp      time.Time
}

type Listener func(n Notification)

type listeners struct {
	items map[string]Listener
	mutex sync.RWMutex
}

func newListeners() *listeners {
	return &listeners{items: make(map[string]Listener)}
}

func (l *listeners) add(listener Listener) string {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	ID := uuid.NewString()
	l.items[ID] = listener
	return ID
}

func (l *listeners) remove(ID string) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	_, ok := l.items[ID]
	delete(l.items, ID)
	return ok
}

func (l *listeners) notify(batch []Notification) {
	if len(batch) == 0 {
		return
	}

	l.mutex.RLock()
	items := make([]Listener, 0, len(l.items))
	for _, item := range l.items {
		items = append(items, item)
	}
	l.mutex.RUnlock()

	for _, n := range batch {
		for _, listener := range items {
			listener(n)
		}
	}
}

func amountCopy(amount *big.Int) *big.Int {
	if amount == nil {
		return nil
	}
	return new(big.Int).Set(amount)
}

package journal

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
	"gitlab.com/TitanInd/milestone-escrow/internal/campaign"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

// Memory is a bounded journal. When it reaches its capacity the oldest record is dropped.
// The ring buffer (deque) avoids reallocations once warmed up
type Memory struct {
	data   *deque.Deque[campaign.Notification]
	ids    lib.Set[string]
	cap    int
	closed bool
	mutex  sync.RWMutex
}

func NewMemory(cap int) *Memory {
	return &Memory{
		data: deque.New[campaign.Notification](cap, cap),
		ids:  lib.NewSet[string](),
		cap:  cap,
	}
}

func (m *Memory) Append(ctx context.Context, n campaign.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.ids.Contains(n.ID) {
		return ErrAlreadyExists
	}

	if m.data.Len() >= m.cap {
		dropped := m.data.PopFront()
		m.ids.Remove(dropped.ID)
	}
	m.data.PushBack(n)
	m.ids.Add(n.ID)
	return nil
}

func (m *Memory) List(ctx context.Context, campaignID string, limit int) ([]campaign.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	// walk from the newest record back, then restore chronological order
	var res []campaign.Notification
	for i := m.data.Len() - 1; i >= 0; i-- {
		if limit > 0 && len(res) >= limit {
			break
		}
		if item := m.data.At(i); item.CampaignID == campaignID {
			res = append(res, item)
		}
	}
	reverse(res)
	return res, nil
}

func (m *Memory) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.data.Len()
}

func (m *Memory) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.closed = true
	m.data.Clear()
	m.ids.Clear()
	return nil
}

func reverse(items []campaign.Notification) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

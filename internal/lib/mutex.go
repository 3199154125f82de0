package lib

import (
	"context"
)

// Mutex is a channel based mutex that allows to give up on waiting,
// either immediately or on context cancellation
type Mutex struct {
	ch chan struct{}
}

func NewMutex() *Mutex {
	return &Mutex{
		ch: make(chan struct{}, 1),
	}
}

func (m *Mutex) Lock() {
	m.ch <- struct{}{}
}

// TryLock acquires the lock only if it is free
func (m *Mutex) TryLock() bool {
	select {
	case m.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Unlock of unlocked mutex is a no-op
func (m *Mutex) Unlock() {
	select {
	case <-m.ch:
	default:
	}
}

func (m *Mutex) LockCtx(ctx context.Context) error {
	if m.TryLock() {
		return nil
	}

	select {
	case m.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

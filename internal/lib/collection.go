package lib

import "sync"

type IDer interface {
	ID() string
}

// Collection is a concurrency safe map of items keyed by their ID
type Collection[T IDer] struct {
	items map[string]T
	mutex sync.RWMutex
}

func NewCollection[T IDer]() *Collection[T] {
	return &Collection[T]{
		items: make(map[string]T),
	}
}

func (c *Collection[T]) Load(ID string) (T, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, ok := c.items[ID]
	return item, ok
}

func (c *Collection[T]) Store(item T) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[item.ID()] = item
}

// LoadOrStore returns the existing item if present, otherwise stores the given one
func (c *Collection[T]) LoadOrStore(item T) (actual T, loaded bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if existing, ok := c.items[item.ID()]; ok {
		return existing, true
	}
	c.items[item.ID()] = item
	return item, false
}

func (c *Collection[T]) Delete(ID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, ID)
}

// Range iterates over a snapshot of the items, so f may safely access the collection
func (c *Collection[T]) Range(f func(item T) bool) {
	c.mutex.RLock()
	items := make([]T, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, item)
	}
	c.mutex.RUnlock()

	for _, item := range items {
		if !f(item) {
			return
		}
	}
}

func (c *Collection[T]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.items)
}

package service

import (
	"sync"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/pkg/logger"
)

// subscriberBuffer absorbs short bursts per connection. A subscriber that
// falls further behind loses updates rather than blocking the publisher.
const subscriberBuffer = 16

// InMemoryBroadcaster implements domain.Broadcaster with an in-process
// registry of subscriber channels keyed by owning user. Delivery is
// at-most-once: publishing to a user with no live connections is a silent
// no-op and nothing is buffered for later.
type InMemoryBroadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan domain.StatusUpdate]struct{}
	closed      bool
	logger      logger.Logger
}

// NewInMemoryBroadcaster creates a broadcaster
func NewInMemoryBroadcaster(logger logger.Logger) *InMemoryBroadcaster {
	return &InMemoryBroadcaster{
		subscribers: map[string]map[chan domain.StatusUpdate]struct{}{},
		logger:      logger,
	}
}

// Subscribe registers one connection for userID. The returned unsubscribe
// function is idempotent.
func (b *InMemoryBroadcaster) Subscribe(userID string) (<-chan domain.StatusUpdate, func()) {
	ch := make(chan domain.StatusUpdate, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	group, ok := b.subscribers[userID]
	if !ok {
		group = map[chan domain.StatusUpdate]struct{}{}
		b.subscribers[userID] = group
	}
	group[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			// Shutdown already closed every channel.
			if b.closed {
				return
			}
			if group, ok := b.subscribers[userID]; ok {
				delete(group, ch)
				if len(group) == 0 {
					delete(b.subscribers, userID)
				}
			}
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Publish delivers update to every live connection of userID without
// blocking. A full subscriber channel drops the update.
func (b *InMemoryBroadcaster) Publish(userID string, update domain.StatusUpdate) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for ch := range b.subscribers[userID] {
		select {
		case ch <- update:
		default:
			b.logger.WithField("user_id", userID).Warn("subscriber too slow, dropping status update")
		}
	}
}

// SubscriberCount reports live connections for userID.
func (b *InMemoryBroadcaster) SubscriberCount(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[userID])
}

// Shutdown closes every subscriber channel and rejects future subscribes.
func (b *InMemoryBroadcaster) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, group := range b.subscribers {
		for ch := range group {
			close(ch)
		}
	}
	b.subscribers = map[string]map[chan domain.StatusUpdate]struct{}{}
}

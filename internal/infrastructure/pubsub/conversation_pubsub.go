// Package pubsub fans conversation events out to in-process subscribers,
// feeding the live event stream endpoint.
package pubsub

import (
	"sync"

	"github.com/rs/zerolog"

	"wa-order-bridge/internal/domain"
)

// subscriberBuffer bounds how far a slow subscriber may fall behind before
// events are dropped for it.
const subscriberBuffer = 16

// ConversationPubSub broadcasts conversation events to all subscribers.
// Publishing never blocks; a subscriber with a full buffer misses events.
type ConversationPubSub struct {
	mu          sync.RWMutex
	subscribers map[chan domain.ConversationEvent]struct{}
	logger      zerolog.Logger
}

// NewConversationPubSub creates an empty broadcaster.
func NewConversationPubSub(logger zerolog.Logger) *ConversationPubSub {
	return &ConversationPubSub{
		subscribers: make(map[chan domain.ConversationEvent]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a new subscriber and returns its channel. The caller
// must Unsubscribe when done or the channel leaks.
func (ps *ConversationPubSub) Subscribe() chan domain.ConversationEvent {
	ch := make(chan domain.ConversationEvent, subscriberBuffer)

	ps.mu.Lock()
	ps.subscribers[ch] = struct{}{}
	count := len(ps.subscribers)
	ps.mu.Unlock()

	ps.logger.Debug().Int("subscribers", count).Msg("event subscription created")
	return ch
}

// Unsubscribe removes a subscriber and closes its channel. Unsubscribing an
// unknown channel is a no-op.
func (ps *ConversationPubSub) Unsubscribe(ch chan domain.ConversationEvent) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, ok := ps.subscribers[ch]; !ok {
		return
	}
	delete(ps.subscribers, ch)
	close(ch)
}

// Publish delivers an event to every subscriber that can take it.
func (ps *ConversationPubSub) Publish(event domain.ConversationEvent) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for ch := range ps.subscribers {
		select {
		case ch <- event:
		default:
			ps.logger.Warn().Str("kind", event.Kind).Msg("subscriber buffer full, dropping event")
		}
	}
}

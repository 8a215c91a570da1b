package ports

import "wa-order-bridge/internal/domain"

// ConversationPubSub fans conversation events out to subscribers, one
// channel per subscriber.
type ConversationPubSub interface {
	Subscribe() chan domain.ConversationEvent
	Unsubscribe(ch chan domain.ConversationEvent)
	Publish(event domain.ConversationEvent)
}

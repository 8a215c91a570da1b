package domain

import "time"

// Conversation event kinds.
const (
	EventMessageIn  = "message.in"
	EventMessageOut = "message.out"
)

// ConversationEvent is a live notification of conversation activity,
// broadcast to back-office subscribers over the events stream.
type ConversationEvent struct {
	Kind       string    `json:"kind"`
	CustomerID int64     `json:"customer_id"`
	ExternalID string    `json:"external_id"`
	Text       string    `json:"text"`
	At         time.Time `json:"at"`
}

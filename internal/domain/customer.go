package domain

import "time"

// Customer is a messaging-platform contact, keyed by their platform identifier
// (the WhatsApp phone number in E.164 form without the leading plus).
type Customer struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Conversation groups the messages exchanged with one customer. At most one
// conversation per customer is open at a time.
type Conversation struct {
	ID            int64      `json:"id"`
	CustomerID    int64      `json:"customer_id"`
	Status        string     `json:"status"` // "open" or "closed"
	StartedAt     time.Time  `json:"started_at"`
	LastMessageAt time.Time  `json:"last_message_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
}

// Message directions.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Message is one entry in a conversation's append-only log. RawPayload keeps
// the provider's original JSON for inbound messages; ProviderMessageID is
// what duplicate-delivery detection keys on.
type Message struct {
	ID                int64     `json:"id"`
	ConversationID    int64     `json:"conversation_id"`
	Direction         string    `json:"direction"`
	Text              string    `json:"text"`
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
	RawPayload        []byte    `json:"raw_payload,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

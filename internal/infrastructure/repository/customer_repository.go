package repository

import (
	"context"
	"fmt"

	"wa-order-bridge/internal/domain"
)

// GetOrCreateCustomer upserts a customer by channel identity and returns the
// stored row. A non-empty name refreshes the stored one.
func (p *Postgres) GetOrCreateCustomer(ctx context.Context, externalID, name string) (*domain.Customer, error) {
	const query = `
		INSERT INTO customers (external_id, name)
		VALUES ($1, $2)
		ON CONFLICT (external_id) DO UPDATE
			SET name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE customers.name END
		RETURNING id, external_id, name, created_at
	`
	var c domain.Customer
	err := p.pool.QueryRow(ctx, query, externalID, name).
		Scan(&c.ID, &c.ExternalID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting customer: %w", err)
	}
	return &c, nil
}

// GetOrCreateOpenConversation returns the customer's open conversation,
// creating one if none exists.
func (p *Postgres) GetOrCreateOpenConversation(ctx context.Context, customerID int64) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx,
		"SELECT id FROM conversations WHERE customer_id = $1 AND status = 'open' ORDER BY started_at DESC LIMIT 1",
		customerID,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !isNoRows(err) {
		return 0, fmt.Errorf("finding open conversation: %w", err)
	}

	err = p.pool.QueryRow(ctx,
		"INSERT INTO conversations (customer_id) VALUES ($1) RETURNING id",
		customerID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating conversation: %w", err)
	}
	return id, nil
}

// TouchConversation bumps the conversation's last activity timestamp.
func (p *Postgres) TouchConversation(ctx context.Context, conversationID int64) error {
	_, err := p.pool.Exec(ctx,
		"UPDATE conversations SET last_message_at = now() WHERE id = $1",
		conversationID,
	)
	if err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}
	return nil
}

// AppendMessage records one message on the conversation log. The provider
// message id is stored for inbound messages so duplicate webhook deliveries
// can be detected; pass "" for outbound messages.
func (p *Postgres) AppendMessage(ctx context.Context, conversationID int64, direction, text, providerMessageID string, rawPayload []byte) error {
	var providerID any
	if providerMessageID != "" {
		providerID = providerMessageID
	}
	var payload any
	if len(rawPayload) > 0 {
		payload = rawPayload
	}

	_, err := p.pool.Exec(ctx,
		"INSERT INTO messages (conversation_id, direction, text, provider_message_id, raw_payload) VALUES ($1, $2, $3, $4, $5)",
		conversationID, direction, text, providerID, payload,
	)
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

// HasInboundMessage reports whether an inbound message with this provider
// message id was already recorded.
func (p *Postgres) HasInboundMessage(ctx context.Context, providerMessageID string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM messages WHERE direction = 'in' AND provider_message_id = $1)",
		providerMessageID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking inbound message: %w", err)
	}
	return exists, nil
}

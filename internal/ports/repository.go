package ports

import (
	"context"

	"wa-order-bridge/internal/domain"
)

// Repository defines the interface for durable persistence: customers,
// conversations, the message log, per-customer flow state, and the cached
// storefront credential.
type Repository interface {
	// Customer / conversation operations
	GetOrCreateCustomer(ctx context.Context, externalID, name string) (*domain.Customer, error)
	GetOrCreateOpenConversation(ctx context.Context, customerID int64) (int64, error)
	TouchConversation(ctx context.Context, conversationID int64) error
	AppendMessage(ctx context.Context, conversationID int64, direction, text, providerMessageID string, rawPayload []byte) error

	// HasInboundMessage reports whether an inbound message with the given
	// provider message id was already recorded. Used to drop duplicate
	// webhook deliveries.
	HasInboundMessage(ctx context.Context, providerMessageID string) (bool, error)

	// Flow state operations. GetFlowState returns the idle default when no
	// row exists; SetFlowState upserts by customer id.
	GetFlowState(ctx context.Context, customerID int64) (domain.FlowState, error)
	SetFlowState(ctx context.Context, customerID int64, state domain.FlowState) error
	ClearFlowState(ctx context.Context, customerID int64) error

	// Credential operations. GetCredential returns nil when no credential is
	// stored. SaveCredential upserts by provider, preserving the prior
	// refresh token when the new credential omits one.
	SaveCredential(ctx context.Context, cred *domain.Credential) error
	GetCredential(ctx context.Context, provider string) (*domain.Credential, error)
	SetRefreshFailures(ctx context.Context, provider string, count int) error
}

// StateStore holds ephemeral OAuth anti-forgery state between the redirect to
// the provider's authorization page and the matching callback.
type StateStore interface {
	// SavePendingAuthorization stores a state value with a bounded lifetime.
	SavePendingAuthorization(ctx context.Context, provider, state string) error

	// ConsumePendingAuthorization atomically checks and deletes a state
	// value. Returns false for unknown, expired, or already-consumed states.
	ConsumePendingAuthorization(ctx context.Context, provider, state string) (bool, error)
}

package ports

import (
	"context"

	"wa-order-bridge/internal/domain"
)

// StorefrontAuth drives the OAuth authorization-code flow against the
// storefront platform.
type StorefrontAuth interface {
	// BuildAuthURL returns the provider authorization URL carrying the given
	// anti-forgery state.
	BuildAuthURL(state string) string

	// ExchangeCode trades an authorization code for a credential.
	ExchangeCode(ctx context.Context, code string) (*domain.Credential, error)

	// Refresh trades a refresh token for a new credential.
	Refresh(ctx context.Context, refreshToken string) (*domain.Credential, error)
}

// StorefrontOrders reads order data from the storefront REST API. A nil
// order with a nil error means the order was not found at that step; a
// LookupError means the provider failed and the caller must stop.
type StorefrontOrders interface {
	// FetchOrder fetches a single order directly by identifier.
	FetchOrder(ctx context.Context, accessToken string, identifier domain.OrderIdentifier) (map[string]any, error)

	// ListOrdersBy lists candidate orders using a filter query parameter.
	ListOrdersBy(ctx context.Context, accessToken, param, value string) ([]map[string]any, error)

	// ListOrdersPage lists one page of orders. An empty page ends the scan.
	ListOrdersPage(ctx context.Context, accessToken string, page, perPage int) ([]map[string]any, error)
}

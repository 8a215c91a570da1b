// Package storefront talks to the storefront platform: the OAuth token
// endpoints and the orders REST API.
package storefront

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wa-order-bridge/internal/config"
)

// Provider is the credential key the bridge stores its storefront
// connection under. A single-tenant deployment has exactly one.
const Provider = "storefront"

// Client covers both halves of the storefront integration. The zero value
// is not usable; build one with NewClient.
type Client struct {
	baseURL      string
	authURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	redirectURI  string
	scopes       string
	httpClient   *http.Client
	logger       zerolog.Logger
	now          func() time.Time
}

// NewClient builds a storefront client from the loaded configuration.
func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.StorefrontBaseURL, "/"),
		authURL:      cfg.StorefrontAuthURL,
		tokenURL:     cfg.StorefrontTokenURL,
		clientID:     cfg.StorefrontClientID,
		clientSecret: cfg.StorefrontClientSecret,
		redirectURI:  cfg.StorefrontRedirectURI,
		scopes:       cfg.StorefrontScopes,
		httpClient:   &http.Client{Timeout: cfg.HTTPTimeout},
		logger:       logger,
		now:          time.Now,
	}
}

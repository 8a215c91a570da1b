package domain

import "time"

// Credential is the cached OAuth token set for one storefront provider.
// At most one live row exists per provider; refresh overwrites it in place.
type Credential struct {
	Provider     string `json:"provider"`
	TokenType    string `json:"token_type,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	// ExpiresAt is absent when the provider did not report an expiry;
	// the token is then assumed valid.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// RefreshFailures counts consecutive failed refresh attempts. Reset to
	// zero on any successful grant.
	RefreshFailures int       `json:"refresh_failures"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FreshFor reports whether the access token is still usable at least margin
// into the future. A credential without a reported expiry counts as fresh.
func (c *Credential) FreshFor(now time.Time, margin time.Duration) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return c.ExpiresAt.Sub(now) > margin
}

// PendingAuthorization is the anti-forgery state issued before redirecting a
// user to the provider's authorization page. Each state value is consumable
// exactly once, on the matching callback.
type PendingAuthorization struct {
	Provider string
	State    string
}

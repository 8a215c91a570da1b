package repository

import (
	"context"
	"fmt"

	"wa-order-bridge/internal/domain"
)

// SaveCredential upserts the credential for a provider. When the new
// credential carries no refresh token the previously stored one is kept,
// since some token endpoints omit it on refresh.
func (p *Postgres) SaveCredential(ctx context.Context, cred *domain.Credential) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO oauth_credentials
			(provider, token_type, access_token, refresh_token, scope, expires_at, refresh_failures, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (provider) DO UPDATE
			SET token_type = EXCLUDED.token_type,
			    access_token = EXCLUDED.access_token,
			    refresh_token = CASE
			        WHEN EXCLUDED.refresh_token <> '' THEN EXCLUDED.refresh_token
			        ELSE oauth_credentials.refresh_token
			    END,
			    scope = EXCLUDED.scope,
			    expires_at = EXCLUDED.expires_at,
			    refresh_failures = EXCLUDED.refresh_failures,
			    updated_at = now()
	`, cred.Provider, cred.TokenType, cred.AccessToken, cred.RefreshToken,
		cred.Scope, cred.ExpiresAt, cred.RefreshFailures)
	if err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// GetCredential loads the stored credential for a provider. Returns nil when
// the store has never been connected.
func (p *Postgres) GetCredential(ctx context.Context, provider string) (*domain.Credential, error) {
	var c domain.Credential
	err := p.pool.QueryRow(ctx, `
		SELECT provider, token_type, access_token, refresh_token, scope, expires_at, refresh_failures, updated_at
		FROM oauth_credentials
		WHERE provider = $1
	`, provider).Scan(&c.Provider, &c.TokenType, &c.AccessToken, &c.RefreshToken,
		&c.Scope, &c.ExpiresAt, &c.RefreshFailures, &c.UpdatedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}
	return &c, nil
}

// SetRefreshFailures overwrites the consecutive refresh failure counter.
func (p *Postgres) SetRefreshFailures(ctx context.Context, provider string, count int) error {
	_, err := p.pool.Exec(ctx,
		"UPDATE oauth_credentials SET refresh_failures = $2, updated_at = now() WHERE provider = $1",
		provider, count,
	)
	if err != nil {
		return fmt.Errorf("updating refresh failures: %w", err)
	}
	return nil
}

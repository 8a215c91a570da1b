package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"wa-order-bridge/internal/domain"
	"wa-order-bridge/internal/ports"
)

// refreshMargin is how close to expiry an access token may get before it is
// refreshed rather than used.
const refreshMargin = 60 * time.Second

// maxRefreshFailures is how many consecutive refresh failures the service
// tolerates before demanding a fresh interactive authorization.
const maxRefreshFailures = 3

// TokenService owns the storefront OAuth connection: starting the
// authorization flow, finishing it, and keeping the access token fresh.
type TokenService struct {
	repo     ports.Repository
	states   ports.StateStore
	auth     ports.StorefrontAuth
	provider string
	metrics  *Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

// NewTokenService creates a token service for one provider connection.
func NewTokenService(
	repo ports.Repository,
	states ports.StateStore,
	auth ports.StorefrontAuth,
	provider string,
	metrics *Metrics,
	logger zerolog.Logger,
) *TokenService {
	return &TokenService{
		repo:     repo,
		states:   states,
		auth:     auth,
		provider: provider,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// StartAuthorization issues a fresh anti-forgery state, records it as
// pending, and returns the provider URL to redirect the operator to.
func (s *TokenService) StartAuthorization(ctx context.Context) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	state := hex.EncodeToString(buf)

	if err := s.states.SavePendingAuthorization(ctx, s.provider, state); err != nil {
		return "", fmt.Errorf("recording pending authorization: %w", err)
	}

	s.logger.Info().Str("provider", s.provider).Msg("authorization started")
	return s.auth.BuildAuthURL(state), nil
}

// CompleteAuthorization validates the callback state, exchanges the code and
// stores the resulting credential. An unknown or reused state is rejected
// before any provider call is made.
func (s *TokenService) CompleteAuthorization(ctx context.Context, state, code string) error {
	ok, err := s.states.ConsumePendingAuthorization(ctx, s.provider, state)
	if err != nil {
		return fmt.Errorf("checking pending authorization: %w", err)
	}
	if !ok {
		return fmt.Errorf("unknown or expired authorization state")
	}

	cred, err := s.auth.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	cred.Provider = s.provider
	cred.RefreshFailures = 0
	if err := s.repo.SaveCredential(ctx, cred); err != nil {
		return err
	}

	s.logger.Info().Str("provider", s.provider).Msg("storefront connected")
	return nil
}

// AccessToken returns a token fresh for at least the refresh margin,
// refreshing the stored credential when needed. Returns ErrNotConnected when
// no credential exists and ErrNeedsReauthorization once refreshing has
// failed too many times in a row.
func (s *TokenService) AccessToken(ctx context.Context) (string, error) {
	cred, err := s.repo.GetCredential(ctx, s.provider)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", domain.ErrNotConnected
	}
	if cred.RefreshFailures >= maxRefreshFailures {
		return "", domain.ErrNeedsReauthorization
	}

	if cred.FreshFor(s.now(), refreshMargin) {
		return cred.AccessToken, nil
	}

	if cred.RefreshToken == "" {
		s.logger.Warn().Str("provider", s.provider).Msg("token expired and no refresh token stored")
		return "", domain.ErrNeedsReauthorization
	}

	refreshed, err := s.auth.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		failures := cred.RefreshFailures + 1
		if storeErr := s.repo.SetRefreshFailures(ctx, s.provider, failures); storeErr != nil {
			s.logger.Error().Err(storeErr).Msg("recording refresh failure")
		}
		s.metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		s.logger.Warn().
			Err(err).
			Int("consecutive_failures", failures).
			Msg("token refresh failed")

		if failures >= maxRefreshFailures {
			return "", domain.ErrNeedsReauthorization
		}
		// A failed refresh leaves no usable token; callers treat it the
		// same as never having connected.
		return "", fmt.Errorf("%w: refresh failed: %v", domain.ErrNotConnected, err)
	}

	refreshed.Provider = s.provider
	refreshed.RefreshFailures = 0
	if err := s.repo.SaveCredential(ctx, refreshed); err != nil {
		return "", err
	}

	s.metrics.TokenRefreshes.WithLabelValues("success").Inc()
	return refreshed.AccessToken, nil
}

// Connected reports whether a usable credential is stored.
func (s *TokenService) Connected(ctx context.Context) (bool, error) {
	cred, err := s.repo.GetCredential(ctx, s.provider)
	if err != nil {
		return false, err
	}
	return cred != nil && cred.RefreshFailures < maxRefreshFailures, nil
}

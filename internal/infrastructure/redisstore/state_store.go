// Package redisstore holds short-lived OAuth anti-forgery state in Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// stateTTL bounds how long a started authorization may stay pending.
const stateTTL = 10 * time.Minute

// StateStore keeps one pending authorization per (provider, state) pair.
type StateStore struct {
	client *redis.Client
}

// NewStateStore connects to Redis using a redis:// URL and verifies the
// connection.
func NewStateStore(ctx context.Context, redisURL string) (*StateStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &StateStore{client: client}, nil
}

// Close releases the underlying connection pool.
func (s *StateStore) Close() error {
	return s.client.Close()
}

func stateKey(provider, state string) string {
	return "pending_auth:" + provider + ":" + state
}

// SavePendingAuthorization records a freshly issued state value. It expires
// on its own if the user never completes the authorization.
func (s *StateStore) SavePendingAuthorization(ctx context.Context, provider, state string) error {
	if err := s.client.Set(ctx, stateKey(provider, state), "1", stateTTL).Err(); err != nil {
		return fmt.Errorf("saving pending authorization: %w", err)
	}
	return nil
}

// ConsumePendingAuthorization checks and deletes the state in one round
// trip, so a replayed callback can never match twice.
func (s *StateStore) ConsumePendingAuthorization(ctx context.Context, provider, state string) (bool, error) {
	err := s.client.GetDel(ctx, stateKey(provider, state)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consuming pending authorization: %w", err)
	}
	return true, nil
}

package redisstore

import (
	"context"
	"os"
	"testing"
)

// testStateStore connects to the Redis named by TEST_REDIS_URL. Tests are
// skipped when the variable is unset.
func testStateStore(t *testing.T) *StateStore {
	t.Helper()

	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	store, err := NewStateStore(context.Background(), redisURL)
	if err != nil {
		t.Fatalf("connecting to test redis: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestConsumeIsExactlyOnce(t *testing.T) {
	store := testStateStore(t)
	ctx := context.Background()

	if err := store.SavePendingAuthorization(ctx, "storefront", "state-abc"); err != nil {
		t.Fatalf("SavePendingAuthorization: %v", err)
	}

	ok, err := store.ConsumePendingAuthorization(ctx, "storefront", "state-abc")
	if err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if !ok {
		t.Fatal("saved state should consume")
	}

	ok, err = store.ConsumePendingAuthorization(ctx, "storefront", "state-abc")
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if ok {
		t.Error("state consumed twice")
	}
}

func TestConsumeUnknownState(t *testing.T) {
	store := testStateStore(t)

	ok, err := store.ConsumePendingAuthorization(context.Background(), "storefront", "never-issued")
	if err != nil {
		t.Fatalf("ConsumePendingAuthorization: %v", err)
	}
	if ok {
		t.Error("unknown state should not consume")
	}
}

func TestStatesAreProviderScoped(t *testing.T) {
	store := testStateStore(t)
	ctx := context.Background()

	if err := store.SavePendingAuthorization(ctx, "storefront", "state-xyz"); err != nil {
		t.Fatalf("SavePendingAuthorization: %v", err)
	}
	t.Cleanup(func() { store.ConsumePendingAuthorization(ctx, "storefront", "state-xyz") })

	ok, err := store.ConsumePendingAuthorization(ctx, "other-provider", "state-xyz")
	if err != nil {
		t.Fatalf("ConsumePendingAuthorization: %v", err)
	}
	if ok {
		t.Error("state leaked across providers")
	}
}

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wa-order-bridge/internal/domain"
)

// testPostgres connects to the database named by TEST_DATABASE_URL and runs
// migrations. Tests are skipped when the variable is unset.
func testPostgres(t *testing.T) *Postgres {
	t.Helper()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := NewPostgres(ctx, databaseURL, zerolog.Nop())
	if err != nil {
		t.Fatalf("connecting to test database: %v", err)
	}
	t.Cleanup(store.Close)

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return store
}

func TestCustomerUpsert(t *testing.T) {
	store := testPostgres(t)
	ctx := context.Background()
	externalID := "test-5511999990001"
	t.Cleanup(func() { cleanupCustomer(t, store, externalID) })

	first, err := store.GetOrCreateCustomer(ctx, externalID, "Ana")
	if err != nil {
		t.Fatalf("GetOrCreateCustomer: %v", err)
	}
	second, err := store.GetOrCreateCustomer(ctx, externalID, "")
	if err != nil {
		t.Fatalf("second GetOrCreateCustomer: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("ids differ: %d vs %d", first.ID, second.ID)
	}
	if second.Name != "Ana" {
		t.Errorf("empty name overwrote stored one: %q", second.Name)
	}
}

func TestFlowStateLifecycle(t *testing.T) {
	store := testPostgres(t)
	ctx := context.Background()
	customer, err := store.GetOrCreateCustomer(ctx, "test-5511999990002", "Bia")
	if err != nil {
		t.Fatalf("GetOrCreateCustomer: %v", err)
	}
	t.Cleanup(func() { cleanupCustomer(t, store, customer.ExternalID) })

	// Absent row reads as idle.
	state, err := store.GetFlowState(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetFlowState: %v", err)
	}
	if state.Kind != domain.FlowIdle {
		t.Errorf("initial state = %v, want idle", state.Kind)
	}

	// Set twice with the same value; the second write must be a no-op.
	awaiting := domain.AwaitingIdentifier()
	for i := 0; i < 2; i++ {
		if err := store.SetFlowState(ctx, customer.ID, awaiting); err != nil {
			t.Fatalf("SetFlowState #%d: %v", i+1, err)
		}
	}
	state, err = store.GetFlowState(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetFlowState: %v", err)
	}
	if state.Kind != domain.FlowAwaitingIdentifier {
		t.Errorf("state = %v, want awaiting identifier", state.Kind)
	}

	if err := store.ClearFlowState(ctx, customer.ID); err != nil {
		t.Fatalf("ClearFlowState: %v", err)
	}
	state, _ = store.GetFlowState(ctx, customer.ID)
	if state.Kind != domain.FlowIdle {
		t.Errorf("state after clear = %v, want idle", state.Kind)
	}

	// Clearing again is harmless.
	if err := store.ClearFlowState(ctx, customer.ID); err != nil {
		t.Errorf("second ClearFlowState: %v", err)
	}
}

func TestMessageDedupe(t *testing.T) {
	store := testPostgres(t)
	ctx := context.Background()
	customer, err := store.GetOrCreateCustomer(ctx, "test-5511999990003", "Ciro")
	if err != nil {
		t.Fatalf("GetOrCreateCustomer: %v", err)
	}
	t.Cleanup(func() { cleanupCustomer(t, store, customer.ExternalID) })

	conversationID, err := store.GetOrCreateOpenConversation(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetOrCreateOpenConversation: %v", err)
	}

	seen, err := store.HasInboundMessage(ctx, "wamid.test-dedupe-1")
	if err != nil {
		t.Fatalf("HasInboundMessage: %v", err)
	}
	if seen {
		t.Fatal("message seen before it was recorded")
	}

	if err := store.AppendMessage(ctx, conversationID, domain.DirectionIn, "oi", "wamid.test-dedupe-1", []byte(`{}`)); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	seen, err = store.HasInboundMessage(ctx, "wamid.test-dedupe-1")
	if err != nil {
		t.Fatalf("HasInboundMessage: %v", err)
	}
	if !seen {
		t.Error("recorded message not reported as seen")
	}

	// Outbound messages carry no provider id and never collide.
	if err := store.AppendMessage(ctx, conversationID, domain.DirectionOut, "olá!", "", nil); err != nil {
		t.Errorf("outbound AppendMessage: %v", err)
	}
}

func TestCredentialUpsertPreservesRefreshToken(t *testing.T) {
	store := testPostgres(t)
	ctx := context.Background()
	const provider = "test-storefront"
	t.Cleanup(func() {
		store.pool.Exec(context.Background(), "DELETE FROM oauth_credentials WHERE provider = $1", provider)
	})

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	initial := &domain.Credential{
		Provider:     provider,
		TokenType:    "Bearer",
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresAt:    &expires,
	}
	if err := store.SaveCredential(ctx, initial); err != nil {
		t.Fatalf("SaveCredential: %v", err)
	}

	// Refresh responses may omit the refresh token; the stored one stays.
	refreshed := &domain.Credential{
		Provider:    provider,
		TokenType:   "Bearer",
		AccessToken: "at-2",
	}
	if err := store.SaveCredential(ctx, refreshed); err != nil {
		t.Fatalf("second SaveCredential: %v", err)
	}

	got, err := store.GetCredential(ctx, provider)
	if err != nil {
		t.Fatalf("GetCredential: %v", err)
	}
	if got.AccessToken != "at-2" {
		t.Errorf("AccessToken = %q", got.AccessToken)
	}
	if got.RefreshToken != "rt-1" {
		t.Errorf("RefreshToken = %q, want preserved rt-1", got.RefreshToken)
	}

	if err := store.SetRefreshFailures(ctx, provider, 2); err != nil {
		t.Fatalf("SetRefreshFailures: %v", err)
	}
	got, _ = store.GetCredential(ctx, provider)
	if got.RefreshFailures != 2 {
		t.Errorf("RefreshFailures = %d", got.RefreshFailures)
	}
}

func TestGetCredentialMissing(t *testing.T) {
	store := testPostgres(t)

	got, err := store.GetCredential(context.Background(), "never-connected")
	if err != nil {
		t.Fatalf("GetCredential: %v", err)
	}
	if got != nil {
		t.Errorf("credential = %+v, want nil", got)
	}
}

func cleanupCustomer(t *testing.T, store *Postgres, externalID string) {
	t.Helper()
	ctx := context.Background()
	store.pool.Exec(ctx, `DELETE FROM messages WHERE conversation_id IN
		(SELECT c.id FROM conversations c JOIN customers cu ON cu.id = c.customer_id WHERE cu.external_id = $1)`, externalID)
	store.pool.Exec(ctx, `DELETE FROM conversations WHERE customer_id IN
		(SELECT id FROM customers WHERE external_id = $1)`, externalID)
	store.pool.Exec(ctx, `DELETE FROM flow_state WHERE customer_id IN
		(SELECT id FROM customers WHERE external_id = $1)`, externalID)
	store.pool.Exec(ctx, "DELETE FROM customers WHERE external_id = $1", externalID)
}

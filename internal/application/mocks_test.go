package application

import (
	"context"
	"fmt"
	"sync"

	"wa-order-bridge/internal/domain"
)

// fakeRepo is an in-memory ports.Repository.
type fakeRepo struct {
	mu          sync.Mutex
	customers   map[string]*domain.Customer
	nextID      int64
	flowStates  map[int64]domain.FlowState
	credentials map[string]*domain.Credential
	inboundIDs  map[string]bool
	messages    []recordedMessage

	failSave bool
}

type recordedMessage struct {
	conversationID int64
	direction      string
	text           string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		customers:   map[string]*domain.Customer{},
		flowStates:  map[int64]domain.FlowState{},
		credentials: map[string]*domain.Credential{},
		inboundIDs:  map[string]bool{},
	}
}

func (r *fakeRepo) GetOrCreateCustomer(_ context.Context, externalID, name string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.customers[externalID]; ok {
		return c, nil
	}
	r.nextID++
	c := &domain.Customer{ID: r.nextID, ExternalID: externalID, Name: name}
	r.customers[externalID] = c
	return c, nil
}

func (r *fakeRepo) GetOrCreateOpenConversation(_ context.Context, customerID int64) (int64, error) {
	return customerID * 100, nil
}

func (r *fakeRepo) TouchConversation(_ context.Context, _ int64) error { return nil }

func (r *fakeRepo) AppendMessage(_ context.Context, conversationID int64, direction, text, providerMessageID string, _ []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if direction == domain.DirectionIn && providerMessageID != "" {
		r.inboundIDs[providerMessageID] = true
	}
	r.messages = append(r.messages, recordedMessage{conversationID, direction, text})
	return nil
}

func (r *fakeRepo) HasInboundMessage(_ context.Context, providerMessageID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inboundIDs[providerMessageID], nil
}

func (r *fakeRepo) GetFlowState(_ context.Context, customerID int64) (domain.FlowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.flowStates[customerID]; ok {
		return s, nil
	}
	return domain.Idle(), nil
}

func (r *fakeRepo) SetFlowState(_ context.Context, customerID int64, state domain.FlowState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flowStates[customerID] = state
	return nil
}

func (r *fakeRepo) ClearFlowState(_ context.Context, customerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.flowStates, customerID)
	return nil
}

func (r *fakeRepo) SaveCredential(_ context.Context, cred *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return fmt.Errorf("save failed")
	}
	stored := *cred
	if stored.RefreshToken == "" {
		if prev, ok := r.credentials[cred.Provider]; ok {
			stored.RefreshToken = prev.RefreshToken
		}
	}
	r.credentials[cred.Provider] = &stored
	return nil
}

func (r *fakeRepo) GetCredential(_ context.Context, provider string) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.credentials[provider]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *fakeRepo) SetRefreshFailures(_ context.Context, provider string, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.credentials[provider]; ok {
		c.RefreshFailures = count
	}
	return nil
}

func (r *fakeRepo) outboundTexts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.messages {
		if m.direction == domain.DirectionOut {
			out = append(out, m.text)
		}
	}
	return out
}

// fakeStateStore is an in-memory ports.StateStore.
type fakeStateStore struct {
	mu     sync.Mutex
	states map[string]bool
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{states: map[string]bool{}}
}

func (s *fakeStateStore) SavePendingAuthorization(_ context.Context, provider, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[provider+":"+state] = true
	return nil
}

func (s *fakeStateStore) ConsumePendingAuthorization(_ context.Context, provider, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := provider + ":" + state
	if !s.states[key] {
		return false, nil
	}
	delete(s.states, key)
	return true, nil
}

// fakeAuth is a scripted ports.StorefrontAuth.
type fakeAuth struct {
	exchangeCred *domain.Credential
	exchangeErr  error
	refreshCred  *domain.Credential
	refreshErr   error
	refreshCalls int
}

func (a *fakeAuth) BuildAuthURL(state string) string {
	return "https://shop.example.com/oauth/authorize?state=" + state
}

func (a *fakeAuth) ExchangeCode(_ context.Context, _ string) (*domain.Credential, error) {
	if a.exchangeErr != nil {
		return nil, a.exchangeErr
	}
	copied := *a.exchangeCred
	return &copied, nil
}

func (a *fakeAuth) Refresh(_ context.Context, _ string) (*domain.Credential, error) {
	a.refreshCalls++
	if a.refreshErr != nil {
		return nil, a.refreshErr
	}
	copied := *a.refreshCred
	return &copied, nil
}

// fakeOrders is a scripted ports.StorefrontOrders.
type fakeOrders struct {
	direct    map[string]map[string]any
	directErr error

	byParam    map[string][]map[string]any
	byParamErr error

	pages    [][]map[string]any
	pagesErr error

	directCalls int
	paramCalls  []string
	pageCalls   int
}

func (o *fakeOrders) FetchOrder(_ context.Context, _ string, identifier domain.OrderIdentifier) (map[string]any, error) {
	o.directCalls++
	if o.directErr != nil {
		return nil, o.directErr
	}
	return o.direct[identifier.String()], nil
}

func (o *fakeOrders) ListOrdersBy(_ context.Context, _, param, _ string) ([]map[string]any, error) {
	o.paramCalls = append(o.paramCalls, param)
	if o.byParamErr != nil {
		return nil, o.byParamErr
	}
	return o.byParam[param], nil
}

func (o *fakeOrders) ListOrdersPage(_ context.Context, _ string, page, _ int) ([]map[string]any, error) {
	o.pageCalls++
	if o.pagesErr != nil {
		return nil, o.pagesErr
	}
	if page > len(o.pages) {
		return nil, nil
	}
	return o.pages[page-1], nil
}

// fakeMessenger records sent texts.
type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentText
	fail bool
}

type sentText struct {
	to   string
	body string
}

func (m *fakeMessenger) SendText(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("send failed")
	}
	m.sent = append(m.sent, sentText{to, body})
	return nil
}

// fakePubSub records published events.
type fakePubSub struct {
	mu     sync.Mutex
	events []domain.ConversationEvent
}

func (p *fakePubSub) Subscribe() chan domain.ConversationEvent {
	return make(chan domain.ConversationEvent, 1)
}

func (p *fakePubSub) Unsubscribe(ch chan domain.ConversationEvent) { close(ch) }

func (p *fakePubSub) Publish(event domain.ConversationEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

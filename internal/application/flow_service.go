package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wa-order-bridge/internal/domain"
	"wa-order-bridge/internal/ports"
)

// InboundText is one user message handed to the flow controller, already
// lifted out of the transport payload.
type InboundText struct {
	MessageID   string
	From        string
	ProfileName string
	Text        string
	Raw         []byte
}

// FlowService drives the order-tracking dialogue: it records the
// conversation, walks the per-customer state machine and sends replies.
type FlowService struct {
	repo      ports.Repository
	messenger ports.Messenger
	orders    *OrderService
	pattern   *domain.IdentifierPattern
	keywords  []string
	events    ports.ConversationPubSub
	metrics   *Metrics
	logger    zerolog.Logger
}

// NewFlowService creates the flow controller.
func NewFlowService(
	repo ports.Repository,
	messenger ports.Messenger,
	orders *OrderService,
	pattern *domain.IdentifierPattern,
	keywords []string,
	events ports.ConversationPubSub,
	metrics *Metrics,
	logger zerolog.Logger,
) *FlowService {
	return &FlowService{
		repo:      repo,
		messenger: messenger,
		orders:    orders,
		pattern:   pattern,
		keywords:  keywords,
		events:    events,
		metrics:   metrics,
		logger:    logger,
	}
}

// HandleInbound processes one user message end to end: dedupe, record,
// transition, reply. State changes are persisted before the reply goes out,
// so a crash in between can only lose a reply, never strand the dialogue.
func (s *FlowService) HandleInbound(ctx context.Context, in InboundText) error {
	duplicate, err := s.repo.HasInboundMessage(ctx, in.MessageID)
	if err != nil {
		return err
	}
	if duplicate {
		s.metrics.InboundMessages.WithLabelValues("duplicate").Inc()
		s.logger.Debug().Str("message_id", in.MessageID).Msg("duplicate delivery dropped")
		return nil
	}

	customer, err := s.repo.GetOrCreateCustomer(ctx, in.From, in.ProfileName)
	if err != nil {
		return err
	}
	conversationID, err := s.repo.GetOrCreateOpenConversation(ctx, customer.ID)
	if err != nil {
		return err
	}
	if err := s.repo.AppendMessage(ctx, conversationID, domain.DirectionIn, in.Text, in.MessageID, in.Raw); err != nil {
		return err
	}
	if err := s.repo.TouchConversation(ctx, conversationID); err != nil {
		return err
	}

	s.events.Publish(domain.ConversationEvent{
		Kind:       domain.EventMessageIn,
		CustomerID: customer.ID,
		ExternalID: customer.ExternalID,
		Text:       in.Text,
		At:         time.Now(),
	})
	s.metrics.InboundMessages.WithLabelValues("handled").Inc()

	state, err := s.repo.GetFlowState(ctx, customer.ID)
	if err != nil {
		return err
	}

	switch state.Kind {
	case domain.FlowAwaitingIdentifier:
		return s.handleAwaiting(ctx, customer, conversationID, in.Text)
	default:
		return s.handleIdle(ctx, customer, conversationID, in.Text)
	}
}

func (s *FlowService) handleIdle(ctx context.Context, customer *domain.Customer, conversationID int64, text string) error {
	// A message that already carries an identifier skips the prompt.
	if identifier, ok := s.pattern.Extract(text); ok {
		return s.lookupAndReply(ctx, customer, conversationID, identifier)
	}

	if s.hasIntent(text) {
		if err := s.repo.SetFlowState(ctx, customer.ID, domain.AwaitingIdentifier()); err != nil {
			return err
		}
		return s.reply(ctx, customer, conversationID, s.promptText())
	}

	return s.reply(ctx, customer, conversationID, s.helpText())
}

func (s *FlowService) handleAwaiting(ctx context.Context, customer *domain.Customer, conversationID int64, text string) error {
	identifier, ok := s.pattern.Extract(text)
	if !ok {
		// Invalid shape re-prompts without touching the stored state.
		return s.reply(ctx, customer, conversationID, s.repromptText())
	}

	if err := s.repo.ClearFlowState(ctx, customer.ID); err != nil {
		return err
	}
	return s.lookupAndReply(ctx, customer, conversationID, identifier)
}

func (s *FlowService) lookupAndReply(ctx context.Context, customer *domain.Customer, conversationID int64, identifier domain.OrderIdentifier) error {
	summary, err := s.orders.Resolve(ctx, identifier)

	var text string
	switch {
	case err == nil:
		text = Describe(summary)
	case errors.Is(err, domain.ErrOrderNotFound):
		text = fmt.Sprintf("Não encontrei nenhum pedido com o código %s. Confira o código e tente novamente.", identifier)
	case errors.Is(err, domain.ErrNotConnected), errors.Is(err, domain.ErrNeedsReauthorization):
		s.logger.Warn().Err(err).Msg("lookup without a usable storefront connection")
		text = "A loja ainda não está conectada ao sistema de pedidos. Tente novamente mais tarde."
	default:
		s.logger.Error().Err(err).Str("identifier", identifier.String()).Msg("order lookup failed")
		text = "Não consegui consultar seu pedido agora. Tente novamente em alguns minutos."
	}

	return s.reply(ctx, customer, conversationID, text)
}

// reply records and publishes the outbound message, then delivers it.
func (s *FlowService) reply(ctx context.Context, customer *domain.Customer, conversationID int64, text string) error {
	if err := s.repo.AppendMessage(ctx, conversationID, domain.DirectionOut, text, "", nil); err != nil {
		return err
	}
	if err := s.repo.TouchConversation(ctx, conversationID); err != nil {
		return err
	}

	s.events.Publish(domain.ConversationEvent{
		Kind:       domain.EventMessageOut,
		CustomerID: customer.ID,
		ExternalID: customer.ExternalID,
		Text:       text,
		At:         time.Now(),
	})

	if err := s.messenger.SendText(ctx, customer.ExternalID, text); err != nil {
		return fmt.Errorf("delivering reply: %w", err)
	}
	return nil
}

func (s *FlowService) hasIntent(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range s.keywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func (s *FlowService) identifierNoun() string {
	if s.pattern.Shape() == domain.ShapeAlphanumeric {
		return fmt.Sprintf("código do pedido (%d caracteres)", s.pattern.Length())
	}
	return fmt.Sprintf("número do pedido (%d dígitos)", s.pattern.Length())
}

func (s *FlowService) promptText() string {
	return fmt.Sprintf("Claro! Me envie o %s para eu consultar o status.", s.identifierNoun())
}

func (s *FlowService) repromptText() string {
	return fmt.Sprintf("Não encontrei um código válido na sua mensagem. Envie o %s, por favor.", s.identifierNoun())
}

func (s *FlowService) helpText() string {
	return fmt.Sprintf("Olá! Posso consultar o status do seu pedido. Envie \"rastrear pedido\" ou o %s.", s.identifierNoun())
}

package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"wa-order-bridge/internal/domain"
	"wa-order-bridge/internal/ports"
)

// Lookup cascade bounds for the paginated fallback scan.
const (
	scanMaxPages = 10
	scanPageSize = 50
)

// filterParams are the query parameter spellings tried against the orders
// endpoint, most common first. Platforms that reject one answer 400, which
// just advances to the next.
var filterParams = []string{"search", "order_number", "orderNumber", "code"}

// Candidate document fields, tried in order.
var (
	numberPaths         = []string{"number", "order_number", "orderNumber", "code", "id"}
	statusPaths         = []string{"orderStatus.name", "order_status.name", "orderStatus", "statusName", "status", "fulfillment_status", "order_status", "state"}
	carrierPaths        = []string{"carrier", "shipping.carrier", "tracking.carrier"}
	trackingNumberPaths = []string{"tracking_number", "tracking_code", "tracking.code", "shipping.tracking_number"}
	trackingURLPaths    = []string{"tracking_url", "tracking.url", "shipping.tracking_url"}
)

// OrderService resolves an order identifier to a status summary through a
// fallback cascade: direct fetch, filtered listings, then a bounded page
// scan.
type OrderService struct {
	orders  ports.StorefrontOrders
	tokens  *TokenService
	metrics *Metrics
	logger  zerolog.Logger
}

// NewOrderService creates an order resolver.
func NewOrderService(orders ports.StorefrontOrders, tokens *TokenService, metrics *Metrics, logger zerolog.Logger) *OrderService {
	return &OrderService{orders: orders, tokens: tokens, metrics: metrics, logger: logger}
}

// Resolve finds the order behind an identifier. Returns ErrOrderNotFound
// when every strategy came back empty, ErrNotConnected or
// ErrNeedsReauthorization when no usable token exists, and a LookupError as
// soon as the provider itself fails.
func (s *OrderService) Resolve(ctx context.Context, identifier domain.OrderIdentifier) (*domain.OrderSummary, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.resolve(ctx, token, identifier)
	switch {
	case err == nil:
		s.metrics.OrderLookups.WithLabelValues("found").Inc()
	case errors.Is(err, domain.ErrOrderNotFound):
		s.metrics.OrderLookups.WithLabelValues("not_found").Inc()
	default:
		s.metrics.OrderLookups.WithLabelValues("error").Inc()
	}
	return summary, err
}

func (s *OrderService) resolve(ctx context.Context, token string, identifier domain.OrderIdentifier) (*domain.OrderSummary, error) {
	// Direct fetch first.
	order, err := s.orders.FetchOrder(ctx, token, identifier)
	if err != nil {
		return nil, err
	}
	if order != nil {
		return summarize(order, identifier), nil
	}

	// Filtered listings. The first query that returns anything wins: a
	// field-level match when one is recognizable, otherwise the top hit,
	// since the provider already filtered by the identifier.
	for _, param := range filterParams {
		candidates, err := s.orders.ListOrdersBy(ctx, token, param, identifier.String())
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			continue
		}
		match := findMatch(candidates, identifier)
		if match == nil {
			match = candidates[0]
		}
		return summarize(match, identifier), nil
	}

	// Bounded page scan as the last resort.
	for page := 1; page <= scanMaxPages; page++ {
		candidates, err := s.orders.ListOrdersPage(ctx, token, page, scanPageSize)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			break
		}
		if match := findMatch(candidates, identifier); match != nil {
			return summarize(match, identifier), nil
		}
	}

	s.logger.Debug().Str("identifier", identifier.String()).Msg("order not found")
	return nil, domain.ErrOrderNotFound
}

// findMatch returns the first candidate whose order number field equals the
// identifier, comparing case-insensitively.
func findMatch(candidates []map[string]any, identifier domain.OrderIdentifier) map[string]any {
	for _, candidate := range candidates {
		if number := domain.FirstString(candidate, numberPaths...); number != "" && identifier.EqualsFold(number) {
			return candidate
		}
	}
	return nil
}

// summarize lifts the displayable fields out of an order document. A
// document without a recognizable status still yields a summary, with the
// status reported as unknown.
func summarize(order map[string]any, identifier domain.OrderIdentifier) *domain.OrderSummary {
	summary := &domain.OrderSummary{
		Number:         domain.FirstString(order, numberPaths...),
		Status:         domain.FirstString(order, statusPaths...),
		Carrier:        domain.FirstString(order, carrierPaths...),
		TrackingNumber: domain.FirstString(order, trackingNumberPaths...),
		TrackingURL:    domain.FirstString(order, trackingURLPaths...),
	}
	if summary.Number == "" {
		summary.Number = identifier.String()
	}
	if summary.Status == "" {
		summary.Status = domain.StatusUnknown
	}
	return summary
}

// Describe renders a summary as the reply text sent back to the customer.
func Describe(summary *domain.OrderSummary) string {
	text := fmt.Sprintf("Pedido %s: %s.", summary.Number, summary.Status)
	if summary.Carrier != "" {
		text += fmt.Sprintf(" Transportadora: %s.", summary.Carrier)
	}
	if summary.TrackingNumber != "" {
		text += fmt.Sprintf(" Código de rastreio: %s.", summary.TrackingNumber)
	}
	if summary.TrackingURL != "" {
		text += fmt.Sprintf(" Acompanhe em: %s", summary.TrackingURL)
	}
	return text
}

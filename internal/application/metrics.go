package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the service counters exposed on /metrics.
type Metrics struct {
	InboundMessages *prometheus.CounterVec
	OrderLookups    *prometheus.CounterVec
	TokenRefreshes  *prometheus.CounterVec
}

// NewMetrics registers the counters on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		InboundMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_inbound_messages_total",
			Help: "Inbound webhook messages by handling outcome.",
		}, []string{"outcome"}),
		OrderLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_order_lookups_total",
			Help: "Order lookups by outcome.",
		}, []string{"outcome"}),
		TokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_token_refreshes_total",
			Help: "Storefront token refreshes by outcome.",
		}, []string{"outcome"}),
	}
}

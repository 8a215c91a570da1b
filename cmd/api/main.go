package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"wa-order-bridge/internal/application"
	"wa-order-bridge/internal/config"
	"wa-order-bridge/internal/domain"
	"wa-order-bridge/internal/infrastructure/pubsub"
	"wa-order-bridge/internal/infrastructure/redisstore"
	"wa-order-bridge/internal/infrastructure/repository"
	"wa-order-bridge/internal/infrastructure/storefront"
	"wa-order-bridge/internal/infrastructure/whatsapp"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// maxWebhookBody bounds how much of a webhook delivery is read.
const maxWebhookBody = 1 << 20

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg(".env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.AllowUnsignedWebhooks {
		logger.Warn().Msg("Webhook signature verification is DISABLED; never run like this in production")
	}

	ctx := context.Background()

	// Persistence
	store, err := repository.NewPostgres(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	states, err := redisstore.NewStateStore(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer states.Close()

	// Outbound clients
	messenger := whatsapp.NewClient(
		whatsapp.GraphBaseURL(cfg.WhatsAppGraphVersion),
		cfg.WhatsAppPhoneNumberID,
		cfg.WhatsAppToken,
		cfg.HTTPTimeout,
		logger,
	)
	verifier := whatsapp.NewVerifier(cfg.WebhookSigningSecret, cfg.AllowUnsignedWebhooks)
	shop := storefront.NewClient(cfg, logger)

	pattern, err := domain.NewIdentifierPattern(cfg.IdentifierShape, cfg.IdentifierLength)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid identifier configuration")
	}

	// Application services
	registry := prometheus.NewRegistry()
	metrics := application.NewMetrics(registry)
	events := pubsub.NewConversationPubSub(logger)

	tokenService := application.NewTokenService(store, states, shop, storefront.Provider, metrics, logger)
	orderService := application.NewOrderService(shop, tokenService, metrics, logger)
	flowService := application.NewFlowService(
		store, messenger, orderService, pattern, cfg.IntentKeywords, events, metrics, logger,
	)

	// Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Get("/webhook", webhookVerifyHandler(cfg.WhatsAppVerifyToken, logger))
	r.Post("/webhook", webhookHandler(flowService, verifier, metrics, logger))

	r.Get("/storefront/connect", connectHandler(tokenService, logger))
	r.Get("/storefront/callback", callbackHandler(tokenService, logger))

	r.Get("/events", eventsHandler(events, logger))

	logger.Info().Str("port", cfg.Port).Msg("Starting order bridge")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

// webhookVerifyHandler answers the platform's subscription handshake: echo
// hub.challenge when the verify token matches.
func webhookVerifyHandler(verifyToken string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == verifyToken {
			w.Write([]byte(q.Get("hub.challenge")))
			return
		}
		logger.Warn().Msg("Webhook verification rejected")
		http.Error(w, "verification failed", http.StatusForbidden)
	}
}

// webhookHandler receives message deliveries. It always answers 200 for
// payloads it could read, so the platform does not retry messages the
// bridge chose to skip or failed to handle downstream.
func webhookHandler(flow *application.FlowService, verifier *whatsapp.Verifier, metrics *application.Metrics, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			http.Error(w, "unreadable body", http.StatusBadRequest)
			return
		}

		if !verifier.Verify(body, r.Header.Get("X-Hub-Signature-256")) {
			metrics.InboundMessages.WithLabelValues("bad_signature").Inc()
			logger.Warn().Msg("Webhook signature rejected")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		msg, ok, err := whatsapp.ParseInbound(body)
		if err != nil {
			logger.Warn().Err(err).Msg("Malformed webhook payload")
			w.WriteHeader(http.StatusOK)
			return
		}
		if !ok {
			metrics.InboundMessages.WithLabelValues("skipped").Inc()
			w.WriteHeader(http.StatusOK)
			return
		}

		in := application.InboundText{
			MessageID:   msg.MessageID,
			From:        msg.From,
			ProfileName: msg.ProfileName,
			Text:        msg.Text,
			Raw:         body,
		}
		if err := flow.HandleInbound(r.Context(), in); err != nil {
			metrics.InboundMessages.WithLabelValues("error").Inc()
			logger.Error().Err(err).Str("message_id", msg.MessageID).Msg("Failed to handle inbound message")
		}
		w.WriteHeader(http.StatusOK)
	}
}

// connectHandler starts the storefront authorization flow and redirects the
// operator to the provider's consent page.
func connectHandler(tokens *application.TokenService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authURL, err := tokens.StartAuthorization(r.Context())
		if err != nil {
			logger.Error().Err(err).Msg("Failed to start authorization")
			http.Error(w, "failed to start authorization", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// callbackHandler finishes the authorization flow.
func callbackHandler(tokens *application.TokenService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if errCode := q.Get("error"); errCode != "" {
			logger.Warn().Str("error", errCode).Msg("Authorization denied by provider")
			http.Error(w, "authorization denied: "+errCode, http.StatusBadRequest)
			return
		}

		state := q.Get("state")
		code := q.Get("code")
		if state == "" || code == "" {
			http.Error(w, "state and code are required", http.StatusBadRequest)
			return
		}

		if err := tokens.CompleteAuthorization(r.Context(), state, code); err != nil {
			logger.Error().Err(err).Msg("Failed to complete authorization")
			http.Error(w, "authorization failed", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Storefront connected. You can close this window."))
	}
}

// eventsHandler streams conversation events as server-sent events.
func eventsHandler(events *pubsub.ConversationPubSub, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		ch := events.Subscribe()
		defer events.Unsubscribe(ch)

		for {
			select {
			case <-r.Context().Done():
				return
			case event, open := <-ch:
				if !open {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					logger.Error().Err(err).Msg("Failed to encode event")
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, payload)
				flusher.Flush()
			}
		}
	}
}

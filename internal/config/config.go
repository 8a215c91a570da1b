package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"wa-order-bridge/internal/domain"
)

// Config carries every runtime setting the service reads from the
// environment. Loaded once at startup and passed down explicitly.
type Config struct {
	Port string

	// WhatsApp Cloud API
	WhatsAppGraphVersion  string
	WhatsAppPhoneNumberID string
	WhatsAppToken         string
	WhatsAppVerifyToken   string
	WebhookSigningSecret  string

	// AllowUnsignedWebhooks disables signature verification. Intended for
	// local development only and logged loudly when set.
	AllowUnsignedWebhooks bool

	// Storefront OAuth + REST API
	StorefrontBaseURL      string
	StorefrontAuthURL      string
	StorefrontTokenURL     string
	StorefrontClientID     string
	StorefrontClientSecret string
	StorefrontRedirectURI  string
	StorefrontScopes       string

	// Order identifier shape
	IdentifierShape  domain.IdentifierShape
	IdentifierLength int

	// IntentKeywords trigger the order-tracking flow from the idle state.
	IntentKeywords []string

	DatabaseURL string
	RedisURL    string

	HTTPTimeout time.Duration
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port: envOrDefault("PORT", "8080"),

		WhatsAppGraphVersion:  envOrDefault("WHATSAPP_GRAPH_VERSION", "v20.0"),
		WhatsAppPhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		WhatsAppToken:         os.Getenv("WHATSAPP_TOKEN"),
		WhatsAppVerifyToken:   os.Getenv("WHATSAPP_VERIFY_TOKEN"),
		WebhookSigningSecret:  os.Getenv("WHATSAPP_APP_SECRET"),
		AllowUnsignedWebhooks: envBool("ALLOW_UNSIGNED_WEBHOOKS", false),

		StorefrontBaseURL:      strings.TrimRight(os.Getenv("STOREFRONT_BASE_URL"), "/"),
		StorefrontAuthURL:      os.Getenv("STOREFRONT_AUTH_URL"),
		StorefrontTokenURL:     os.Getenv("STOREFRONT_TOKEN_URL"),
		StorefrontClientID:     os.Getenv("STOREFRONT_CLIENT_ID"),
		StorefrontClientSecret: os.Getenv("STOREFRONT_CLIENT_SECRET"),
		StorefrontRedirectURI:  os.Getenv("STOREFRONT_REDIRECT_URI"),
		StorefrontScopes:       envOrDefault("STOREFRONT_SCOPES", "read_orders"),

		IdentifierShape:  domain.IdentifierShape(envOrDefault("ORDER_IDENTIFIER_SHAPE", string(domain.ShapeNumeric))),
		IdentifierLength: envInt("ORDER_IDENTIFIER_LENGTH", 13),

		IntentKeywords: splitCSV(envOrDefault("INTENT_KEYWORDS", "pedido,order,encomenda,tracking,rastrear")),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    envOrDefault("REDIS_URL", "redis://localhost:6379/0"),

		HTTPTimeout: envDuration("HTTP_TIMEOUT", 15*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	required := map[string]string{
		"WHATSAPP_PHONE_NUMBER_ID": c.WhatsAppPhoneNumberID,
		"WHATSAPP_TOKEN":           c.WhatsAppToken,
		"WHATSAPP_VERIFY_TOKEN":    c.WhatsAppVerifyToken,
		"STOREFRONT_BASE_URL":      c.StorefrontBaseURL,
		"STOREFRONT_AUTH_URL":      c.StorefrontAuthURL,
		"STOREFRONT_TOKEN_URL":     c.StorefrontTokenURL,
		"STOREFRONT_CLIENT_ID":     c.StorefrontClientID,
		"STOREFRONT_CLIENT_SECRET": c.StorefrontClientSecret,
		"STOREFRONT_REDIRECT_URI":  c.StorefrontRedirectURI,
		"DATABASE_URL":             c.DatabaseURL,
	}
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if c.WebhookSigningSecret == "" && !c.AllowUnsignedWebhooks {
		return fmt.Errorf("WHATSAPP_APP_SECRET is required unless ALLOW_UNSIGNED_WEBHOOKS=true")
	}

	switch c.IdentifierShape {
	case domain.ShapeNumeric, domain.ShapeAlphanumeric:
	default:
		return fmt.Errorf("invalid ORDER_IDENTIFIER_SHAPE %q: must be %q or %q",
			c.IdentifierShape, domain.ShapeNumeric, domain.ShapeAlphanumeric)
	}
	if c.IdentifierLength < 1 {
		return fmt.Errorf("invalid ORDER_IDENTIFIER_LENGTH %d: must be positive", c.IdentifierLength)
	}

	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, strings.ToLower(trimmed))
		}
	}
	return out
}

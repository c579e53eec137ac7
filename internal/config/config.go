package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// ───── Infrastructure ─────
	DatabaseURL  string   `env:"DATABASE_URL,required,notEmpty"`
	RedisAddr    string   `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// ───── Runtime ─────
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	ObsHTTPAddr string `env:"OBS_HTTP_ADDR" envDefault:":9090"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"biolink"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// ───── JWT Security ─────
	JWTSecret   string `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer   string `env:"JWT_ISSUER" envDefault:"biolink-auth"`
	JWTAudience string `env:"JWT_AUDIENCE" envDefault:"biolink-clients"`

	// ───── Public page ─────
	PageTimeout       time.Duration `env:"PAGE_TIMEOUT" envDefault:"8s"`
	SocialTimeout     time.Duration `env:"SOCIAL_TIMEOUT" envDefault:"4s"`
	PageMaxAttempts   int           `env:"PAGE_MAX_ATTEMPTS" envDefault:"3"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"120"`
	RateLimitWindow   string        `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	ClickIPHashKey    string        `env:"CLICK_IP_HASH_KEY"`
	ProfileCacheTTL   time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"10m"`

	// ───── Billing ─────
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	StripePriceID       string `env:"STRIPE_PRICE_ID"`
	CheckoutSuccessURL  string `env:"CHECKOUT_SUCCESS_URL" envDefault:"http://localhost:5173/dashboard?upgraded=1"`
	CheckoutCancelURL   string `env:"CHECKOUT_CANCEL_URL" envDefault:"http://localhost:5173/dashboard"`

	// ───── Observability ─────
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	TracingEnabled bool   `env:"TRACING_ENABLED" envDefault:"false"`
	JaegerURL      string `env:"JAEGER_URL" envDefault:"http://localhost:14268/api/traces"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.HTTPAddr = fixPort(cfg.HTTPAddr)
	cfg.ObsHTTPAddr = fixPort(cfg.ObsHTTPAddr)
	return &cfg, nil
}

// BillingEnabled reports whether Stripe is configured.
func (c *Config) BillingEnabled() bool {
	return c.StripeSecretKey != "" && c.StripeWebhookSecret != "" && c.StripePriceID != ""
}

func fixPort(port string) string {
	if port != "" && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

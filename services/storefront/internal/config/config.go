package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/malikadeel12/TheGiftOasis-Frontend/pkg/config"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/database"
)

// Store backends for persisted client state.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// Client state persistence
	StoreBackend   string `env:"STORE_BACKEND" envDefault:"memory"`
	ClientStateTTL int    `env:"CLIENT_STATE_TTL_HOURS" envDefault:"720"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"storefront"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`

	// Remote storefront API
	APIBaseURL    string `env:"API_BASE_URL" envDefault:"https://thegiftoasis-backend.onrender.com/api"`
	UploadBaseURL string `env:"UPLOAD_BASE_URL" envDefault:""`
	JWTSecret     string `env:"JWT_SECRET" envDefault:""`

	HTTPClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"30s"`
	HTTPMaxRetries    int           `env:"HTTP_CLIENT_MAX_RETRIES" envDefault:"2"`

	// Circuit breaker around the remote API
	CBTimeout      time.Duration `env:"CB_TIMEOUT" envDefault:"30s"`
	CBFailureRatio float64       `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32        `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Checkout
	UploadTimeout   time.Duration `env:"CHECKOUT_UPLOAD_TIMEOUT" envDefault:"30s"`
	OrderTimeout    time.Duration `env:"CHECKOUT_ORDER_TIMEOUT" envDefault:"30s"`
	MaxScreenshotMB int           `env:"MAX_SCREENSHOT_MB" envDefault:"5"`
	ConfirmationTTL int           `env:"CONFIRMATION_TTL_SECONDS" envDefault:"600"`

	// Messaging handoff
	WhatsAppNumber  string `env:"WHATSAPP_NUMBER" envDefault:"923001234567"`
	WhatsAppBaseURL string `env:"WHATSAPP_BASE_URL" envDefault:"https://wa.me"`
	HandoffDelayMS  int    `env:"HANDOFF_DELAY_MS" envDefault:"1500"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Rate limiting of checkout submissions, per client
	RateLimitPerMinute int `env:"RATE_LIMIT_CHECKOUT_PER_MINUTE" envDefault:"10"`
	RateLimitBurst     int `env:"RATE_LIMIT_CHECKOUT_BURST" envDefault:"3"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.UploadBaseURL == "" {
		cfg.UploadBaseURL = cfg.APIBaseURL
	}
	cfg.UploadBaseURL = strings.TrimRight(cfg.UploadBaseURL, "/")
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.StoreBackend {
	case StoreMemory, StoreRedis, StorePostgres:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of memory, redis, postgres, got %q", c.StoreBackend)
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.WhatsAppNumber == "" {
		return fmt.Errorf("WHATSAPP_NUMBER is required")
	}
	if c.HandoffDelayMS < 0 {
		return fmt.Errorf("HANDOFF_DELAY_MS must not be negative")
	}
	if c.UploadTimeout < 0 || c.OrderTimeout < 0 {
		return fmt.Errorf("checkout timeouts must not be negative")
	}
	if c.MaxScreenshotMB < 1 {
		return fmt.Errorf("MAX_SCREENSHOT_MB must be at least 1")
	}
	if c.ConfirmationTTL < 1 {
		return fmt.Errorf("CONFIRMATION_TTL_SECONDS must be at least 1")
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0, 1]")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.RateLimitPerMinute < 1 || c.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit settings must be positive")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ClientStateTTLDuration is how long persisted client state is kept. Zero
// keeps it forever.
func (c *Config) ClientStateTTLDuration() time.Duration {
	return time.Duration(c.ClientStateTTL) * time.Hour
}

// HandoffDelay is the pause before the messaging handoff is delivered.
func (c *Config) HandoffDelay() time.Duration {
	return time.Duration(c.HandoffDelayMS) * time.Millisecond
}

// ConfirmationTTLDuration is how long an unread order confirmation is kept.
func (c *Config) ConfirmationTTLDuration() time.Duration {
	return time.Duration(c.ConfirmationTTL) * time.Second
}

// MaxScreenshotBytes is the upload size limit in bytes.
func (c *Config) MaxScreenshotBytes() int64 {
	return int64(c.MaxScreenshotMB) << 20
}

// Redis returns the Redis connection settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// Postgres returns the PostgreSQL connection settings.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPassword,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSLMode,
		MaxConns:        c.PostgresMaxConns,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

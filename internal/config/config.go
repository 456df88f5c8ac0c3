package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"SERVICE_VERSION" envDefault:"0.1.0"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8010"`

	// Browser origins allowed to call the API.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Auth. Requests carry either a gateway-injected X-User-ID or a bearer token.
	JWTSecret string `env:"JWT_SECRET" envDefault:"change-me-in-production"`

	// Redis (sessions, request fences, event de-duplication)
	RedisAddr       string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass       string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	SessionTTLHours int    `env:"SESSION_TTL_HOURS" envDefault:"168"`

	// PostgreSQL (vouchers)
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`

	// Kafka
	KafkaBrokers         []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID         string   `env:"KAFKA_GROUP_ID" envDefault:"storefront"`
	KafkaConsumerEnabled bool     `env:"KAFKA_CONSUMER_ENABLED" envDefault:"true"`
	KafkaDLQPrefix       string   `env:"KAFKA_DLQ_PREFIX" envDefault:"storefront.dlq"`

	// Cart backend
	BackendBaseURL       string        `env:"BACKEND_BASE_URL" envDefault:"http://localhost:8000/api"`
	BackendTimeout       time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
	BackendMaxRetries    int           `env:"BACKEND_MAX_RETRIES" envDefault:"2"`
	BackendDetailWorkers int           `env:"BACKEND_DETAIL_WORKERS" envDefault:"8"`

	// Discounts
	PromoCodes         string  `env:"PROMO_CODES" envDefault:"WELCOME10:10,SAVE15:15,SAVE20:20"`
	SeedSampleVouchers bool    `env:"SEED_SAMPLE_VOUCHERS" envDefault:"false"`
	PromoRateLimitRPS  float64 `env:"PROMO_RATE_LIMIT_RPS" envDefault:"1"`
	PromoRateBurst     int     `env:"PROMO_RATE_LIMIT_BURST" envDefault:"5"`

	// Profiling
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`

	// Tracing
	OTLPEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TraceSampleRate float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PprofCIDRs returns the profiler allowlist, or nil when profiling is off.
func (c *Config) PprofCIDRs() []string {
	if !c.PprofEnabled {
		return nil
	}
	return c.PprofAllowedCIDRs
}

// SessionTTL is how long an idle session is kept.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.SessionTTLHours < 1 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive, got %d", c.SessionTTLHours)
	}
	u, err := url.Parse(c.BackendBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid BACKEND_BASE_URL: %q", c.BackendBaseURL)
	}
	if c.BackendDetailWorkers < 1 {
		return fmt.Errorf("BACKEND_DETAIL_WORKERS must be at least 1, got %d", c.BackendDetailWorkers)
	}
	if c.PromoRateLimitRPS <= 0 || c.PromoRateBurst < 1 {
		return fmt.Errorf("promo rate limit must be positive (rps=%v burst=%d)", c.PromoRateLimitRPS, c.PromoRateBurst)
	}
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATE must be within [0,1], got %v", c.TraceSampleRate)
	}
	if c.Environment == "production" && c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

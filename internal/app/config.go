package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/pricing"
	"github.com/xenking/storefront/internal/storage/memory"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	Backend        string        `default:"memory" usage:"Storage backend: memory or postgres"`
	DatabaseURL    string        `usage:"PostgreSQL connection URL (SHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL   string        `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	RequestTimeout time.Duration `default:"10s" usage:"Per-request handler timeout" flag:"request-timeout"`
	Admin          AdminConfig
	Pricing        PricingConfig
	Simulation     SimulationConfig
	Breaker        BreakerConfig
	Session        SessionConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	RateLimit      RateLimitConfig
	CORS           CORSConfig
	Graceful       GracefulConfig
}

// AdminConfig controls admin API key authentication.
type AdminConfig struct {
	Pepper string `usage:"HMAC pepper for API key hashing (SHOP_ADMIN_PEPPER)"`
	// SeedKey is registered at startup by the memory backend.
	SeedKey string `usage:"Admin API key registered at startup (memory backend only)" flag:"admin-seed-key"`
}

// PricingConfig holds store pricing parameters as decimal strings.
type PricingConfig struct {
	TaxRate               string `default:"0.085" usage:"Tax rate applied after discount"`
	ShippingCost          string `default:"200" usage:"Flat shipping cost when no method is selected"`
	FreeShippingThreshold string `default:"2000" usage:"Subtotal from which shipping is free"`
	MinimumOrder          string `default:"500" usage:"Minimum subtotal required to check out"`
	ApplyTax              bool   `default:"true" usage:"Charge tax"`
	ApplyShipping         bool   `default:"true" usage:"Charge shipping"`
}

// SimulationConfig injects latency and failures into the memory backend.
type SimulationConfig struct {
	MinLatency  time.Duration `default:"0s" usage:"Minimum simulated latency"`
	MaxLatency  time.Duration `default:"0s" usage:"Maximum simulated latency"`
	FailureRate float64       `default:"0" usage:"Probability of a simulated failure, 0..1"`
}

// BreakerConfig guards the payment gateway.
type BreakerConfig struct {
	MaxFailures uint32        `default:"5" usage:"Consecutive failures that open the payment breaker"`
	OpenTimeout time.Duration `default:"30s" usage:"How long the payment breaker stays open"`
	CallTimeout time.Duration `default:"5s" usage:"Timeout of a single payment call"`
}

// SessionConfig controls checkout session expiry.
type SessionConfig struct {
	TTL           time.Duration `default:"30m" usage:"Idle checkout session lifetime"`
	SweepInterval time.Duration `default:"1m" usage:"Interval between expired session sweeps"`
}

// RedisConfig enables the cart cache when Addr is set.
type RedisConfig struct {
	Addr     string        `default:"" usage:"Redis address; empty disables the cart cache"`
	Password string        `default:"" usage:"Redis password"`
	DB       int           `default:"0" usage:"Redis database"`
	Prefix   string        `default:"storefront:" usage:"Cart cache key prefix"`
	TTL      time.Duration `default:"10m" usage:"Cart cache TTL"`
	Jitter   time.Duration `default:"1m" usage:"Random extra TTL added to each cache entry"`
}

// KafkaConfig enables order event publishing when Brokers is set.
type KafkaConfig struct {
	Brokers []string `usage:"Kafka brokers; empty logs events instead"`
	Topic   string   `default:"storefront.order.placed" usage:"Topic for order placed events"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window, 0 disables"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required: set SHOP_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown backend %q: want %q or %q", c.Backend, BackendMemory, BackendPostgres)
	}
	if c.Simulation.FailureRate < 0 || c.Simulation.FailureRate > 1 {
		return errors.Errorf("simulation failure rate %v out of range [0, 1]", c.Simulation.FailureRate)
	}
	if c.Simulation.MaxLatency < c.Simulation.MinLatency {
		return errors.New("simulation max latency is below min latency")
	}
	if _, err := c.Pricing.Config(); err != nil {
		return err
	}
	return nil
}

// Config parses the pricing parameters.
func (p PricingConfig) Config() (pricing.Config, error) {
	parse := func(name, v string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "parse pricing %s", name)
		}
		if d.IsNegative() {
			return decimal.Zero, errors.Errorf("pricing %s is negative", name)
		}
		return d, nil
	}

	cfg := pricing.Config{ApplyTax: p.ApplyTax, ApplyShipping: p.ApplyShipping}
	var err error
	if cfg.TaxRate, err = parse("tax rate", p.TaxRate); err != nil {
		return cfg, err
	}
	if cfg.ShippingCost, err = parse("shipping cost", p.ShippingCost); err != nil {
		return cfg, err
	}
	if cfg.FreeShippingThreshold, err = parse("free shipping threshold", p.FreeShippingThreshold); err != nil {
		return cfg, err
	}
	if cfg.MinimumOrder, err = parse("minimum order", p.MinimumOrder); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (s SimulationConfig) memory() memory.SimulationConfig {
	return memory.SimulationConfig{
		MinLatency:  s.MinLatency,
		MaxLatency:  s.MaxLatency,
		FailureRate: s.FailureRate,
	}
}

func (b BreakerConfig) payment() payment.BreakerConfig {
	return payment.BreakerConfig{
		MaxFailures: b.MaxFailures,
		OpenTimeout: b.OpenTimeout,
		CallTimeout: b.CallTimeout,
	}
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's SHOP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

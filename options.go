package embedmux

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/embedmux/embedmux/pkg/cache"
	"github.com/embedmux/embedmux/pkg/provider"
)

// ProviderConfig configures one provider by type name.
type ProviderConfig = provider.Config

// providerInstance pairs a pre-built provider with its registration name.
type providerInstance struct {
	Name     string
	Provider provider.Provider
}

// RateLimitConfig holds client-side rate limiting configuration.
type RateLimitConfig struct {
	// Enabled turns per-provider rate limiting on.
	Enabled bool
	// RequestsPerMinute is the sustained request rate per provider.
	RequestsPerMinute int
	// BurstSize is the short-term burst allowance.
	BurstSize int
}

// ClientConfig holds all configuration for the embedmux client.
type ClientConfig struct {
	Providers         []ProviderConfig
	ProviderInstances []providerInstance

	Cache    cache.Cache
	CacheTTL time.Duration

	RateLimit RateLimitConfig

	HTTPClient *http.Client
	Timeout    time.Duration

	Logger *slog.Logger

	// MetricsEnabled controls Prometheus instrumentation.
	MetricsEnabled bool
	// TracingEnabled controls OpenTelemetry span creation.
	TracingEnabled bool
}

func defaultConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:        30 * time.Second,
		CacheTTL:       24 * time.Hour,
		Logger:         slog.Default(),
		MetricsEnabled: true,
		TracingEnabled: true,
	}
}

// Option configures the client.
type Option func(*ClientConfig)

// WithProvider adds a provider created from configuration through the registry.
func WithProvider(cfg ProviderConfig) Option {
	return func(c *ClientConfig) {
		c.Providers = append(c.Providers, cfg)
	}
}

// WithProviderInstance adds a pre-built provider under the given name.
func WithProviderInstance(name string, p provider.Provider) Option {
	return func(c *ClientConfig) {
		c.ProviderInstances = append(c.ProviderInstances, providerInstance{Name: name, Provider: p})
	}
}

// WithCache enables response caching on the given backend.
func WithCache(cc cache.Cache) Option {
	return func(c *ClientConfig) {
		c.Cache = cc
	}
}

// WithCacheTTL sets the TTL for cached embedding responses.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *ClientConfig) {
		if ttl > 0 {
			c.CacheTTL = ttl
		}
	}
}

// WithRateLimit enables per-provider rate limiting.
func WithRateLimit(rpm, burst int) Option {
	return func(c *ClientConfig) {
		c.RateLimit = RateLimitConfig{Enabled: true, RequestsPerMinute: rpm, BurstSize: burst}
	}
}

// WithHTTPClient sets a custom HTTP client for provider calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *ClientConfig) {
		c.HTTPClient = hc
	}
}

// WithTimeout sets the request timeout used when no custom HTTP client is given.
func WithTimeout(d time.Duration) Option {
	return func(c *ClientConfig) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ClientConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithMetrics toggles Prometheus instrumentation.
func WithMetrics(enabled bool) Option {
	return func(c *ClientConfig) {
		c.MetricsEnabled = enabled
	}
}

// WithTracing toggles OpenTelemetry span creation.
func WithTracing(enabled bool) Option {
	return func(c *ClientConfig) {
		c.TracingEnabled = enabled
	}
}

package embedmux

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/embedmux/embedmux/internal/httpclient"
	"github.com/embedmux/embedmux/internal/metrics"
	"github.com/embedmux/embedmux/internal/observability"
	"github.com/embedmux/embedmux/internal/ratelimit"
	"github.com/embedmux/embedmux/pkg/errors"
	"github.com/embedmux/embedmux/pkg/provider"
	"github.com/embedmux/embedmux/pkg/types"
	"github.com/embedmux/embedmux/providers"
)

// Client is the main entry point for embedmux.
// It resolves models to providers, executes embedding requests through the
// classifying HTTP layer, and optionally caches and rate-limits them.
//
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	handles []*providerHandle
	byName  map[string]*providerHandle
	http    *httpclient.Client
	httpc   *http.Client
	limiter *ratelimit.Limiter
	config  *ClientConfig
	logger  *slog.Logger

	// Set by the config-file constructors; closed with the client.
	watcher   io.Closer
	secretSrc io.Closer

	mu sync.RWMutex
}

// providerHandle holds a provider that may not be materialized yet.
// Materialization happens exactly once, either through Init or lazily on
// first use; concurrent first calls are serialized by the sync.Once.
type providerHandle struct {
	name string
	cfg  provider.Config

	once  sync.Once
	ready atomic.Bool
	prov  provider.Provider
	err   error
}

// materialize builds the provider from the registry on first call.
// lazy marks whether this happened outside an explicit Init.
func (h *providerHandle) materialize(logger *slog.Logger, lazy bool) (provider.Provider, error) {
	h.once.Do(func() {
		defer h.ready.Store(true)
		if h.prov != nil {
			return // pre-built instance
		}
		if lazy {
			logger.Warn("provider initialized lazily on first use; call Init for eager initialization",
				"provider", h.name)
		}
		h.prov, h.err = providers.Create(h.cfg)
	})
	return h.prov, h.err
}

// live reports whether the provider has been built and is usable. It never
// triggers materialization.
func (h *providerHandle) live() bool {
	return h.ready.Load() && h.err == nil
}

// New creates a new embedmux client with the given options.
//
// Example:
//
//	client, err := embedmux.New(
//	    embedmux.WithProvider(embedmux.ProviderConfig{
//	        Name:   "openai",
//	        Type:   "openai",
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	        Models: []string{"text-embedding-3-small"},
//	    }),
//	)
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: cfg.Timeout,
		}
	}

	c := &Client{
		byName: make(map[string]*providerHandle),
		http:   httpclient.New(hc),
		httpc:  hc,
		config: cfg,
		logger: cfg.Logger,
	}

	if cfg.RateLimit.Enabled {
		c.limiter = ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
	}

	for _, inst := range cfg.ProviderInstances {
		if _, exists := c.byName[inst.Name]; exists {
			return nil, errors.NewConfigurationError(inst.Name, "",
				fmt.Sprintf("duplicate provider name %q", inst.Name))
		}
		h := &providerHandle{name: inst.Name, prov: inst.Provider}
		h.ready.Store(true)
		c.handles = append(c.handles, h)
		c.byName[inst.Name] = h
	}

	if err := c.setFileProviders(cfg.Providers); err != nil {
		return nil, err
	}

	return c, nil
}

// setFileProviders replaces the declarative provider set, keeping pre-built
// instances in place. It validates the whole set before swapping so a bad
// reload never leaves the client without its current providers.
func (c *Client) setFileProviders(cfgs []ProviderConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	handles := make([]*providerHandle, 0, len(c.handles)+len(cfgs))
	byName := make(map[string]*providerHandle, len(c.handles)+len(cfgs))
	for _, h := range c.handles {
		if h.cfg.Type == "" { // pre-built instance, not declaratively managed
			handles = append(handles, h)
			byName[h.name] = h
		}
	}

	for _, pcfg := range cfgs {
		if pcfg.Name == "" {
			pcfg.Name = pcfg.Type
		}
		if _, exists := byName[pcfg.Name]; exists {
			return errors.NewConfigurationError(pcfg.Name, "",
				fmt.Sprintf("duplicate provider name %q", pcfg.Name))
		}
		// Unregistered types fail here, not on first use.
		if _, ok := providers.Get(pcfg.Type); !ok {
			return errors.NewNotRegisteredError(pcfg.Type,
				fmt.Sprintf("unknown provider type: %s (available: %v)", pcfg.Type, providers.List()))
		}
		h := &providerHandle{name: pcfg.Name, cfg: pcfg}
		handles = append(handles, h)
		byName[pcfg.Name] = h
	}

	if len(handles) == 0 {
		return errors.NewConfigurationError("", "", "at least one provider must be configured")
	}

	c.handles = handles
	c.byName = byName
	return nil
}

// Init materializes all configured providers eagerly. Calling Init is
// optional; providers not initialized here are built lazily on first use
// with a logged warning.
func (c *Client) Init() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, h := range c.handles {
		if _, err := h.materialize(c.logger, false); err != nil {
			return fmt.Errorf("initialize provider %s: %w", h.name, err)
		}
	}
	return nil
}

// resolve finds the handle serving the given model: an explicit provider
// name wins, otherwise the first provider configured with the model, then
// the first already-built provider claiming it via SupportsModel, and only
// then providers that have to be constructed to answer.
func (c *Client) resolve(providerName, model string) (*providerHandle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if providerName != "" {
		h, ok := c.byName[providerName]
		if !ok {
			return nil, errors.NewNotRegisteredError(providerName,
				fmt.Sprintf("provider %q is not configured", providerName))
		}
		return h, nil
	}

	for _, h := range c.handles {
		for _, m := range h.cfg.Models {
			if m == model {
				return h, nil
			}
		}
	}

	// Ask providers that already exist before constructing new ones:
	// materializing just to answer a support query can be expensive (the
	// bedrock factory resolves AWS credentials, for one).
	for _, h := range c.handles {
		if h.live() && h.prov.SupportsModel(model) {
			return h, nil
		}
	}
	for _, h := range c.handles {
		if h.ready.Load() {
			continue
		}
		prov, err := h.materialize(c.logger, true)
		if err != nil {
			c.logger.Warn("provider failed to initialize during model resolution",
				"provider", h.name, "model", model, "error", err)
			continue
		}
		if prov.SupportsModel(model) {
			return h, nil
		}
	}
	return nil, errors.NewNotRegisteredError("",
		fmt.Sprintf("no configured provider supports model %q", model))
}

// Embed executes an embedding request and returns one vector per input,
// in input order. All failures surface as typed errors from pkg/errors.
func (c *Client) Embed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	return c.EmbedWith(ctx, "", req)
}

// EmbedWith is Embed pinned to a named provider, bypassing model resolution.
func (c *Client) EmbedWith(ctx context.Context, providerName string, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	if req == nil {
		return nil, errors.NewInvalidRequestError("", "", "request cannot be nil")
	}
	if err := req.Validate(); err != nil {
		return nil, errors.NewInvalidRequestError("", req.Model, err.Error())
	}

	h, err := c.resolve(providerName, req.Model)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	start := time.Now()

	var span trace.Span
	if c.config.TracingEnabled {
		ctx, span = observability.StartEmbedSpan(ctx, h.name, req.Model, len(req.Input))
	}

	resp, err := c.embedOnce(ctx, h, req, requestID)
	elapsed := time.Since(start)

	if span != nil {
		observability.EndSpan(span, err)
	}

	if c.config.MetricsEnabled {
		status := "success"
		if err != nil {
			status = "error"
			metrics.ObserveFailure(h.name, req.Model, errorType(err))
		}
		metrics.ObserveRequest(h.name, req.Model, status, len(req.Input), elapsed)
	}

	if err != nil {
		c.logger.Error("embedding request failed",
			"request_id", requestID,
			"provider", h.name,
			"model", req.Model,
			"inputs", len(req.Input),
			"elapsed", elapsed,
			"error", err,
		)
		return nil, err
	}

	c.logger.Debug("embedding request completed",
		"request_id", requestID,
		"provider", h.name,
		"model", req.Model,
		"inputs", len(req.Input),
		"elapsed", elapsed,
	)
	return resp, nil
}

// embedOnce runs one request end to end: cache, rate limit, build, execute,
// parse, store. Partition-capable providers get their batches split and the
// results reassembled in original input order.
func (c *Client) embedOnce(ctx context.Context, h *providerHandle, req *EmbeddingRequest, requestID string) (*EmbeddingResponse, error) {
	cacheKey := ""
	if c.config.Cache != nil {
		cacheKey = c.cacheKey(h.name, req)
		if cached, err := c.config.Cache.Get(ctx, cacheKey); err == nil && cached != nil {
			var resp EmbeddingResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				if c.config.MetricsEnabled {
					metrics.CacheHits.WithLabelValues(h.name, req.Model).Inc()
				}
				c.logger.Debug("embedding cache hit", "request_id", requestID, "provider", h.name, "model", req.Model)
				return &resp, nil
			}
		}
		if c.config.MetricsEnabled {
			metrics.CacheMisses.WithLabelValues(h.name, req.Model).Inc()
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, h.name); err != nil {
			return nil, errors.NewConnectionError(h.name, req.Model, "rate limit wait cancelled: "+err.Error())
		}
	}

	prov, err := h.materialize(c.logger, true)
	if err != nil {
		return nil, err
	}

	var resp *EmbeddingResponse
	if part, ok := prov.(provider.Partitioner); ok {
		resp, err = c.executePartitioned(ctx, prov, part, req)
	} else {
		resp, err = c.execute(ctx, prov, req)
	}
	if err != nil {
		return nil, err
	}

	if c.config.Cache != nil {
		if encoded, mErr := json.Marshal(resp); mErr == nil {
			if sErr := c.config.Cache.Set(ctx, cacheKey, encoded, c.config.CacheTTL); sErr != nil {
				c.logger.Warn("embedding cache store failed", "request_id", requestID, "error", sErr)
			}
		}
	}

	return resp, nil
}

// execute sends a single request through the classifying HTTP layer.
func (c *Client) execute(ctx context.Context, prov provider.Provider, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	httpReq, err := prov.BuildEmbeddingRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq, prov.Name(), req.Model)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	return prov.ParseEmbeddingResponse(resp, req)
}

// executePartitioned splits the batch, runs each partition, and scatters
// the vectors back into their original positions.
func (c *Client) executePartitioned(ctx context.Context, prov provider.Provider, part provider.Partitioner, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	parts, err := part.Partition(req)
	if err != nil {
		return nil, err
	}

	out := &EmbeddingResponse{
		Object: "list",
		Model:  req.Model,
		Data:   make([]types.EmbeddingObject, len(req.Input)),
	}
	for _, p := range parts {
		sub, err := c.execute(ctx, prov, p.Request)
		if err != nil {
			return nil, err
		}
		if len(sub.Data) != len(p.Positions) {
			return nil, errors.NewServerError(prov.Name(), req.Model,
				fmt.Sprintf("partition returned %d embeddings for %d inputs", len(sub.Data), len(p.Positions)))
		}
		for i, pos := range p.Positions {
			out.Data[pos] = types.EmbeddingObject{
				Object:    "embedding",
				Embedding: sub.Data[i].Embedding,
				Index:     pos,
			}
		}
		out.Usage.PromptTokens += sub.Usage.PromptTokens
		out.Usage.TotalTokens += sub.Usage.TotalTokens
	}
	return out, nil
}

// EmbedTexts is a convenience wrapper returning raw vectors for a text batch.
func (c *Client) EmbedTexts(ctx context.Context, model string, texts []string) ([][]float64, error) {
	resp, err := c.Embed(ctx, &EmbeddingRequest{Model: model, Input: texts})
	if err != nil {
		return nil, err
	}
	return resp.Vectors(), nil
}

// GetProviders returns the names of all configured providers.
func (c *Client) GetProviders() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.handles))
	for _, h := range c.handles {
		names = append(names, h.name)
	}
	return names
}

// Close releases all resources held by the client, including the config
// watcher and secrets backend when the client came from a config file.
func (c *Client) Close() error {
	if c.watcher != nil {
		_ = c.watcher.Close()
	}
	if c.secretSrc != nil {
		_ = c.secretSrc.Close()
	}
	if c.config.Cache != nil {
		_ = c.config.Cache.Close()
	}
	c.httpc.CloseIdleConnections()
	c.logger.Debug("embedmux client closed")
	return nil
}

// cacheKey derives a stable key from everything that influences the vectors.
func (c *Client) cacheKey(providerName string, req *EmbeddingRequest) string {
	hash := sha256.New()
	hash.Write([]byte(providerName))
	hash.Write([]byte{0})
	hash.Write([]byte(req.Model))
	hash.Write([]byte{0})
	hash.Write([]byte(req.Modality))
	hash.Write([]byte{0})
	fmt.Fprintf(hash, "%d", req.Dimensions)
	for _, in := range req.Input {
		hash.Write([]byte{0x1f})
		hash.Write([]byte(in))
	}
	return "emb:" + hex.EncodeToString(hash.Sum(nil))
}

// errorType extracts the taxonomy type for metrics labels.
func errorType(err error) string {
	if e, ok := err.(*errors.EmbedError); ok {
		return e.Type
	}
	return "unknown"
}

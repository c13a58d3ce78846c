// Package hfserver provides an adapter for self-hosted HuggingFace
// text-embeddings servers. The server takes {"inputs": [...]} and answers
// with a bare array of vectors, positionally matching the inputs.
package hfserver

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/embedmux/embedmux/pkg/errors"
	"github.com/embedmux/embedmux/pkg/provider"
	"github.com/embedmux/embedmux/pkg/types"
)

// ProviderName is the identifier for this provider.
const ProviderName = "hfserver"

// Provider implements the HuggingFace embedding server adapter.
// The endpoint URL is the full path to the embed route; there is no
// default because the server is always user-operated.
type Provider struct {
	url     string
	apiKey  string
	models  []string
	headers map[string]string
}

// Option configures the provider.
type Option func(*Provider)

// WithURL sets the full endpoint URL.
func WithURL(url string) Option {
	return func(p *Provider) {
		p.url = url
	}
}

// WithAPIKey sets an optional bearer token for servers behind auth.
func WithAPIKey(key string) Option {
	return func(p *Provider) {
		p.apiKey = key
	}
}

// WithModels sets the supported models.
func WithModels(models ...string) Option {
	return func(p *Provider) {
		p.models = models
	}
}

// New creates a new HuggingFace server provider.
func New(opts ...Option) *Provider {
	p := &Provider{headers: make(map[string]string)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig creates a provider from a Config struct.
// Self-hosted servers commonly live on private addresses, so private base
// URLs are allowed here.
func NewFromConfig(cfg provider.Config) (provider.Provider, error) {
	if cfg.BaseURL == "" {
		return nil, errors.NewConfigurationError(ProviderName, "", "endpoint URL is required")
	}
	if err := provider.ValidateBaseURL(cfg.BaseURL, true); err != nil {
		return nil, errors.NewConfigurationError(ProviderName, "", err.Error())
	}
	p := New(
		WithURL(cfg.BaseURL),
		WithAPIKey(cfg.APIKey),
		WithModels(cfg.Models...),
	)
	for k, v := range cfg.Headers {
		p.headers[k] = v
	}
	return p, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return ProviderName
}

// SupportedModels returns the list of supported models.
func (p *Provider) SupportedModels() []string {
	return p.models
}

// SupportsModel checks if the provider supports the given model.
// The server hosts exactly one model, so anything configured matches and
// an empty model list accepts all.
func (p *Provider) SupportsModel(model string) bool {
	if len(p.models) == 0 {
		return true
	}
	for _, m := range p.models {
		if m == model {
			return true
		}
	}
	return false
}

type embedBody struct {
	Inputs []string `json:"inputs"`
}

// BuildEmbeddingRequest creates an HTTP request for the embedding server.
func (p *Provider) BuildEmbeddingRequest(ctx context.Context, req *types.EmbeddingRequest) (*http.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewInvalidRequestError(ProviderName, req.Model, err.Error())
	}
	if req.Modality != "" && req.Modality != types.ModalityText {
		return nil, errors.NewInvalidRequestError(ProviderName, req.Model,
			fmt.Sprintf("modality %q is not supported by the embedding server", req.Modality))
	}
	if p.url == "" {
		return nil, errors.NewConfigurationError(ProviderName, req.Model, "endpoint URL is required")
	}

	body, err := json.Marshal(embedBody{Inputs: req.Input})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	for k, v := range p.headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// ParseEmbeddingResponse transforms the server's bare vector array into the
// unified format.
func (p *Provider) ParseEmbeddingResponse(resp *http.Response, req *types.EmbeddingRequest) (*types.EmbeddingResponse, error) {
	var vectors [][]float64
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(vectors) != len(req.Input) {
		return nil, errors.NewServerError(ProviderName, req.Model,
			fmt.Sprintf("expected %d embeddings, got %d", len(req.Input), len(vectors)))
	}

	out := &types.EmbeddingResponse{
		Object: "list",
		Model:  req.Model,
		Data:   make([]types.EmbeddingObject, len(vectors)),
	}
	for i, v := range vectors {
		out.Data[i] = types.EmbeddingObject{Object: "embedding", Embedding: v, Index: i}
	}
	return out, nil
}

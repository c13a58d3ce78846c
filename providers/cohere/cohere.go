// Package cohere provides the Cohere embedding provider.
package cohere

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/embedmux/embedmux/pkg/errors"
	"github.com/embedmux/embedmux/pkg/provider"
	"github.com/embedmux/embedmux/pkg/types"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "cohere"

	// DefaultBaseURL is the default Cohere API endpoint.
	DefaultBaseURL = "https://api.cohere.ai"

	// DefaultModel is used when a request leaves the model empty
	// and the adapter was constructed with no model either.
	DefaultModel = "embed-english-v3.0"
)

// Provider implements the Cohere embedding API adapter.
type Provider struct {
	apiKey    string
	baseURL   string
	models    []string
	headers   map[string]string
	inputType string
}

// Option configures the Cohere provider.
type Option func(*Provider)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(p *Provider) {
		p.apiKey = key
	}
}

// WithBaseURL sets the base URL.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		if url != "" {
			p.baseURL = url
		}
	}
}

// WithModels sets the supported models.
func WithModels(models ...string) Option {
	return func(p *Provider) {
		p.models = models
	}
}

// WithInputType sets the Cohere input_type hint (search_document, search_query, ...).
func WithInputType(t string) Option {
	return func(p *Provider) {
		p.inputType = t
	}
}

// New creates a new Cohere provider with the given options.
func New(opts ...Option) *Provider {
	p := &Provider{
		baseURL:   DefaultBaseURL,
		headers:   make(map[string]string),
		inputType: "search_document",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig creates a provider from a Config struct.
func NewFromConfig(cfg provider.Config) (provider.Provider, error) {
	p := New(
		WithAPIKey(cfg.APIKey),
		WithBaseURL(cfg.BaseURL),
		WithModels(cfg.Models...),
	)
	if t, ok := cfg.Metadata["input_type"]; ok {
		p.inputType = t
	}
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
func (p *Provider) SupportsModel(model string) bool {
	for _, m := range p.models {
		if m == model {
			return true
		}
	}
	return strings.HasPrefix(model, "embed-")
}

type embedBody struct {
	Texts     []string `json:"texts"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type,omitempty"`
	Truncate  string   `json:"truncate,omitempty"`
}

type embedResponse struct {
	ID         string      `json:"id"`
	Embeddings [][]float64 `json:"embeddings"`
	Meta       struct {
		BilledUnits struct {
			InputTokens int `json:"input_tokens"`
		} `json:"billed_units"`
	} `json:"meta"`
}

// BuildEmbeddingRequest creates an HTTP request for the Cohere embed API.
func (p *Provider) BuildEmbeddingRequest(ctx context.Context, req *types.EmbeddingRequest) (*http.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewInvalidRequestError(ProviderName, req.Model, err.Error())
	}
	if req.Modality != "" && req.Modality != types.ModalityText {
		return nil, errors.NewInvalidRequestError(ProviderName, req.Model,
			fmt.Sprintf("modality %q is not supported by cohere embeddings", req.Modality))
	}
	if p.apiKey == "" {
		return nil, errors.NewConfigurationError(ProviderName, req.Model, "api key is required")
	}

	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	body, err := json.Marshal(embedBody{
		Texts:     req.Input,
		Model:     model,
		InputType: p.inputType,
		Truncate:  "END",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimSuffix(p.baseURL, "/") + "/v1/embed"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	for k, v := range p.headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// ParseEmbeddingResponse transforms a Cohere response into the unified format.
// Cohere returns vectors positionally, already in input order.
func (p *Provider) ParseEmbeddingResponse(resp *http.Response, req *types.EmbeddingRequest) (*types.EmbeddingResponse, error) {
	var raw embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(raw.Embeddings) != len(req.Input) {
		return nil, errors.NewServerError(ProviderName, req.Model,
			fmt.Sprintf("expected %d embeddings, got %d", len(req.Input), len(raw.Embeddings)))
	}

	out := &types.EmbeddingResponse{
		Object: "list",
		Model:  req.Model,
		Data:   make([]types.EmbeddingObject, len(raw.Embeddings)),
		Usage: types.Usage{
			PromptTokens: raw.Meta.BilledUnits.InputTokens,
			TotalTokens:  raw.Meta.BilledUnits.InputTokens,
		},
	}
	for i, emb := range raw.Embeddings {
		out.Data[i] = types.EmbeddingObject{Object: "embedding", Embedding: emb, Index: i}
	}
	return out, nil
}

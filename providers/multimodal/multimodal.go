// Package multimodal provides an adapter for self-hosted multimodal
// inference servers exposing separate text and image embed routes.
//
// A multimodal batch is split by input shape: URL-like entries go through
// the image route, everything else through the text route. The split is
// positional, so the client reassembles vectors in the original input order.
package multimodal

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/embedmux/embedmux/pkg/errors"
	"github.com/embedmux/embedmux/pkg/provider"
	"github.com/embedmux/embedmux/pkg/types"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "multimodal"

	textEndpoint  = "/embed/text"
	imageEndpoint = "/embed/image"
)

// urlLike matches inputs that address an image rather than carrying text.
var urlLike = regexp.MustCompile(`^(https?://|data:image/)`)

// Provider implements the multimodal inference server adapter.
type Provider struct {
	baseURL  string
	apiKey   string
	models   []string
	headers  map[string]string
	modality types.Modality
}

// Option configures the provider.
type Option func(*Provider)

// WithBaseURL sets the server base URL.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = url
	}
}

// WithAPIKey sets an optional bearer token.
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

// WithModality sets the default modality applied when a request leaves it empty.
func WithModality(m types.Modality) Option {
	return func(p *Provider) {
		p.modality = m
	}
}

// New creates a new multimodal server provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		headers:  make(map[string]string),
		modality: types.ModalityText,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig creates a provider from a Config struct. Like hfserver,
// the target is user-operated, so private base URLs are allowed.
func NewFromConfig(cfg provider.Config) (provider.Provider, error) {
	if cfg.BaseURL == "" {
		return nil, errors.NewConfigurationError(ProviderName, "", "base URL is required")
	}
	if err := provider.ValidateBaseURL(cfg.BaseURL, true); err != nil {
		return nil, errors.NewConfigurationError(ProviderName, "", err.Error())
	}
	p := New(
		WithBaseURL(cfg.BaseURL),
		WithAPIKey(cfg.APIKey),
		WithModels(cfg.Models...),
	)
	if m, ok := cfg.Metadata["modality"]; ok {
		switch types.Modality(m) {
		case types.ModalityText, types.ModalityImage, types.ModalityMultimodal:
			p.modality = types.Modality(m)
		default:
			return nil, errors.NewConfigurationError(ProviderName, "",
				fmt.Sprintf("unknown modality %q (must be text, image, or multimodal)", m))
		}
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

// effectiveModality resolves the request modality against the configured default.
func (p *Provider) effectiveModality(req *types.EmbeddingRequest) types.Modality {
	if req.Modality != "" {
		return req.Modality
	}
	return p.modality
}

// Partition splits a multimodal batch into an image partition and a text
// partition, remembering original positions. Single-modality requests pass
// through as one partition.
func (p *Provider) Partition(req *types.EmbeddingRequest) ([]provider.Partition, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewInvalidRequestError(ProviderName, req.Model, err.Error())
	}

	mod := p.effectiveModality(req)
	if mod != types.ModalityMultimodal {
		sub := *req
		sub.Modality = mod
		positions := make([]int, len(req.Input))
		for i := range positions {
			positions[i] = i
		}
		return []provider.Partition{{Request: &sub, Positions: positions}}, nil
	}

	var (
		imageInputs, textInputs       []string
		imagePositions, textPositions []int
	)
	for i, in := range req.Input {
		if urlLike.MatchString(in) {
			imageInputs = append(imageInputs, in)
			imagePositions = append(imagePositions, i)
		} else {
			textInputs = append(textInputs, in)
			textPositions = append(textPositions, i)
		}
	}

	var parts []provider.Partition
	if len(imageInputs) > 0 {
		sub := *req
		sub.Input = imageInputs
		sub.Modality = types.ModalityImage
		parts = append(parts, provider.Partition{Request: &sub, Positions: imagePositions})
	}
	if len(textInputs) > 0 {
		sub := *req
		sub.Input = textInputs
		sub.Modality = types.ModalityText
		parts = append(parts, provider.Partition{Request: &sub, Positions: textPositions})
	}
	return parts, nil
}

type embedBody struct {
	Model  string   `json:"model,omitempty"`
	Inputs []string `json:"inputs"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// BuildEmbeddingRequest creates an HTTP request against the route matching
// the request modality. Multimodal requests must go through Partition first.
func (p *Provider) BuildEmbeddingRequest(ctx context.Context, req *types.EmbeddingRequest) (*http.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewInvalidRequestError(ProviderName, req.Model, err.Error())
	}
	if p.baseURL == "" {
		return nil, errors.NewConfigurationError(ProviderName, req.Model, "base URL is required")
	}

	var endpoint string
	switch p.effectiveModality(req) {
	case types.ModalityText:
		endpoint = textEndpoint
	case types.ModalityImage:
		endpoint = imageEndpoint
	case types.ModalityMultimodal:
		return nil, errors.NewInvalidRequestError(ProviderName, req.Model,
			"multimodal batches must be partitioned before building requests")
	}

	body, err := json.Marshal(embedBody{Model: req.Model, Inputs: req.Input})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimSuffix(p.baseURL, "/") + endpoint
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
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

// ParseEmbeddingResponse transforms the server response into the unified format.
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
	}
	for i, v := range raw.Embeddings {
		out.Data[i] = types.EmbeddingObject{Object: "embedding", Embedding: v, Index: i}
	}
	return out, nil
}

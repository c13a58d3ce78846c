// Package openai provides the OpenAI embedding provider.
// It serves as the reference implementation for other provider adapters and
// covers three wire shapes behind one adapter: the current /embeddings API,
// the legacy engine-addressed API, and Azure OpenAI deployments.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/embedmux/embedmux/pkg/errors"
	"github.com/embedmux/embedmux/pkg/provider"
	"github.com/embedmux/embedmux/pkg/types"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "openai"

	// DefaultBaseURL is the default OpenAI API endpoint.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultAzureAPIVersion is used when an Azure variant omits api-version.
	DefaultAzureAPIVersion = "2024-02-01"
)

// Variant selects which OpenAI API shape the adapter speaks.
// The shape is an explicit configuration choice, never inferred from an
// SDK version or response sniffing.
type Variant string

const (
	// VariantCurrent is the flat /embeddings endpoint with the model in the body.
	VariantCurrent Variant = "current"
	// VariantLegacy is the old engine-addressed /engines/{model}/embeddings endpoint.
	VariantLegacy Variant = "legacy"
	// VariantAzure is the Azure OpenAI deployment endpoint with api-key auth.
	VariantAzure Variant = "azure"
)

// Provider implements the OpenAI embedding API adapter.
type Provider struct {
	apiKey       string
	baseURL      string
	models       []string
	headers      map[string]string
	variant      Variant
	organization string
	deployment   string
	apiVersion   string
	tokenSource  provider.TokenSource
}

// New creates a new OpenAI provider with the given options.
func New(opts ...Option) *Provider {
	p := &Provider{
		baseURL: DefaultBaseURL,
		headers: make(map[string]string),
		variant: VariantCurrent,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig creates a provider from a Config struct.
// Variant, organization, deployment, and api-version come from Metadata.
func NewFromConfig(cfg provider.Config) (provider.Provider, error) {
	opts := []Option{
		WithAPIKey(cfg.APIKey),
		WithBaseURL(cfg.BaseURL),
		WithModels(cfg.Models...),
		WithTokenSource(cfg.TokenSource),
	}
	if v, ok := cfg.Metadata["variant"]; ok {
		switch Variant(v) {
		case VariantCurrent, VariantLegacy, VariantAzure:
			opts = append(opts, WithVariant(Variant(v)))
		default:
			return nil, errors.NewConfigurationError(ProviderName, "",
				fmt.Sprintf("unknown openai variant %q (must be current, legacy, or azure)", v))
		}
	}
	if org, ok := cfg.Metadata["organization"]; ok {
		opts = append(opts, WithOrganization(org))
	}
	if dep, ok := cfg.Metadata["deployment"]; ok {
		opts = append(opts, WithDeployment(dep))
	}
	if ver, ok := cfg.Metadata["api_version"]; ok {
		opts = append(opts, WithAPIVersion(ver))
	}

	p := New(opts...)
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
	return strings.HasPrefix(model, "text-embedding-")
}

// checkConfig verifies that everything the selected variant needs is present.
// It runs before any request is built so misconfiguration never reaches the wire.
func (p *Provider) checkConfig(model string) error {
	if p.apiKey == "" && p.tokenSource == nil {
		return errors.NewConfigurationError(ProviderName, model, "api key is required")
	}
	if p.variant == VariantAzure {
		if p.deployment == "" {
			return errors.NewConfigurationError(ProviderName, model, "azure variant requires a deployment name")
		}
		if p.baseURL == DefaultBaseURL {
			return errors.NewConfigurationError(ProviderName, model, "azure variant requires an explicit base URL")
		}
	}
	return nil
}

type embeddingBody struct {
	Model      string   `json:"model,omitempty"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
	User       string   `json:"user,omitempty"`
}

// BuildEmbeddingRequest creates an HTTP request for the selected API variant.
func (p *Provider) BuildEmbeddingRequest(ctx context.Context, req *types.EmbeddingRequest) (*http.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewInvalidRequestError(ProviderName, req.Model, err.Error())
	}
	if req.Modality != "" && req.Modality != types.ModalityText {
		return nil, errors.NewInvalidRequestError(ProviderName, req.Model,
			fmt.Sprintf("modality %q is not supported by openai embeddings", req.Modality))
	}
	if err := p.checkConfig(req.Model); err != nil {
		return nil, err
	}

	eb := embeddingBody{
		Input:      req.Input,
		Dimensions: req.Dimensions,
		User:       req.User,
	}

	base := strings.TrimSuffix(p.baseURL, "/")
	var url string
	switch p.variant {
	case VariantLegacy:
		// Engine-addressed endpoint; the model lives in the path, not the body.
		url = base + "/engines/" + req.Model + "/embeddings"
	case VariantAzure:
		ver := p.apiVersion
		if ver == "" {
			ver = DefaultAzureAPIVersion
		}
		url = fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s", base, p.deployment, ver)
	default:
		eb.Model = req.Model
		url = base + "/embeddings"
	}

	body, err := json.Marshal(eb)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	token, err := provider.GetToken(p.tokenSource, p.apiKey)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if p.variant == VariantAzure {
		httpReq.Header.Set("api-key", token)
	} else {
		httpReq.Header.Set("Authorization", "Bearer "+token)
		if p.organization != "" {
			httpReq.Header.Set("OpenAI-Organization", p.organization)
		}
	}

	for k, v := range p.headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, nil
}

// ParseEmbeddingResponse transforms an OpenAI response into the unified format.
// Data is reordered by index so vectors line up with the request inputs.
func (p *Provider) ParseEmbeddingResponse(resp *http.Response, req *types.EmbeddingRequest) (*types.EmbeddingResponse, error) {
	var embResp types.EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	sort.SliceStable(embResp.Data, func(i, j int) bool {
		return embResp.Data[i].Index < embResp.Data[j].Index
	})

	if len(embResp.Data) != len(req.Input) {
		return nil, errors.NewServerError(ProviderName, req.Model,
			fmt.Sprintf("expected %d embeddings, got %d", len(req.Input), len(embResp.Data)))
	}

	return &embResp, nil
}

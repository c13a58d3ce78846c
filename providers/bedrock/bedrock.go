// Package bedrock implements the AWS Bedrock embedding provider adapter.
// It invokes the bedrock-runtime InvokeModel endpoint directly with
// SigV4-signed requests, supporting the Cohere embed model family which
// accepts whole batches in one call.
package bedrock

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/goccy/go-json"

	"github.com/embedmux/embedmux/pkg/errors"
	"github.com/embedmux/embedmux/pkg/provider"
	"github.com/embedmux/embedmux/pkg/types"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "bedrock"

	serviceName = "bedrock"
)

// Provider implements the AWS Bedrock embedding provider.
type Provider struct {
	cfg       aws.Config
	region    string
	inputType string
	endpoint  string // override for tests; empty means the regional endpoint
}

// Option configures the Bedrock provider.
type Option func(*Provider)

// WithInputType sets the input_type hint sent to Cohere embed models.
func WithInputType(t string) Option {
	return func(p *Provider) {
		p.inputType = t
	}
}

// WithEndpoint overrides the bedrock-runtime endpoint.
func WithEndpoint(endpoint string) Option {
	return func(p *Provider) {
		p.endpoint = endpoint
	}
}

// New creates a new Bedrock provider from an AWS config.
func New(cfg aws.Config, opts ...Option) *Provider {
	p := &Provider{
		cfg:       cfg,
		region:    cfg.Region,
		inputType: "search_document",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig creates a provider from the gateway configuration.
// AWS credentials and region come from the environment or shared config,
// the standard SDK resolution chain.
func NewFromConfig(cfg provider.Config) (provider.Provider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	if region, ok := cfg.Metadata["region"]; ok && region != "" {
		awsCfg.Region = region
	}
	if awsCfg.Region == "" {
		return nil, errors.NewConfigurationError(ProviderName, "", "AWS region is required")
	}

	var opts []Option
	if t, ok := cfg.Metadata["input_type"]; ok {
		opts = append(opts, WithInputType(t))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithEndpoint(cfg.BaseURL))
	}
	return New(awsCfg, opts...), nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return ProviderName
}

// SupportedModels returns the list of supported models.
func (p *Provider) SupportedModels() []string {
	return []string{
		"cohere.embed-english-v3",
		"cohere.embed-multilingual-v3",
	}
}

// SupportsModel checks if the provider supports the given model.
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "cohere.embed-")
}

type embedBody struct {
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// BuildEmbeddingRequest creates a SigV4-signed HTTP request for InvokeModel.
func (p *Provider) BuildEmbeddingRequest(ctx context.Context, req *types.EmbeddingRequest) (*http.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewInvalidRequestError(ProviderName, req.Model, err.Error())
	}
	if req.Modality != "" && req.Modality != types.ModalityText {
		return nil, errors.NewInvalidRequestError(ProviderName, req.Model,
			fmt.Sprintf("modality %q is not supported by bedrock embeddings", req.Modality))
	}
	if !p.SupportsModel(req.Model) {
		return nil, errors.NewInvalidRequestError(ProviderName, req.Model,
			fmt.Sprintf("unsupported model family for %s", req.Model))
	}
	if p.cfg.Credentials == nil {
		return nil, errors.NewConfigurationError(ProviderName, req.Model, "AWS credentials are required")
	}

	bodyBytes, err := json.Marshal(embedBody{Texts: req.Input, InputType: p.inputType})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	endpoint := p.endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", p.region)
	}
	url := fmt.Sprintf("%s/model/%s/invoke", strings.TrimSuffix(endpoint, "/"), req.Model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	signer := v4.NewSigner()
	creds, err := p.cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieve credentials: %w", err)
	}

	payloadHash := sha256.Sum256(bodyBytes)
	hexHash := hex.EncodeToString(payloadHash[:])

	if err := signer.SignHTTP(ctx, creds, httpReq, hexHash, serviceName, p.region, time.Now()); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	return httpReq, nil
}

// ParseEmbeddingResponse transforms a Bedrock response into the unified format.
// The Cohere-on-Bedrock shape returns vectors positionally.
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

// Package provider defines the public interface for embedding provider adapters.
// Each provider (OpenAI, Cohere, etc.) implements this interface to handle
// request construction and response normalization against its own API shape.
package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/embedmux/embedmux/pkg/types"
)

// Provider defines the interface that all embedding provider adapters implement.
// Adapters perform no I/O themselves: they build requests and parse responses,
// leaving transport and error classification to the caller.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai", "cohere").
	Name() string

	// SupportedModels returns the list of models this provider can handle.
	SupportedModels() []string

	// SupportsModel checks if the provider supports the given model.
	SupportsModel(model string) bool

	// BuildEmbeddingRequest transforms a unified EmbeddingRequest into a
	// provider-specific HTTP request. It validates configuration and input
	// before any network activity happens.
	BuildEmbeddingRequest(ctx context.Context, req *types.EmbeddingRequest) (*http.Request, error)

	// ParseEmbeddingResponse transforms a provider-specific response body into
	// the unified format, one vector per input in input order.
	ParseEmbeddingResponse(resp *http.Response, req *types.EmbeddingRequest) (*types.EmbeddingResponse, error)
}

// TokenSource defines the interface for retrieving access tokens.
// It allows dynamic token retrieval (e.g. OIDC, IAM) vs static API keys.
type TokenSource interface {
	// Token returns a valid access token or error.
	Token() (string, error)
}

// GetToken resolves a token from src when set, falling back to apiKey.
func GetToken(src TokenSource, apiKey string) (string, error) {
	if src != nil {
		return src.Token()
	}
	return apiKey, nil
}

// Config contains provider-specific configuration.
type Config struct {
	Name        string
	Type        string
	APIKey      string
	TokenSource TokenSource
	BaseURL     string
	Models      []string
	Timeout     time.Duration
	Headers     map[string]string

	// Metadata carries provider-specific extras such as the Azure
	// deployment name or the multimodal server modality.
	Metadata map[string]string
}

// Factory creates provider instances from configuration.
type Factory func(cfg Config) (Provider, error)

// Package embedmux provides a unified embedding gateway as a Go library.
// It adapts a single request shape onto multiple embedding providers
// (OpenAI and Azure OpenAI, Cohere, Amazon Bedrock, self-hosted
// HuggingFace embedding servers, and multimodal embedding servers) and
// classifies every failure into one typed error taxonomy.
//
// Basic usage:
//
//	client, err := embedmux.New(
//	    embedmux.WithProvider(embedmux.ProviderConfig{
//	        Name:   "openai",
//	        Type:   "openai",
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	        Models: []string{"text-embedding-3-small"},
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	vectors, err := client.EmbedTexts(ctx, "text-embedding-3-small",
//	    []string{"hello", "world"})
package embedmux

import (
	"github.com/embedmux/embedmux/pkg/cache"
	"github.com/embedmux/embedmux/pkg/errors"
	"github.com/embedmux/embedmux/pkg/provider"
	"github.com/embedmux/embedmux/pkg/types"
)

// Version is the current version of embedmux.
const Version = "1.0.0"

// Re-export core request/response types for convenience.
// Users can use embedmux.EmbeddingRequest instead of types.EmbeddingRequest.
type (
	// EmbeddingRequest represents a unified embedding request.
	EmbeddingRequest = types.EmbeddingRequest

	// EmbeddingResponse represents a unified embedding response.
	EmbeddingResponse = types.EmbeddingResponse

	// EmbeddingObject represents a single embedding vector.
	EmbeddingObject = types.EmbeddingObject

	// Usage contains token usage statistics for the request.
	Usage = types.Usage

	// Modality identifies the kind of content an input string carries.
	Modality = types.Modality
)

// Re-export modality constants.
const (
	// ModalityText embeds plain text.
	ModalityText = types.ModalityText

	// ModalityImage embeds an image addressed by URL or path.
	ModalityImage = types.ModalityImage

	// ModalityMultimodal mixes text and image inputs in one batch.
	ModalityMultimodal = types.ModalityMultimodal
)

// Re-export provider types.
type (
	// Provider defines the interface that all embedding provider adapters
	// must implement.
	Provider = provider.Provider

	// ProviderFactory creates provider instances from configuration.
	ProviderFactory = provider.Factory

	// TokenSource supplies bearer tokens for providers that refresh
	// credentials at request time.
	TokenSource = provider.TokenSource
)

// Re-export cache types.
type (
	// Cache defines the interface for all cache implementations.
	Cache = cache.Cache

	// CacheStats holds cache statistics for monitoring.
	CacheStats = cache.Stats
)

// Re-export error types.
type (
	// EmbedError represents a classified error from an embedding provider call.
	EmbedError = errors.EmbedError
)

// Package types defines the unified request and response shapes shared by
// all embedding provider adapters.
package types

import "fmt"

// Modality identifies the kind of content an input string carries.
type Modality string

const (
	// ModalityText embeds plain text.
	ModalityText Modality = "text"
	// ModalityImage embeds an image addressed by URL or path.
	ModalityImage Modality = "image"
	// ModalityMultimodal mixes text and image inputs in one batch.
	ModalityMultimodal Modality = "multimodal"
)

// EmbeddingRequest represents a unified embedding request.
type EmbeddingRequest struct {
	// Model is the ID of the embedding model to use.
	Model string `json:"model"`

	// Input is the batch of strings to embed. For image and multimodal
	// modalities, entries may be URLs or file paths.
	Input []string `json:"input"`

	// Modality selects how inputs are interpreted. Empty means text.
	Modality Modality `json:"modality,omitempty"`

	// Dimensions is the requested output dimensionality, for models that
	// support shortening. Zero means the model default.
	Dimensions int `json:"dimensions,omitempty"`

	// User is an end-user identifier forwarded to providers that accept one.
	User string `json:"user,omitempty"`
}

// Validate checks if the embedding request is valid.
func (r *EmbeddingRequest) Validate() error {
	if r.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if len(r.Input) == 0 {
		return fmt.Errorf("input cannot be empty")
	}
	for i, s := range r.Input {
		if s == "" {
			return fmt.Errorf("input contains empty string at index %d", i)
		}
	}
	switch r.Modality {
	case "", ModalityText, ModalityImage, ModalityMultimodal:
		return nil
	default:
		return fmt.Errorf("unknown modality %q", r.Modality)
	}
}

// EmbeddingResponse represents a unified embedding response.
type EmbeddingResponse struct {
	Object string            `json:"object"`
	Data   []EmbeddingObject `json:"data"`
	Model  string            `json:"model"`
	Usage  Usage             `json:"usage"`
}

// EmbeddingObject represents a single embedding vector.
type EmbeddingObject struct {
	Object    string    `json:"object"`
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// Usage reports token accounting for a request, when the provider supplies it.
type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Vectors flattens the response into one vector per input, ordered by index.
// Providers that return data out of order are normalized here.
func (r *EmbeddingResponse) Vectors() [][]float64 {
	out := make([][]float64, len(r.Data))
	for i, d := range r.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) {
			idx = i
		}
		out[idx] = d.Embedding
	}
	return out
}

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     EmbeddingRequest
		wantErr bool
	}{
		{"valid text", EmbeddingRequest{Model: "m", Input: []string{"a"}}, false},
		{"valid with modality", EmbeddingRequest{Model: "m", Input: []string{"a"}, Modality: ModalityImage}, false},
		{"missing model", EmbeddingRequest{Input: []string{"a"}}, true},
		{"empty input", EmbeddingRequest{Model: "m"}, true},
		{"empty string element", EmbeddingRequest{Model: "m", Input: []string{"a", ""}}, true},
		{"unknown modality", EmbeddingRequest{Model: "m", Input: []string{"a"}, Modality: "audio"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestEmbeddingResponse_Vectors(t *testing.T) {
	t.Run("ordered by index", func(t *testing.T) {
		resp := EmbeddingResponse{
			Data: []EmbeddingObject{
				{Embedding: []float64{0.3, 0.4}, Index: 1},
				{Embedding: []float64{0.1, 0.2}, Index: 0},
			},
		}
		assert.Equal(t, [][]float64{{0.1, 0.2}, {0.3, 0.4}}, resp.Vectors())
	})

	t.Run("out of range index falls back to position", func(t *testing.T) {
		resp := EmbeddingResponse{
			Data: []EmbeddingObject{
				{Embedding: []float64{1}, Index: 7},
				{Embedding: []float64{2}, Index: -1},
			},
		}
		assert.Equal(t, [][]float64{{1}, {2}}, resp.Vectors())
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, (&EmbeddingResponse{}).Vectors())
	})
}

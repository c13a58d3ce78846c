package openai

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedmux/embedmux/pkg/errors"
	"github.com/embedmux/embedmux/pkg/provider"
	"github.com/embedmux/embedmux/pkg/types"
)

func decodeBody(t *testing.T, req *http.Request) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

func TestBuildEmbeddingRequest_CurrentVariant(t *testing.T) {
	p := New(
		WithAPIKey("test-key"),
		WithOrganization("org-123"),
	)

	httpReq, err := p.BuildEmbeddingRequest(context.Background(), &types.EmbeddingRequest{
		Model: "text-embedding-3-small",
		Input: []string{"hello", "world"},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://api.openai.com/v1/embeddings", httpReq.URL.String())
	assert.Equal(t, "Bearer test-key", httpReq.Header.Get("Authorization"))
	assert.Equal(t, "org-123", httpReq.Header.Get("OpenAI-Organization"))

	payload := decodeBody(t, httpReq)
	assert.Equal(t, "text-embedding-3-small", payload["model"])
	assert.Equal(t, []any{"hello", "world"}, payload["input"])
}

func TestBuildEmbeddingRequest_LegacyVariant(t *testing.T) {
	p := New(
		WithAPIKey("test-key"),
		WithVariant(VariantLegacy),
		WithBaseURL("https://api.test.com/v1"),
	)

	httpReq, err := p.BuildEmbeddingRequest(context.Background(), &types.EmbeddingRequest{
		Model: "text-embedding-ada-002",
		Input: []string{"hello"},
	})
	require.NoError(t, err)

	// The model is addressed in the path, not the body.
	assert.Equal(t, "https://api.test.com/v1/engines/text-embedding-ada-002/embeddings", httpReq.URL.String())
	payload := decodeBody(t, httpReq)
	_, hasModel := payload["model"]
	assert.False(t, hasModel, "legacy body must not carry a model field")
}

func TestBuildEmbeddingRequest_AzureVariant(t *testing.T) {
	p := New(
		WithAPIKey("azure-key"),
		WithVariant(VariantAzure),
		WithBaseURL("https://myresource.openai.azure.com"),
		WithDeployment("my-deployment"),
		WithAPIVersion("2024-06-01"),
	)

	httpReq, err := p.BuildEmbeddingRequest(context.Background(), &types.EmbeddingRequest{
		Model: "text-embedding-3-small",
		Input: []string{"hello"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"https://myresource.openai.azure.com/openai/deployments/my-deployment/embeddings?api-version=2024-06-01",
		httpReq.URL.String())
	// Azure authenticates with api-key, never a bearer token.
	assert.Equal(t, "azure-key", httpReq.Header.Get("api-key"))
	assert.Empty(t, httpReq.Header.Get("Authorization"))
}

func TestBuildEmbeddingRequest_AzureDefaultsAPIVersion(t *testing.T) {
	p := New(
		WithAPIKey("k"),
		WithVariant(VariantAzure),
		WithBaseURL("https://r.openai.azure.com"),
		WithDeployment("d"),
	)

	httpReq, err := p.BuildEmbeddingRequest(context.Background(), &types.EmbeddingRequest{
		Model: "m",
		Input: []string{"x"},
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultAzureAPIVersion, httpReq.URL.Query().Get("api-version"))
}

func TestBuildEmbeddingRequest_ConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		p       *Provider
		wantMsg string
	}{
		{
			name:    "missing api key",
			p:       New(),
			wantMsg: "api key is required",
		},
		{
			name:    "azure without deployment",
			p:       New(WithAPIKey("k"), WithVariant(VariantAzure), WithBaseURL("https://r.openai.azure.com")),
			wantMsg: "deployment",
		},
		{
			name:    "azure without base URL",
			p:       New(WithAPIKey("k"), WithVariant(VariantAzure), WithDeployment("d")),
			wantMsg: "base URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.BuildEmbeddingRequest(context.Background(), &types.EmbeddingRequest{
				Model: "m",
				Input: []string{"x"},
			})
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err), "expected a configuration error, got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestBuildEmbeddingRequest_RejectsImageModality(t *testing.T) {
	p := New(WithAPIKey("k"))
	_, err := p.BuildEmbeddingRequest(context.Background(), &types.EmbeddingRequest{
		Model:    "text-embedding-3-small",
		Input:    []string{"https://example.com/cat.png"},
		Modality: types.ModalityImage,
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInvalidRequest))
}

func TestBuildEmbeddingRequest_Dimensions(t *testing.T) {
	p := New(WithAPIKey("k"))
	httpReq, err := p.BuildEmbeddingRequest(context.Background(), &types.EmbeddingRequest{
		Model:      "text-embedding-3-large",
		Input:      []string{"hello"},
		Dimensions: 256,
	})
	require.NoError(t, err)
	payload := decodeBody(t, httpReq)
	assert.Equal(t, float64(256), payload["dimensions"])
}

func TestParseEmbeddingResponse_ReordersByIndex(t *testing.T) {
	body := `{
		"object": "list",
		"data": [
			{"object": "embedding", "embedding": [0.3, 0.4], "index": 1},
			{"object": "embedding", "embedding": [0.1, 0.2], "index": 0}
		],
		"model": "text-embedding-3-small",
		"usage": {"prompt_tokens": 4, "total_tokens": 4}
	}`
	resp := &http.Response{Body: io.NopCloser(strings.NewReader(body))}

	p := New(WithAPIKey("k"))
	out, err := p.ParseEmbeddingResponse(resp, &types.EmbeddingRequest{
		Model: "text-embedding-3-small",
		Input: []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.1, 0.2}, {0.3, 0.4}}, out.Vectors())
	assert.Equal(t, 4, out.Usage.TotalTokens)
}

func TestParseEmbeddingResponse_CountMismatch(t *testing.T) {
	body := `{"object":"list","data":[{"embedding":[0.1],"index":0}],"model":"m"}`
	resp := &http.Response{Body: io.NopCloser(strings.NewReader(body))}

	p := New(WithAPIKey("k"))
	_, err := p.ParseEmbeddingResponse(resp, &types.EmbeddingRequest{
		Model: "m",
		Input: []string{"a", "b"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeServer))
}

func TestNewFromConfig(t *testing.T) {
	t.Run("azure metadata", func(t *testing.T) {
		p, err := NewFromConfig(providerConfig(map[string]string{
			"variant":     "azure",
			"deployment":  "embed-prod",
			"api_version": "2024-06-01",
		}))
		require.NoError(t, err)

		op := p.(*Provider)
		assert.Equal(t, VariantAzure, op.variant)
		assert.Equal(t, "embed-prod", op.deployment)
		assert.Equal(t, "2024-06-01", op.apiVersion)
	})

	t.Run("unknown variant rejected", func(t *testing.T) {
		_, err := NewFromConfig(providerConfig(map[string]string{"variant": "v5"}))
		require.Error(t, err)
		assert.True(t, errors.IsConfiguration(err))
	})
}

func providerConfig(metadata map[string]string) provider.Config {
	return provider.Config{
		Type:     ProviderName,
		APIKey:   "k",
		BaseURL:  "https://r.openai.azure.com",
		Metadata: metadata,
	}
}

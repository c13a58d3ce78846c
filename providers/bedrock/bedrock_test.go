package bedrock

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedmux/embedmux/pkg/errors"
	"github.com/embedmux/embedmux/pkg/types"
)

func testAWSConfig() aws.Config {
	return aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKID", "SECRET", ""),
	}
}

func TestBuildEmbeddingRequest_Signed(t *testing.T) {
	p := New(testAWSConfig())

	httpReq, err := p.BuildEmbeddingRequest(context.Background(), &types.EmbeddingRequest{
		Model: "cohere.embed-english-v3",
		Input: []string{"hello", "world"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"https://bedrock-runtime.us-east-1.amazonaws.com/model/cohere.embed-english-v3/invoke",
		httpReq.URL.String())

	auth := httpReq.Header.Get("Authorization")
	assert.Contains(t, auth, "AWS4-HMAC-SHA256")
	assert.Contains(t, auth, "Credential=AKID")
	assert.Contains(t, auth, "us-east-1/bedrock/aws4_request")
	assert.NotEmpty(t, httpReq.Header.Get("X-Amz-Date"))

	raw, err := io.ReadAll(httpReq.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"texts":["hello","world"],"input_type":"search_document"}`, string(raw))
}

func TestBuildEmbeddingRequest_EndpointOverride(t *testing.T) {
	p := New(testAWSConfig(), WithEndpoint("http://localhost:4566"))

	httpReq, err := p.BuildEmbeddingRequest(context.Background(), &types.EmbeddingRequest{
		Model: "cohere.embed-multilingual-v3",
		Input: []string{"x"},
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4566/model/cohere.embed-multilingual-v3/invoke", httpReq.URL.String())
}

func TestBuildEmbeddingRequest_UnsupportedModelFamily(t *testing.T) {
	p := New(testAWSConfig())
	_, err := p.BuildEmbeddingRequest(context.Background(), &types.EmbeddingRequest{
		Model: "amazon.titan-embed-text-v1",
		Input: []string{"x"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInvalidRequest))
}

func TestBuildEmbeddingRequest_MissingCredentials(t *testing.T) {
	p := New(aws.Config{Region: "us-east-1"})
	_, err := p.BuildEmbeddingRequest(context.Background(), &types.EmbeddingRequest{
		Model: "cohere.embed-english-v3",
		Input: []string{"x"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestParseEmbeddingResponse(t *testing.T) {
	body := `{"embeddings": [[0.1, 0.2], [0.3, 0.4]]}`
	resp := &http.Response{Body: io.NopCloser(strings.NewReader(body))}

	p := New(testAWSConfig())
	out, err := p.ParseEmbeddingResponse(resp, &types.EmbeddingRequest{
		Model: "cohere.embed-english-v3",
		Input: []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.1, 0.2}, {0.3, 0.4}}, out.Vectors())
}

func TestSupportsModel(t *testing.T) {
	p := New(testAWSConfig())
	assert.True(t, p.SupportsModel("cohere.embed-english-v3"))
	assert.False(t, p.SupportsModel("anthropic.claude-v2"))
}

package embedmux

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfigFile(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([][]float64{{0.1, 0.2}})
	}))
	defer srv.Close()

	t.Setenv("EMBEDMUX_TEST_HF_TOKEN", "hf-resolved-token")

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
providers:
  - name: hf
    type: hfserver
    api_key: env:EMBEDMUX_TEST_HF_TOKEN
    base_url: `+srv.URL+`/embed
cache:
  enabled: true
  type: local
  ttl: 1h
logging:
  level: error
`), 0o600))

	client, err := NewFromConfigFile(context.Background(), cfgPath, WithMetrics(false), WithTracing(false))
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, []string{"hf"}, client.GetProviders())

	vectors, err := client.EmbedTexts(context.Background(), "any-model", []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.1, 0.2}}, vectors)

	// The env reference was resolved before the provider saw it.
	assert.Equal(t, "Bearer hf-resolved-token", gotAuth)
}

func TestWatchConfigFile_SwapsProviders(t *testing.T) {
	srvA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([][]float64{{1}})
	}))
	defer srvA.Close()
	srvB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([][]float64{{2}})
	}))
	defer srvB.Close()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
providers:
  - name: hf-a
    type: hfserver
    base_url: `+srvA.URL+`/embed
logging:
  level: error
`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := WatchConfigFile(ctx, cfgPath, WithMetrics(false), WithTracing(false))
	require.NoError(t, err)
	defer client.Close()

	vectors, err := client.EmbedTexts(context.Background(), "any-model", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}}, vectors)

	require.NoError(t, os.WriteFile(cfgPath, []byte(`
providers:
  - name: hf-b
    type: hfserver
    base_url: `+srvB.URL+`/embed
logging:
  level: error
`), 0o600))

	// Reloads are debounced, so the swap lands shortly after the write.
	require.Eventually(t, func() bool {
		names := client.GetProviders()
		return len(names) == 1 && names[0] == "hf-b"
	}, 5*time.Second, 50*time.Millisecond, "provider set should swap after the file changes")

	vectors, err = client.EmbedTexts(context.Background(), "any-model", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2}}, vectors)
}

func TestWatchConfigFile_BadReloadKeepsProviders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([][]float64{{1}})
	}))
	defer srv.Close()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
providers:
  - name: hf
    type: hfserver
    base_url: `+srv.URL+`/embed
logging:
  level: error
`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := WatchConfigFile(ctx, cfgPath, WithMetrics(false), WithTracing(false))
	require.NoError(t, err)
	defer client.Close()

	// The new file parses but names an unregistered provider type; the
	// swap must be rejected wholesale.
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
providers:
  - name: bogus
    type: not-a-real-provider
logging:
  level: error
`), 0o600))

	assert.Never(t, func() bool {
		names := client.GetProviders()
		return len(names) != 1 || names[0] != "hf"
	}, 1500*time.Millisecond, 100*time.Millisecond, "rejected reload must keep the current provider set")

	vectors, err := client.EmbedTexts(context.Background(), "any-model", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}}, vectors)
}

func TestNewFromConfigFile_UnresolvableSecret(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
providers:
  - name: oa
    type: openai
    api_key: env:EMBEDMUX_UNSET_KEY_FOR_TEST
`), 0o600))

	_, err := NewFromConfigFile(context.Background(), cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMBEDMUX_UNSET_KEY_FOR_TEST")
}

func TestNewFromConfigFile_MissingFile(t *testing.T) {
	_, err := NewFromConfigFile(context.Background(), "/does/not/exist.yaml")
	require.Error(t, err)
}

func TestNewFromConfigFile_LiteralKeyPassesThrough(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
providers:
  - name: oa
    type: openai
    api_key: sk-literal-key
`), 0o600))

	client, err := NewFromConfigFile(context.Background(), cfgPath)
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, []string{"oa"}, client.GetProviders())
}

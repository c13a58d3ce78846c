// Package httpclient wraps outbound HTTP calls with error classification.
// Every provider request goes through Do, which is the sole place that maps
// transport failures, HTTP status codes, and server-reported error strings
// onto the typed error taxonomy in pkg/errors.
package httpclient

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/embedmux/embedmux/internal/httputil"
	"github.com/embedmux/embedmux/pkg/errors"
)

// Doer abstracts *http.Client for testing.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client executes HTTP requests and classifies failures.
// It performs no retries and keeps no per-call state; resilience policy
// belongs to the caller.
type Client struct {
	inner Doer
}

// New creates a classifying client over inner. A nil inner gets a default
// client with a 30 second timeout.
func New(inner Doer) *Client {
	if inner == nil {
		inner = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{inner: inner}
}

// errorBody is the shape servers use to report logical failures.
// A non-empty error field fails the call even on a 2xx status.
type errorBody struct {
	Error string `json:"error"`
}

// Do executes req and returns either a response whose body is intact and
// readable once by the caller, or a typed error. Classification:
//
//   - transport failure (dial, DNS, reset): connection error with a
//     remediation hint, never the raw transport error
//   - non-2xx status: mapped by errors.FromStatus; 500 bodies are further
//     parsed for a Name('message') error string
//   - 2xx with a non-empty body error field: the same server-error parsing
//     path, failing the call despite transport success
//
// provider and model annotate the resulting error and may be empty.
func (c *Client) Do(req *http.Request, provider, model string) (*http.Response, error) {
	resp, err := c.inner.Do(req)
	if err != nil {
		return nil, errors.NewConnectionError(provider, model,
			"request to "+req.URL.String()+" failed: "+err.Error()+
				" (is the service running and the base URL correct?)")
	}

	body, readErr := httputil.ReadLimitedBody(resp.Body, httputil.DefaultMaxResponseBodyBytes)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, errors.NewConnectionError(provider, model,
			"reading response from "+req.URL.String()+" failed: "+readErr.Error())
	}

	// Speculatively decode the body for a server-reported error field
	// without consuming it for the caller.
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.FromStatus(provider, model, resp.StatusCode, req.URL.String(), eb.Error)
	}

	if eb.Error != "" {
		return nil, errors.ParseServerMessage(provider, model, eb.Error)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

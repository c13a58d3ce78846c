package errors

import (
	"strings"
	"testing"
)

func TestParseServerMessage(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantType string
		wantMsg  string
	}{
		{
			name:     "ValueError maps to value_error with unwrapped message",
			raw:      "ValueError('Collection not found')",
			wantType: TypeValue,
			wantMsg:  "Collection not found",
		},
		{
			name:     "unrecognized name keeps full string",
			raw:      "KeyError('missing field')",
			wantType: TypeServer,
			wantMsg:  "KeyError('missing field')",
		},
		{
			name:     "free-form string keeps full string",
			raw:      "something went wrong",
			wantType: TypeServer,
			wantMsg:  "something went wrong",
		},
		{
			name:     "empty message inside wrapper",
			raw:      "ValueError('')",
			wantType: TypeValue,
			wantMsg:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseServerMessage("hfserver", "my-model", tt.raw)
			if err.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", err.Type, tt.wantType)
			}
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Provider != "hfserver" || err.Model != "my-model" {
				t.Errorf("provider/model not carried: %+v", err)
			}
		})
	}
}

func TestFromStatus(t *testing.T) {
	const url = "http://localhost:8000/v1/embed"

	tests := []struct {
		name          string
		status        int
		bodyError     string
		wantType      string
		wantRetryable bool
	}{
		{"400 bad request", 400, "", TypeInvalidRequest, false},
		{"401 unauthorized", 401, "", TypeAuthentication, false},
		{"403 forbidden", 403, "", TypeForbidden, false},
		{"404 not found", 404, "", TypeNotFound, false},
		{"500 plain", 500, "", TypeServer, false},
		{"500 with ValueError body", 500, "ValueError('bad dims')", TypeValue, false},
		{"500 with unknown body", 500, "TypeError('oops')", TypeServer, false},
		{"502 bad gateway", 502, "", TypeConnection, true},
		{"503 unavailable", 503, "", TypeConnection, true},
		{"504 gateway timeout", 504, "", TypeConnection, true},
		{"418 unmapped status", 418, "", TypeServer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStatus("openai", "text-embedding-3-small", tt.status, url, tt.bodyError)
			if err.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", err.Type, tt.wantType)
			}
			if err.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", err.Retryable, tt.wantRetryable)
			}
		})
	}

	t.Run("404 message names the URL", func(t *testing.T) {
		err := FromStatus("openai", "m", 404, url, "")
		if !strings.Contains(err.Message, url) {
			t.Errorf("message should contain the URL, got %q", err.Message)
		}
	})

	t.Run("unmapped status embeds code and status text", func(t *testing.T) {
		err := FromStatus("openai", "m", 418, url, "")
		if !strings.Contains(err.Message, "418") || !strings.Contains(err.Message, "I'm a teapot") {
			t.Errorf("message should embed status code and text, got %q", err.Message)
		}
		if err.StatusCode != 418 {
			t.Errorf("StatusCode = %d, want 418", err.StatusCode)
		}
	})

	t.Run("connection error keeps the real status code", func(t *testing.T) {
		err := FromStatus("openai", "m", 504, url, "")
		if err.StatusCode != 504 {
			t.Errorf("StatusCode = %d, want 504", err.StatusCode)
		}
	})
}

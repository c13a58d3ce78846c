// Package secret provides secret management interfaces and implementations.
// Provider API keys in configuration may be secret references ("env:NAME" or
// "vault:path#key") resolved through one of these backends.
package secret

import (
	"context"
	"strings"
)

// Provider resolves secret references to their values.
type Provider interface {
	// Get retrieves a secret by backend-specific path.
	Get(ctx context.Context, path string) (string, error)

	// Close releases resources held by the provider.
	Close() error
}

// Reference describes a parsed secret reference.
type Reference struct {
	Backend string // "env" or "vault"
	Path    string
}

// ParseReference splits a "backend:path" secret reference.
// Strings with no recognized backend prefix are literals, not references.
func ParseReference(raw string) (Reference, bool) {
	idx := strings.Index(raw, ":")
	if idx <= 0 {
		return Reference{}, false
	}
	backend := raw[:idx]
	switch backend {
	case "env", "vault":
		return Reference{Backend: backend, Path: raw[idx+1:]}, true
	default:
		return Reference{}, false
	}
}

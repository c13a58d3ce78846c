// Package providers provides a unified registry for all embedmux provider
// implementations. It allows automatic provider creation from configuration.
//
// The registry replaces runtime module loading: a provider type that was
// never registered fails at creation time with a configuration-class error
// listing what is available, instead of failing mid-request.
package providers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/embedmux/embedmux/pkg/errors"
	"github.com/embedmux/embedmux/pkg/provider"
	"github.com/embedmux/embedmux/providers/bedrock"
	"github.com/embedmux/embedmux/providers/cohere"
	"github.com/embedmux/embedmux/providers/hfserver"
	"github.com/embedmux/embedmux/providers/multimodal"
	"github.com/embedmux/embedmux/providers/openai"
)

var (
	registry     = make(map[string]provider.Factory)
	registryOnce sync.Once
	registryMu   sync.RWMutex
)

// Register registers a provider factory with the given type name.
func Register(providerType string, factory provider.Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[providerType] = factory
}

// Get returns the factory for the given provider type.
func Get(providerType string) (provider.Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[providerType]
	return f, ok
}

// Create creates a provider instance from configuration.
func Create(cfg provider.Config) (provider.Provider, error) {
	registryMu.RLock()
	factory, ok := registry[cfg.Type]
	registryMu.RUnlock()

	if !ok {
		return nil, errors.NewNotRegisteredError(cfg.Type,
			fmt.Sprintf("unknown provider type: %s (available: %v)", cfg.Type, List()))
	}

	return factory(cfg)
}

// List returns all registered provider type names, sorted.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterBuiltins registers all built-in provider factories.
// This is called automatically on first use.
func RegisterBuiltins() {
	registryOnce.Do(func() {
		Register("openai", openai.NewFromConfig)
		Register("cohere", cohere.NewFromConfig)
		Register("hfserver", hfserver.NewFromConfig)
		Register("multimodal", multimodal.NewFromConfig)
		Register("bedrock", bedrock.NewFromConfig)
	})
}

func init() {
	RegisterBuiltins()
}

package openai

import "github.com/embedmux/embedmux/pkg/provider"

// Option configures the OpenAI provider.
type Option func(*Provider)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(p *Provider) {
		p.apiKey = key
	}
}

// WithBaseURL sets the base URL.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		if url != "" {
			p.baseURL = url
		}
	}
}

// WithModels sets the supported models.
func WithModels(models ...string) Option {
	return func(p *Provider) {
		p.models = models
	}
}

// WithHeader adds a custom header.
func WithHeader(key, value string) Option {
	return func(p *Provider) {
		p.headers[key] = value
	}
}

// WithVariant selects the API shape (current, legacy, or azure).
func WithVariant(v Variant) Option {
	return func(p *Provider) {
		p.variant = v
	}
}

// WithOrganization sets the OpenAI-Organization header value.
func WithOrganization(org string) Option {
	return func(p *Provider) {
		p.organization = org
	}
}

// WithDeployment sets the Azure deployment name.
func WithDeployment(deployment string) Option {
	return func(p *Provider) {
		p.deployment = deployment
	}
}

// WithAPIVersion sets the Azure api-version query parameter.
func WithAPIVersion(version string) Option {
	return func(p *Provider) {
		p.apiVersion = version
	}
}

// WithTokenSource sets a dynamic token source used instead of the API key.
func WithTokenSource(src provider.TokenSource) Option {
	return func(p *Provider) {
		p.tokenSource = src
	}
}

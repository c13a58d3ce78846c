package provider

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidateBaseURL checks that a configured embedding endpoint is a plain
// http(s) URL with nothing smuggled into it. Hosted APIs must point at
// public addresses; self-hosted servers (hfserver, multimodal) pass
// allowPrivate to accept localhost and RFC 1918 deployments.
func ValidateBaseURL(raw string, allowPrivate bool) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url scheme %q is not supported, embedding endpoints must be http or https", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("base_url %q has no host", raw)
	}

	// Credentials, queries, and fragments have no place in an endpoint
	// prefix; request paths are appended by the provider.
	switch {
	case u.User != nil:
		return fmt.Errorf("base_url must not embed credentials, pass the API key through provider config")
	case u.RawQuery != "":
		return fmt.Errorf("base_url must not carry a query string")
	case u.Fragment != "":
		return fmt.Errorf("base_url must not carry a fragment")
	}

	if !allowPrivate && !isPublicHost(u.Hostname()) {
		return fmt.Errorf("base_url host %q is not a public address, only self-hosted embedding servers may target private or loopback hosts", u.Hostname())
	}

	return nil
}

// isPublicHost treats unparseable hostnames as public; DNS resolution is the
// upstream's problem. localhost and non-global IP ranges are private.
func isPublicHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "localhost" || strings.HasSuffix(h, ".localhost") {
		return false
	}

	ip := net.ParseIP(h)
	if ip == nil {
		return true
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return false
	}
	return ip.IsGlobalUnicast()
}

package errors

import (
	"fmt"
	"net/http"
	"regexp"
)

// serverMessagePattern matches server-reported error strings of the shape
// Name('message'), e.g. ValueError('collection not found').
var serverMessagePattern = regexp.MustCompile(`^(\w+)\('(.*)'\)$`)

// ParseServerMessage classifies a server-reported error string.
// Strings shaped like Name('message') with a recognized Name map to a
// specific error kind; unrecognized names and free-form strings fall back
// to a generic server error carrying the full string.
func ParseServerMessage(provider, model, raw string) *EmbedError {
	m := serverMessagePattern.FindStringSubmatch(raw)
	if m == nil {
		return NewServerError(provider, model, raw)
	}

	name, message := m[1], m[2]
	switch name {
	case "ValueError":
		return NewValueError(provider, model, message)
	default:
		return NewServerError(provider, model, raw)
	}
}

// FromStatus maps a non-2xx HTTP status code to a typed error.
// For 500 responses the body error string, when present, is parsed through
// ParseServerMessage. Unlisted status codes produce a generic server error
// whose message embeds the numeric status and status text verbatim.
func FromStatus(provider, model string, statusCode int, url, bodyError string) *EmbedError {
	switch statusCode {
	case http.StatusBadRequest:
		return NewInvalidRequestError(provider, model, "bad request to "+url)
	case http.StatusUnauthorized:
		return NewAuthenticationError(provider, model, "unauthorized request to "+url)
	case http.StatusForbidden:
		return NewForbiddenError(provider, model, "forbidden request to "+url)
	case http.StatusNotFound:
		return NewNotFoundError(provider, model, "resource not found: "+url)
	case http.StatusInternalServerError:
		if bodyError != "" {
			return ParseServerMessage(provider, model, bodyError)
		}
		return NewServerError(provider, model, "internal server error from "+url)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		e := NewConnectionError(provider, model,
			fmt.Sprintf("upstream unavailable (%d %s): %s", statusCode, http.StatusText(statusCode), url))
		e.StatusCode = statusCode
		return e
	default:
		e := NewServerError(provider, model,
			fmt.Sprintf("unexpected response %d %s from %s", statusCode, http.StatusText(statusCode), url))
		e.StatusCode = statusCode
		return e
	}
}

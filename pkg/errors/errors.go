// Package errors defines unified error types for embedding gateway operations.
// Transport failures, HTTP status codes, and server-reported error strings are
// all mapped to this single taxonomy so callers can branch on error kind.
package errors

import (
	"fmt"
	"net/http"
)

// EmbedError represents a classified error from an embedding provider call.
// It carries everything needed for error handling, logging, and caller response.
type EmbedError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Retryable  bool   `json:"-"`
}

// Error implements the error interface.
func (e *EmbedError) Error() string {
	return fmt.Sprintf("[%s] %s (provider=%s, model=%s, code=%d)",
		e.Type, e.Message, e.Provider, e.Model, e.StatusCode)
}

// HTTPStatusCode returns the appropriate HTTP status code for the error.
func (e *EmbedError) HTTPStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// Common error types as constants for consistency.
const (
	TypeInvalidRequest = "invalid_request_error"
	TypeAuthentication = "authentication_error"
	TypeForbidden      = "forbidden_error"
	TypeNotFound       = "not_found_error"
	TypeServer         = "server_error"
	TypeValue          = "value_error"
	TypeConnection     = "connection_error"
	TypeConfiguration  = "configuration_error"
	TypeNotRegistered  = "provider_not_registered"
)

// NewInvalidRequestError creates an invalid request error (400).
func NewInvalidRequestError(provider, model, message string) *EmbedError {
	return &EmbedError{
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Type:       TypeInvalidRequest,
		Provider:   provider,
		Model:      model,
		Retryable:  false,
	}
}

// NewAuthenticationError creates an authentication error (401).
func NewAuthenticationError(provider, model, message string) *EmbedError {
	return &EmbedError{
		StatusCode: http.StatusUnauthorized,
		Message:    message,
		Type:       TypeAuthentication,
		Provider:   provider,
		Model:      model,
		Retryable:  false,
	}
}

// NewForbiddenError creates a forbidden error (403).
func NewForbiddenError(provider, model, message string) *EmbedError {
	return &EmbedError{
		StatusCode: http.StatusForbidden,
		Message:    message,
		Type:       TypeForbidden,
		Provider:   provider,
		Model:      model,
		Retryable:  false,
	}
}

// NewNotFoundError creates a not found error (404).
func NewNotFoundError(provider, model, message string) *EmbedError {
	return &EmbedError{
		StatusCode: http.StatusNotFound,
		Message:    message,
		Type:       TypeNotFound,
		Provider:   provider,
		Model:      model,
		Retryable:  false,
	}
}

// NewServerError creates a server error (500).
func NewServerError(provider, model, message string) *EmbedError {
	return &EmbedError{
		StatusCode: http.StatusInternalServerError,
		Message:    message,
		Type:       TypeServer,
		Provider:   provider,
		Model:      model,
		Retryable:  false,
	}
}

// NewValueError creates a value error. Servers report these as a
// ValueError('...') string inside a 500 response or a 2xx body error field.
func NewValueError(provider, model, message string) *EmbedError {
	return &EmbedError{
		StatusCode: http.StatusInternalServerError,
		Message:    message,
		Type:       TypeValue,
		Provider:   provider,
		Model:      model,
		Retryable:  false,
	}
}

// NewConnectionError creates a connection error (502/503/504 or transport failure).
func NewConnectionError(provider, model, message string) *EmbedError {
	return &EmbedError{
		StatusCode: http.StatusBadGateway,
		Message:    message,
		Type:       TypeConnection,
		Provider:   provider,
		Model:      model,
		Retryable:  true,
	}
}

// NewConfigurationError creates a configuration error for a missing or
// invalid option. No status code applies; the request never left the process.
func NewConfigurationError(provider, model, message string) *EmbedError {
	return &EmbedError{
		Message:   message,
		Type:      TypeConfiguration,
		Provider:  provider,
		Model:     model,
		Retryable: false,
	}
}

// NewNotRegisteredError creates an error for an unknown provider type.
// Provider availability is decided at registration time, not at call time,
// so an unknown type surfaces here instead of as a runtime load failure.
func NewNotRegisteredError(providerType, message string) *EmbedError {
	return &EmbedError{
		Message:   message,
		Type:      TypeNotRegistered,
		Provider:  providerType,
		Retryable: false,
	}
}

// IsType reports whether err is an *EmbedError with the given type constant.
func IsType(err error, errType string) bool {
	e, ok := err.(*EmbedError)
	return ok && e.Type == errType
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return IsType(err, TypeConfiguration)
}

// IsConnection reports whether err is a connection error.
func IsConnection(err error) bool {
	return IsType(err, TypeConnection)
}

// Package httputil reads upstream embedding payloads with guardrails.
package httputil

import (
	"errors"
	"io"
)

// DefaultMaxResponseBodyBytes caps embedding responses at 10MB. A batch of a
// few hundred float vectors serializes well under that, and provider error
// payloads are tiny; anything bigger is a misbehaving server.
const DefaultMaxResponseBodyBytes int64 = 10 << 20

// ErrResponseBodyTooLarge marks a response body that overran the cap.
var ErrResponseBodyTooLarge = errors.New("response body exceeds size limit")

// ReadLimitedBody drains reader up to maxBytes. On overflow it returns the
// first maxBytes together with ErrResponseBodyTooLarge, so callers can still
// log a prefix of the payload. maxBytes <= 0 disables the cap.
func ReadLimitedBody(reader io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(reader)
	}

	// Read one byte past the cap to tell "exactly at" apart from "over".
	body, err := io.ReadAll(io.LimitReader(reader, maxBytes+1))
	if err != nil {
		return body, err
	}
	if int64(len(body)) > maxBytes {
		return body[:int(maxBytes)], ErrResponseBodyTooLarge
	}
	return body, nil
}

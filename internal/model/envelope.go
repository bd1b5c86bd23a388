// Package model defines the data shapes shared across the pipeline:
// the reply envelope, invocation requests and their options, and the
// destination classification used by the per-destination limiter.
//
// DESIGN: these types are defined once here to avoid circular imports
// between the pipeline, cache, upload, and transport packages.
package model

import "encoding/json"

// Envelope is the canonical reply shape returned by every invocation,
// whether the call actually reached the upstream platform or was
// short-circuited by validation, caching, or admission control.
type Envelope struct {
	OK          bool               `json:"ok"`
	Result      json.RawMessage    `json:"result,omitempty"`
	Description string             `json:"description,omitempty"`
	ErrorCode   *int               `json:"error_code,omitempty"`
	Parameters  *EnvelopeParams    `json:"parameters,omitempty"`
}

// EnvelopeParams carries out-of-band hints attached to a failure, such
// as the server-suggested retry delay.
type EnvelopeParams struct {
	RetryAfterSeconds *int `json:"retry_after_seconds,omitempty"`
}

// Success builds an ok envelope wrapping a raw JSON result.
func Success(result json.RawMessage) *Envelope {
	return &Envelope{OK: true, Result: result}
}

// Failure builds a failed envelope. errorCode is nil for network/transport
// failures that never produced an HTTP-shaped reply.
func Failure(description string, errorCode *int) *Envelope {
	return &Envelope{OK: false, Description: description, ErrorCode: errorCode}
}

// FailureWithRetryAfter builds a failed envelope carrying a retry hint.
func FailureWithRetryAfter(description string, errorCode int, retryAfterSeconds int) *Envelope {
	return &Envelope{
		OK:          false,
		Description: description,
		ErrorCode:   &errorCode,
		Parameters:  &EnvelopeParams{RetryAfterSeconds: &retryAfterSeconds},
	}
}

// IntPtr is a small helper for building *int fields inline.
func IntPtr(v int) *int { return &v }

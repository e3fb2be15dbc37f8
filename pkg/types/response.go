// Package types defines the JSON envelopes the portal API writes.
package types

// SuccessEnvelope wraps every 2xx payload the gateway returns.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire form of a coded gateway error. Details carries
// field-level validation messages when the error code allows them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx payload.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

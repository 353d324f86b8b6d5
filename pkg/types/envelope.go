// Package types holds the JSON envelopes shared by every HTTP response.
package types

// SuccessEnvelope wraps a successful payload as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a failed request. RequestID echoes the
// X-Request-Id header so callers can quote it back when reporting a failure.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

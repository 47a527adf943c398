package types

// SuccessEnvelope wraps every successful API payload under a "data" key so
// the storefront client can decode responses uniformly.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Code is a stable machine-readable
// string; Message is safe to show to customers.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps APIError under an "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

package types

// SuccessEnvelope is the wire shape of every 2xx response: the payload sits
// under a single data key so clients always unwrap the same structure.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing form of a typed error. Details carries
// structured context only for codes that allow it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope is the wire shape of every error response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewErrorEnvelope builds the error envelope for a code and message.
func NewErrorEnvelope(code, message string) ErrorEnvelope {
	return ErrorEnvelope{Error: APIError{Code: code, Message: message}}
}

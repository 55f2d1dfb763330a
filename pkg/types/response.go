package types

// SuccessEnvelope wraps every successful JSON payload as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a failure. Details carries field-level
// validation messages when the error code allows them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewErrorEnvelope builds an error body; nil or empty details are omitted.
func NewErrorEnvelope(code, message string, details any) ErrorEnvelope {
	env := ErrorEnvelope{Error: APIError{Code: code, Message: message}}
	switch d := details.(type) {
	case nil:
	case map[string]string:
		if len(d) > 0 {
			env.Error.Details = d
		}
	case map[string]any:
		if len(d) > 0 {
			env.Error.Details = d
		}
	default:
		env.Error.Details = details
	}
	return env
}

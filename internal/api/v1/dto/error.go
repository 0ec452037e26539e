package dto

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Fields  []FieldError `json:"fields,omitempty"`
	Details string       `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

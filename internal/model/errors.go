package model

import "errors"

// Validation reasons surfaced in error details.
const (
	ReasonMissingFile = "missing_file"
	ReasonMissingText = "missing_text"
	ReasonWrongType   = "wrong_type"
	ReasonTooLarge    = "too_large"
)

// ValidationError is a client-fault rejection of an input. It always maps to
// a 400 response.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ErrNotFound marks an absent asset. Maps to a 404 response.
var ErrNotFound = errors.New("not found")

package keywords

import (
	"errors"
	"fmt"
)

// ErrMissingKeywords is wrapped by MalformedInputError when a record has no
// usable keyword list.
var ErrMissingKeywords = errors.New("extracted_keywords is missing or not a list of strings")

// MalformedInputError reports a record that cannot be used for matching.
type MalformedInputError struct {
	Path    string
	Message string
	Cause   error
}

func (e *MalformedInputError) Error() string {
	where := e.Path
	if where == "" {
		where = "record"
	}
	if e.Cause != nil {
		return fmt.Sprintf("malformed %s: %s: %v", where, e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed %s: %s", where, e.Message)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Cause
}

// FieldError is a single schema violation.
type FieldError struct {
	Field   string
	Message string
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

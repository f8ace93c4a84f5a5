package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid field: %s", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Field)
}

func missing(field string) error {
	return ValidationError{Field: field, Reason: "missing required field"}
}

func invalid(field, reason string) error {
	return ValidationError{Field: field, Reason: reason}
}

// withPrefix scopes a validation error to a nested field (permits[2].title).
func withPrefix(prefix string, err error) error {
	var ve ValidationError
	if errors.As(err, &ve) {
		ve.Field = prefix + "." + ve.Field
		return ve
	}
	return err
}

package consumption

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Source when the production order does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports a bad request argument.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// DependencyError reports a failed upstream fetch. It is never retried here.
type DependencyError struct {
	Source string
	Err    error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s fetch failed: %v", e.Source, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsDependency(err error) bool {
	var d *DependencyError
	return errors.As(err, &d)
}

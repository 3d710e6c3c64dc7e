package contract

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoForbiddenFields is returned by Verifier.VerifySensitiveFieldExposure when it is given no
// fields to look for.
var ErrNoForbiddenFields = errors.New("no forbidden fields declared")

// SchemaViolationError describes a response that did not match the declared shape.
type SchemaViolationError struct {
	// Field is the dotted path of the offending field. It is empty if the problem is with the
	// body as a whole.
	Field  string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	if e.Field == "" {
		return "schema violation: " + e.Reason
	}
	return fmt.Sprintf("schema violation in field %q: %s", e.Field, e.Reason)
}

// SecurityViolationError describes a forbidden field found in a response. It never carries the
// field's value.
type SecurityViolationError struct {
	Field string
}

func (e *SecurityViolationError) Error() string {
	return fmt.Sprintf("security violation: forbidden field %q is exposed", e.Field)
}

// RequestError wraps an error that prevented a request from completing.
type RequestError struct {
	Method string
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s failed: %s", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// UnexpectedStatusError describes a response status that the probe did not allow.
type UnexpectedStatusError struct {
	Status  int
	Allowed []int
}

func (e *UnexpectedStatusError) Error() string {
	allowed := make([]string, 0, len(e.Allowed))
	for _, s := range e.Allowed {
		allowed = append(allowed, fmt.Sprint(s))
	}
	return fmt.Sprintf("unexpected status %d (expected %s)", e.Status, strings.Join(allowed, " or "))
}

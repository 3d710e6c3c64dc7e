package contract

import (
	"fmt"
	"strings"
	"time"
)

// Names of the probes in a standard sequence.
const (
	ProbeList            = "list"
	ProbeListLimit       = "list with limit"
	ProbeFieldShapes     = "field shapes"
	ProbeGet             = "get"
	ProbeGetMissing      = "get missing"
	ProbeCreate          = "create"
	ProbeCreateInvalid   = "create invalid"
	ProbeReplace         = "replace"
	ProbeReplaceInvalid  = "replace invalid"
	ProbePatch           = "patch"
	ProbePatchInvalid    = "patch invalid"
	ProbeDelete          = "delete"
	ProbeDeleteMissing   = "delete missing"
	ProbeSensitiveFields = "sensitive fields"
	ProbeOwnerFilter     = "owner filter"
)

// RequestInfo identifies the request that a probe made.
type RequestInfo struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

func (r RequestInfo) String() string {
	return r.Method + " " + r.URL
}

// ProbeResult is the outcome of one probe. Every result refers to exactly one request; a check
// that inspects data from an earlier request, such as the field shapes of a listed item, refers to
// that request.
type ProbeResult struct {
	Resource       string
	Probe          string
	Request        RequestInfo
	Status         int // zero if there was no response
	Classification Classification

	// Notes are human-readable observations, such as which invalid field the service accepted.
	// They never contain the values of sensitive fields.
	Notes []string

	// Field is the offending field for schema and security violations.
	Field string

	// Err is the underlying error for anything other than Expected.
	Err error

	Elapsed time.Duration

	// BodyDigest is an xxhash of the raw response body, for comparing runs without storing bodies.
	BodyDigest uint64
}

func (r ProbeResult) withNote(format string, args ...interface{}) ProbeResult {
	r.Notes = append(append([]string(nil), r.Notes...), fmt.Sprintf(format, args...))
	return r
}

func (r ProbeResult) classify(c Classification, err error) ProbeResult {
	r.Classification = c
	r.Err = err
	return r
}

func (r ProbeResult) violation(field, reason string) ProbeResult {
	r.Classification = SchemaViolation
	r.Field = field
	r.Err = &SchemaViolationError{Field: field, Reason: reason}
	return r
}

// Summary is a one-line description of the result.
func (r ProbeResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", r.Probe, r.Classification)
	if r.Request.Method != "" {
		fmt.Fprintf(&b, " [%s", r.Request)
		if r.Status != 0 {
			fmt.Fprintf(&b, " -> %d", r.Status)
		}
		b.WriteString("]")
	}
	if r.Err != nil {
		fmt.Fprintf(&b, ": %s", r.Err)
	}
	if len(r.Notes) != 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(r.Notes, "; "))
	}
	return b.String()
}

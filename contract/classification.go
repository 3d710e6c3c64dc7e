package contract

import (
	"fmt"
)

// Classification is the outcome category of a probe.
type Classification int

const (
	// Expected means the remote service behaved as the contract says.
	Expected Classification = iota

	// UnexpectedSuccess means the service accepted a request that it should have rejected, such
	// as an invalid payload or an operation on a missing id.
	UnexpectedSuccess

	// UnexpectedFailure means the service rejected a request that it should have accepted.
	UnexpectedFailure

	// Unvalidated means the probe could not reach a conclusion, for instance because there was no
	// sample data to check.
	Unvalidated

	// SchemaViolation means a response did not have the declared shape or field types.
	SchemaViolation

	// SecurityViolation means a response contained a field that must never be exposed.
	SecurityViolation

	// TransportError means the request could not be completed at all.
	TransportError
)

var classificationNames = map[Classification]string{ //nolint:gochecknoglobals
	Expected:          "Expected",
	UnexpectedSuccess: "UnexpectedSuccess",
	UnexpectedFailure: "UnexpectedFailure",
	Unvalidated:       "Unvalidated",
	SchemaViolation:   "SchemaViolation",
	SecurityViolation: "SecurityViolation",
	TransportError:    "TransportError",
}

// AllClassifications returns every classification in declaration order.
func AllClassifications() []Classification {
	return []Classification{
		Expected, UnexpectedSuccess, UnexpectedFailure, Unvalidated,
		SchemaViolation, SecurityViolation, TransportError,
	}
}

func (c Classification) String() string {
	if name, ok := classificationNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Classification(%d)", int(c))
}

// IsHardFailure returns true for outcomes that mean the harness's own expectations about a
// well-formed, non-leaking, working service were violated.
func (c Classification) IsHardFailure() bool {
	return c == SchemaViolation || c == SecurityViolation || c == UnexpectedFailure
}

// IsSoftFailure returns true for outcomes that are recorded and reported in aggregate but do not
// fail a run: the service was more lenient than it should be, or could not be reached.
func (c Classification) IsSoftFailure() bool {
	return c == UnexpectedSuccess || c == TransportError
}

// MarshalText encodes the classification as its name.
func (c Classification) MarshalText() ([]byte, error) {
	if _, ok := classificationNames[c]; !ok {
		return nil, fmt.Errorf("unknown classification %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a classification name.
func (c *Classification) UnmarshalText(data []byte) error {
	for value, name := range classificationNames {
		if name == string(data) {
			*c = value
			return nil
		}
	}
	return fmt.Errorf("unknown classification %q", string(data))
}

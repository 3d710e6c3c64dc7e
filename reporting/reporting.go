// Package reporting contains the consumers of probe results: a console summary, a JSON report
// file, a Redis publisher, a live event feed, and Prometheus metrics.
//
// An Observer sees each ProbeResult as soon as it is recorded; a Reporter sees the finished
// ProbeReport for a resource kind. Resource kinds are verified concurrently, so every
// implementation must be safe for concurrent use.
package reporting

import (
	"context"
	"errors"

	"github.com/launchdarkly/crud-contract-tests/contract"
)

// Observer is notified of each probe result as it is recorded.
type Observer interface {
	ProbeRecorded(result contract.ProbeResult)
}

// Reporter receives the finished report for a resource kind.
type Reporter interface {
	Report(ctx context.Context, report contract.ProbeReport) error
}

// Multi fans out to several reporters and observers. Each member may implement either
// interface or both.
type Multi []interface{}

func (m Multi) ProbeRecorded(result contract.ProbeResult) {
	for _, member := range m {
		if o, ok := member.(Observer); ok {
			o.ProbeRecorded(result)
		}
	}
}

// Report calls every Reporter, even if an earlier one fails, and returns all of their errors.
func (m Multi) Report(ctx context.Context, report contract.ProbeReport) error {
	var errs []error
	for _, member := range m {
		if r, ok := member.(Reporter); ok {
			if err := r.Report(ctx, report); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

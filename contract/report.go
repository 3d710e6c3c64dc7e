package contract

import (
	"time"
)

// ProbeReport is the ordered outcome of all probes for one resource kind in one run. It cannot be
// modified once built.
type ProbeReport struct {
	runID    string
	resource string
	started  time.Time
	finished time.Time
	results  []ProbeResult
}

func (r ProbeReport) RunID() string       { return r.runID }
func (r ProbeReport) Resource() string    { return r.resource }
func (r ProbeReport) Started() time.Time  { return r.started }
func (r ProbeReport) Finished() time.Time { return r.finished }
func (r ProbeReport) Len() int            { return len(r.results) }

func (r ProbeReport) Duration() time.Duration {
	return r.finished.Sub(r.started)
}

// Results returns a copy of the results in execution order.
func (r ProbeReport) Results() []ProbeResult {
	return append([]ProbeResult(nil), r.results...)
}

// Counts returns the number of results for each classification. Every classification has an
// entry, even if it is zero.
func (r ProbeReport) Counts() map[Classification]int {
	counts := make(map[Classification]int, len(classificationNames))
	for _, c := range AllClassifications() {
		counts[c] = 0
	}
	for _, result := range r.results {
		counts[result.Classification]++
	}
	return counts
}

// HardFailures returns the results with hard-failure classifications, in execution order.
func (r ProbeReport) HardFailures() []ProbeResult {
	return r.filter(Classification.IsHardFailure)
}

// SoftFailures returns the results with soft-failure classifications, in execution order.
func (r ProbeReport) SoftFailures() []ProbeResult {
	return r.filter(Classification.IsSoftFailure)
}

func (r ProbeReport) filter(fn func(Classification) bool) []ProbeResult {
	var ret []ProbeResult
	for _, result := range r.results {
		if fn(result.Classification) {
			ret = append(ret, result)
		}
	}
	return ret
}

// ReportBuilder accumulates results for a ProbeReport. It is not safe for concurrent use; each
// resource kind has its own.
type ReportBuilder struct {
	report ProbeReport
	now    func() time.Time
}

// NewReportBuilder starts a report for one resource kind.
func NewReportBuilder(runID, resource string) *ReportBuilder {
	b := &ReportBuilder{now: time.Now}
	b.report = ProbeReport{runID: runID, resource: resource, started: b.now()}
	return b
}

// Add appends a result, filling in the resource name if it is missing.
func (b *ReportBuilder) Add(result ProbeResult) {
	if result.Resource == "" {
		result.Resource = b.report.resource
	}
	b.report.results = append(b.report.results, result)
}

// Build returns the finished report. Results added afterward do not affect it.
func (b *ReportBuilder) Build() ProbeReport {
	ret := b.report
	ret.finished = b.now()
	ret.results = append([]ProbeResult(nil), b.report.results...)
	return ret
}

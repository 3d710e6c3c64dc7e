package ldtest

import (
	"strings"
	"time"
)

// Results is the outcome of a test run.
type Results struct {
	// Tests has an entry for every test that ran, in the order that they finished.
	Tests []TestResult

	// Failures has the tests that failed and were not marked as non-critical.
	Failures []TestResult

	// NonCriticalFailures has the tests that failed after calling T.NonCritical.
	NonCriticalFailures []TestResult
}

// TestResult is the outcome of a single test scope.
type TestResult struct {
	TestID      TestID
	Errors      []error
	NonCritical bool
	Explanation string
	Duration    time.Duration
}

// OK returns true if there were no critical failures.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Merge returns the combined results of two runs. The unnamed root scope of each run is dropped,
// since it only exists to hold the named tests.
func (r Results) Merge(other Results) Results {
	return Results{
		Tests:               append(withoutRoot(r.Tests), withoutRoot(other.Tests)...),
		Failures:            append(withoutRoot(r.Failures), withoutRoot(other.Failures)...),
		NonCriticalFailures: append(withoutRoot(r.NonCriticalFailures), withoutRoot(other.NonCriticalFailures)...),
	}
}

func withoutRoot(results []TestResult) []TestResult {
	ret := make([]TestResult, 0, len(results))
	for _, tr := range results {
		if len(tr.TestID) != 0 {
			ret = append(ret, tr)
		}
	}
	return ret
}

// TestID is the full path of a test, from the top-level test down to the subtest.
type TestID []string

func (t TestID) String() string {
	return strings.Join(t, "/")
}

// Plus returns a new TestID for a subtest. The original is not modified.
func (t TestID) Plus(name string) TestID {
	ret := make(TestID, 0, len(t)+1)
	return append(append(ret, t...), name)
}

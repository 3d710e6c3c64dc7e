package ldtest

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/launchdarkly/crud-contract-tests/framework"
)

type environment struct {
	config  TestConfiguration
	results Results
}

// T represents a test scope. It is very similar to Go's testing.T type.
type T struct {
	env         *environment
	id          TestID
	debugLogger framework.CapturingLogger
	nonCritical string
	failed      bool
	skipped     bool
	skipReason  string
	cleanups    []func()
	errors      []error
	helperFns   []string
}

// TestConfiguration contains options for the entire test run.
type TestConfiguration struct {
	// Filter is an optional function for determining which tests to run based on their names.
	Filter Filter

	// TestLogger receives status information about each test. It may be shared by runs that
	// happen concurrently, so implementations must be safe for concurrent use.
	TestLogger TestLogger

	// Context is an optional application-defined value that tests can retrieve with T.Context.
	Context interface{}

	// Capabilities is used by T.Capabilities and T.RequireCapability.
	Capabilities framework.Capabilities
}

// Run starts a top-level test scope and returns the results of everything that ran inside it.
//
// Separate calls to Run do not share any state except for the TestLogger, so several runs can
// proceed in parallel goroutines.
func Run(config TestConfiguration, action func(*T)) Results {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	env := &environment{config: config}
	t := &T{env: env}
	t.run(action)
	return env.results
}

func (t *T) run(action func(*T)) (result TestResult) {
	result.TestID = t.id
	startTime := time.Now()
	defer func() {
		if r := recover(); r != nil {
			t.recordPanic(r)
		}
		result.Errors = t.errors
		result.Duration = time.Since(startTime)
		if t.failed && !t.skipped {
			if t.nonCritical == "" {
				t.env.results.Failures = append(t.env.results.Failures, result)
			} else {
				result.NonCritical = true
				result.Explanation = t.nonCritical
				t.env.results.NonCriticalFailures = append(t.env.results.NonCriticalFailures, result)
			}
		}
		if !t.skipped {
			t.env.results.Tests = append(t.env.results.Tests, result)
		}
		for i := len(t.cleanups) - 1; i >= 0; i-- {
			t.cleanups[i]()
		}
	}()

	action(t)
	return result
}

func (t *T) recordPanic(r interface{}) {
	if t.skipped {
		return
	}
	t.failed = true
	var err error
	if _, ok := r.(*T); ok {
		if len(t.errors) == 0 {
			err = errors.New("test failed with no failure message")
		}
	} else {
		err = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
	}
	if err != nil {
		t.errors = append(t.errors, err)
		t.env.config.TestLogger.TestError(t.id, err)
	}
}

// ID returns the full name of the current test.
func (t *T) ID() TestID {
	return t.id
}

// Run runs a subtest in its own scope. This is equivalent to Go's testing.T.Run.
func (t *T) Run(name string, action func(*T)) {
	id := t.id.Plus(name)
	logger := t.env.config.TestLogger

	logger.TestStarted(id)
	if t.env.config.Filter != nil && !t.env.config.Filter(id) {
		logger.TestSkipped(id, "excluded by filter parameters")
		return
	}

	child := &T{id: id, env: t.env}
	t.debugLogger.AddChildLogger(&child.debugLogger) // see DebugLogger
	result := child.run(action)
	t.debugLogger.RemoveChildLogger(&child.debugLogger)

	if child.skipped {
		logger.TestSkipped(id, child.skipReason)
		return
	}
	logger.TestFinished(id, result, child.debugLogger.Output())
}

// NonCritical indicates that if this test fails, we want to know about it but it should not
// fail the run. The failure is reported separately along with the explanation, and does not
// cause a non-zero exit code.
func (t *T) NonCritical(explanation string) {
	t.nonCritical = explanation
}

// Errorf reports a test failure without terminating the test. It is equivalent to Go's
// testing.T.Errorf, and makes T usable with assert and require.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	err := transformError(fmt.Errorf(format, args...), getStacktrace(false, t.helperFns))
	t.errors = append(t.errors, err)
	t.env.config.TestLogger.TestError(t.id, err)
}

// FailNow causes the test to immediately terminate and be marked as failed.
func (t *T) FailNow() {
	panic(t)
}

// Failed returns true if any failure has been reported in this scope.
func (t *T) Failed() bool {
	return t.failed
}

// Skip causes the test to immediately terminate and be marked as skipped.
func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

// SkipWithReason is equivalent to Skip but provides a message.
func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Debug writes a message to the captured output for this test scope.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns a Logger for writing output for this test scope.
//
// The captured output is passed to TestLogger.TestFinished at the end of the test, and the
// runner decides whether to display it based on command-line options.
//
// A subtest's logger starts with a copy of whatever the parent had logged so far, and while the
// subtest is running, anything sent to the parent's logger goes to the subtest instead. This lets
// a parent scope hand its logger to a long-lived component, such as an HTTP transport, and still
// have that component's output attributed to whichever subtest is active.
func (t *T) DebugLogger() framework.Logger {
	return &t.debugLogger
}

// Defer schedules a cleanup function to be called when this test scope exits for any reason.
func (t *T) Defer(cleanupFn func()) {
	t.cleanups = append(t.cleanups, cleanupFn)
}

// Context returns the application-defined value from TestConfiguration, if any.
func (t *T) Context() interface{} {
	return t.env.config.Context
}

// Capabilities returns the capabilities from TestConfiguration.
func (t *T) Capabilities() framework.Capabilities {
	return append(framework.Capabilities(nil), t.env.config.Capabilities...)
}

// RequireCapability causes the test to be skipped if the named capability is not present.
func (t *T) RequireCapability(name string) {
	if !t.Capabilities().Has(name) {
		t.SkipWithReason(fmt.Sprintf("not configured for %q", name))
	}
}

// Helper marks the calling function as a test helper that shouldn't appear in stacktraces.
// Equivalent to Go's testing.T.Helper().
func (t *T) Helper() {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return
	}
	if f := runtime.FuncForPC(pc); f != nil {
		t.helperFns = append(t.helperFns, f.Name())
	}
}

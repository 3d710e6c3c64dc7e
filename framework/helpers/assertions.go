package helpers

import (
	"context"
	"time"
)

// PollForSpecificResultValue calls testFn at intervals until it returns expectedValue or the
// timeout elapses. It returns true if the value was seen.
func PollForSpecificResultValue[V comparable](
	testFn func() V,
	timeout time.Duration,
	interval time.Duration,
	expectedValue V,
) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return PollUntil(ctx, interval, func() bool { return testFn() == expectedValue })
}

// PollUntil calls testFn immediately and then at intervals until it returns true or the context
// is done. It returns false if the context ended first.
func PollUntil(ctx context.Context, interval time.Duration, testFn func() bool) bool {
	if testFn() {
		return true
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if testFn() {
				return true
			}
		}
	}
}

// AssertEventually is like assert.Eventually, but does not start a separate goroutine, so it is
// safe to use with ldtest scopes.
func AssertEventually(
	t TestContext,
	testFn func() bool,
	timeout time.Duration,
	interval time.Duration,
	failureMsgFormat string,
	failureMsgArgs ...interface{},
) bool {
	t.Helper()
	if PollForSpecificResultValue(testFn, timeout, interval, true) {
		return true
	}
	t.Errorf(failureMsgFormat, failureMsgArgs...)
	return false
}

package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func makePollTestFn[V any](initialValue, finalValue V, countBeforeFinalValue int) func() V {
	counter := 0
	return func() V {
		counter++
		if counter <= countBeforeFinalValue {
			return initialValue
		}
		return finalValue
	}
}

func TestPollForSpecificResultValue(t *testing.T) {
	t.Run("value is seen", func(t *testing.T) {
		assert.True(t, PollForSpecificResultValue(makePollTestFn("a", "b", 1), time.Second, time.Millisecond, "b"))
	})

	t.Run("value is not seen", func(t *testing.T) {
		assert.False(t, PollForSpecificResultValue(makePollTestFn("a", "b", 1000), time.Millisecond*10, time.Millisecond, "b"))
	})
}

func TestPollUntilStopsWhenContextIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, PollUntil(ctx, time.Millisecond, func() bool { return false }))
	assert.True(t, PollUntil(ctx, time.Millisecond, func() bool { return true }))
}

func TestAssertEventually(t *testing.T) {
	t.Run("value is seen", func(t *testing.T) {
		var tr TestRecorder
		assert.True(t, AssertEventually(&tr, makePollTestFn(false, true, 1), time.Second, time.Millisecond, "sorry %s", "no"))
		assert.Len(t, tr.Errors, 0)
	})

	t.Run("value is not seen", func(t *testing.T) {
		var tr TestRecorder
		assert.False(t, AssertEventually(&tr, makePollTestFn(false, true, 1000), time.Millisecond*10, time.Millisecond, "sorry %s", "no"))
		assert.Equal(t, []string{"sorry no"}, tr.Errors)
		assert.False(t, tr.Terminated)
	})
}

package reporting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/launchdarkly/crud-contract-tests/contract"
	"github.com/launchdarkly/crud-contract-tests/framework/helpers"

	"github.com/launchdarkly/eventsource"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireEvent(t *testing.T, stream *eventsource.Stream) eventsource.Event {
	return helpers.RequireValueWithMessage[eventsource.Event](t, stream.Events, time.Second*5, "timed out waiting for event")
}

func TestLiveFeedReplaysAndStreams(t *testing.T) {
	testLog := ldlogtest.NewMockLog()
	testLog.Loggers.SetMinLevel(ldlog.Debug)
	defer testLog.DumpIfTestFailed(t)

	feed := NewLiveFeed(testLog.Loggers.ForLevel(ldlog.Debug))
	defer feed.Close()

	feed.ProbeRecorded(makeResult("posts", contract.ProbeList, contract.Expected))

	httphelpers.WithServer(feed.Handler(), func(server *httptest.Server) {
		req, _ := http.NewRequest("GET", server.URL, nil)
		stream, err := eventsource.SubscribeWithRequest("", req)
		require.NoError(t, err)
		defer stream.Close()

		replayed := requireEvent(t, stream)
		assert.Equal(t, LiveFeedProbeEvent, replayed.Event())
		assert.Equal(t, "1", replayed.Id())
		assert.Equal(t, "list", ldvalue.Parse([]byte(replayed.Data())).GetByKey("probe").StringValue())

		go func() {
			_ = feed.Report(context.Background(), makeReport("posts"))
		}()

		live := requireEvent(t, stream)
		assert.Equal(t, LiveFeedReportEvent, live.Event())
		assert.Equal(t, "posts", ldvalue.Parse([]byte(live.Data())).GetByKey("resource").StringValue())
	})
}

func TestLiveFeedStreamsConcurrentEventsInIDOrder(t *testing.T) {
	feed := NewLiveFeed(nil)
	defer feed.Close()

	feed.ProbeRecorded(makeResult("posts", contract.ProbeList, contract.Expected))

	httphelpers.WithServer(feed.Handler(), func(server *httptest.Server) {
		req, _ := http.NewRequest("GET", server.URL, nil)
		stream, err := eventsource.SubscribeWithRequest("", req)
		require.NoError(t, err)
		defer stream.Close()

		assert.Equal(t, "1", requireEvent(t, stream).Id())

		const count = 20
		var wg sync.WaitGroup
		for i := 0; i < count; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				feed.ProbeRecorded(makeResult("todos", contract.ProbeGet, contract.Expected))
			}()
		}
		wg.Wait()

		for i := 0; i < count; i++ {
			assert.Equal(t, strconv.Itoa(i+2), requireEvent(t, stream).Id())
		}
	})
}

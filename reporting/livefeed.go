package reporting

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/launchdarkly/crud-contract-tests/contract"
	"github.com/launchdarkly/crud-contract-tests/framework"

	"github.com/launchdarkly/eventsource"
)

// Event names on the live feed.
const (
	LiveFeedProbeEvent  = "probe"
	LiveFeedReportEvent = "report"
)

const liveFeedChannel = "results"

type eventSourceDebugLogger struct {
	logger framework.Logger
}

func (l eventSourceDebugLogger) Println(args ...interface{}) {
	l.logger.Printf("%s", fmt.Sprint(args...))
}

func (l eventSourceDebugLogger) Printf(format string, args ...interface{}) {
	l.logger.Printf(format, args...)
}

type liveFeedEvent struct {
	id   string
	name string
	data []byte
}

func (e liveFeedEvent) Event() string { return e.name }
func (e liveFeedEvent) Id() string    { return e.id } //nolint:stylecheck
func (e liveFeedEvent) Data() string  { return string(e.data) }

// LiveFeed publishes probe results and finished reports as server-sent events. A subscriber that
// connects late receives every event published so far before the live ones.
type LiveFeed struct {
	streams     *eventsource.Server
	history     []eventsource.Event
	lock        sync.Mutex
	publishLock sync.Mutex
}

// NewLiveFeed creates a LiveFeed.
func NewLiveFeed(debugLogger framework.Logger) *LiveFeed {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	streams := eventsource.NewServer()
	streams.ReplayAll = true
	streams.Logger = eventSourceDebugLogger{debugLogger}

	f := &LiveFeed{streams: streams}
	streams.Register(liveFeedChannel, f)
	return f
}

// Handler returns the HTTP handler for subscribers.
func (f *LiveFeed) Handler() http.Handler {
	return f.streams.Handler(liveFeedChannel)
}

func (f *LiveFeed) ProbeRecorded(result contract.ProbeResult) {
	f.publish(LiveFeedProbeEvent, EncodeProbeResult(result))
}

func (f *LiveFeed) Report(_ context.Context, report contract.ProbeReport) error {
	f.publish(LiveFeedReportEvent, EncodeReport(report))
	return nil
}

func (f *LiveFeed) publish(name string, data []byte) {
	// publishLock keeps ids in publishing order for live subscribers. Replay is called from the
	// server's own goroutine and takes only lock, so lock must not be held while publishing.
	f.publishLock.Lock()
	defer f.publishLock.Unlock()
	f.lock.Lock()
	e := liveFeedEvent{id: strconv.Itoa(len(f.history) + 1), name: name, data: data}
	f.history = append(f.history, e)
	f.lock.Unlock()
	f.streams.Publish([]string{liveFeedChannel}, e)
}

// Replay is called by the eventsource server for each new subscriber.
func (f *LiveFeed) Replay(channel, id string) chan eventsource.Event {
	f.lock.Lock()
	events := append([]eventsource.Event(nil), f.history...)
	f.lock.Unlock()

	eventsCh := make(chan eventsource.Event, len(events))
	for _, e := range events {
		eventsCh <- e
	}
	close(eventsCh)
	return eventsCh
}

// Close disconnects all subscribers.
func (f *LiveFeed) Close() {
	f.streams.Close()
}

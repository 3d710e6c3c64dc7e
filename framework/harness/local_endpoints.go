package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/launchdarkly/crud-contract-tests/framework"
	"github.com/launchdarkly/crud-contract-tests/framework/helpers"
)

const endpointPathPrefix = "/endpoints/"

// Buffer size for the queue of incoming request information, for endpoints created with
// LocalEndpointRecordRequests. If the queue is full, the handler does not block; the information
// is discarded.
const incomingRequestChannelBufferSize = 50

type localEndpointsManager struct {
	endpoints       map[string]*LocalEndpoint
	lastEndpointID  int
	externalBaseURL string
	logger          framework.Logger
	lock            sync.Mutex
}

// LocalEndpoint is a handler hosted on the harness's own listener, such as the mock remote
// service, the live probe feed, or the metrics endpoint.
type LocalEndpoint struct {
	owner       *localEndpointsManager
	id          string
	description string
	basePath    string
	handler     http.Handler
	record      bool
	requests    chan IncomingRequestInfo
	closed      bool
	cancels     map[int]context.CancelFunc
	lastCancel  int
	logger      framework.Logger
	lock        sync.Mutex
	closing     sync.Once
}

// LocalEndpointOption is an option for NewLocalEndpoint.
type LocalEndpointOption helpers.ConfigOption[LocalEndpoint]

// LocalEndpointDescription sets the name used for the endpoint in log messages.
func LocalEndpointDescription(description string) LocalEndpointOption {
	return helpers.ConfigOptionFunc[LocalEndpoint](func(e *LocalEndpoint) error {
		e.description = description
		return nil
	})
}

// LocalEndpointName gives the endpoint a stable path of /endpoints/{name} instead of a generated
// number, so that its URL can be given to people before the run starts.
func LocalEndpointName(name string) LocalEndpointOption {
	return helpers.ConfigOptionFunc[LocalEndpoint](func(e *LocalEndpoint) error {
		if name == "" || strings.Contains(name, "/") {
			return fmt.Errorf("invalid endpoint name %q", name)
		}
		e.id = name
		return nil
	})
}

// LocalEndpointRecordRequests makes the endpoint queue information about each request it receives,
// for AwaitRequest. Endpoints without it keep nothing.
func LocalEndpointRecordRequests() LocalEndpointOption {
	return helpers.ConfigOptionFunc[LocalEndpoint](func(e *LocalEndpoint) error {
		e.record = true
		return nil
	})
}

// IncomingRequestInfo describes a request that was received by a local endpoint.
type IncomingRequestInfo struct {
	Headers http.Header
	Method  string
	URL     url.URL
	Body    []byte
}

func newLocalEndpointsManager(externalBaseURL string, logger framework.Logger) *localEndpointsManager {
	return &localEndpointsManager{
		endpoints:       make(map[string]*LocalEndpoint),
		externalBaseURL: externalBaseURL,
		logger:          logger,
	}
}

func (m *localEndpointsManager) newLocalEndpoint(
	handler http.Handler,
	logger framework.Logger,
	options ...LocalEndpointOption,
) (*LocalEndpoint, error) {
	if logger == nil {
		logger = m.logger
	}
	e := &LocalEndpoint{
		owner:   m,
		handler: handler,
		cancels: make(map[int]context.CancelFunc),
		logger:  logger,
	}
	if err := helpers.ApplyOptions(e, options...); err != nil {
		return nil, err
	}
	if e.record {
		e.requests = make(chan IncomingRequestInfo, incomingRequestChannelBufferSize)
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	if e.id == "" {
		m.lastEndpointID++
		e.id = strconv.Itoa(m.lastEndpointID)
	}
	if _, exists := m.endpoints[e.id]; exists {
		return nil, fmt.Errorf("endpoint %q already exists", e.id)
	}
	e.basePath = endpointPathPrefix + e.id
	m.endpoints[e.id] = e
	return e, nil
}

func (m *localEndpointsManager) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, endpointPathPrefix) {
		m.logger.Printf("Received request for unrecognized URL path %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	endpointID, subpath, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, endpointPathPrefix), "/")
	subpath = "/" + subpath

	m.lock.Lock()
	e := m.endpoints[endpointID]
	m.lock.Unlock()
	if e == nil {
		m.logger.Printf("Received request for unrecognized endpoint %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	e.serveHTTP(w, r, subpath)
}

func (e *LocalEndpoint) serveHTTP(w http.ResponseWriter, r *http.Request, subpath string) {
	var body []byte
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			e.logger.Printf("Unexpected error trying to read request body: %s", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if len(data) != 0 {
			body = data
		}
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	e.lock.Lock()
	closed := e.closed
	e.lastCancel++
	cancelID := e.lastCancel
	e.cancels[cancelID] = cancel
	e.lock.Unlock()
	defer func() {
		e.lock.Lock()
		delete(e.cancels, cancelID)
		e.lock.Unlock()
	}()

	if closed {
		e.logger.Printf("Received request to already-closed endpoint %s", r.URL)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	u := *r.URL
	u.Path = subpath
	u.RawPath = ""
	transformed := r.Clone(ctx)
	transformed.URL = &u
	transformed.Body = io.NopCloser(bytes.NewReader(body))

	if e.record {
		// sent under the lock so that Close cannot close the channel in between
		e.lock.Lock()
		queued := e.requests == nil || helpers.NonBlockingSend(e.requests, IncomingRequestInfo{
			Headers: r.Header.Clone(),
			Method:  r.Method,
			URL:     u,
			Body:    body,
		})
		e.lock.Unlock()
		if !queued {
			e.logger.Printf("Incoming request queue was full for %s", r.URL)
		}
	}

	ww := &wrappedResponseWriter{w: w}
	e.handler.ServeHTTP(ww, transformed)

	switch ww.status {
	case http.StatusNotFound:
		e.logger.Printf("Endpoint %q (%s) received %s request for unrecognized path %s",
			e.description, e.basePath, r.Method, subpath)
	case http.StatusMethodNotAllowed:
		e.logger.Printf("Endpoint %q (%s) received request with unsupported %s method for path %s",
			e.description, e.basePath, r.Method, subpath)
	}
}

// BaseURL returns the absolute URL of the endpoint. Requests to any subpath of it are passed to
// the handler with the base path removed.
func (e *LocalEndpoint) BaseURL() string {
	return e.owner.externalBaseURL + e.basePath
}

// AwaitRequest waits for the next request received by the endpoint. The endpoint must have been
// created with LocalEndpointRecordRequests.
func (e *LocalEndpoint) AwaitRequest(timeout time.Duration) (IncomingRequestInfo, error) {
	if !e.record {
		return IncomingRequestInfo{}, fmt.Errorf("endpoint %q (%s) does not record requests", e.description, e.basePath)
	}
	e.lock.Lock()
	requests := e.requests
	e.lock.Unlock()
	if requests == nil {
		return IncomingRequestInfo{}, fmt.Errorf("endpoint %q (%s) is closed", e.description, e.basePath)
	}
	received := helpers.TryReceive(requests, timeout)
	if !received.IsDefined() {
		return IncomingRequestInfo{}, fmt.Errorf("timed out waiting for a request to %q (%s)",
			e.description, e.basePath)
	}
	return received.Value(), nil
}

// Close unregisters the endpoint and cancels the context of any requests still in progress, such
// as open stream connections. Later requests receive a 404 error.
func (e *LocalEndpoint) Close() {
	e.closing.Do(func() {
		e.logger.Printf("Closing endpoint %q (%s)", e.description, e.basePath)
		e.owner.lock.Lock()
		delete(e.owner.endpoints, e.id)
		e.owner.lock.Unlock()

		e.lock.Lock()
		cancels := e.cancels
		e.cancels = make(map[int]context.CancelFunc)
		e.closed = true
		if e.requests != nil {
			close(e.requests)
			e.requests = nil
		}
		e.lock.Unlock()

		for _, cancel := range cancels {
			cancel()
		}
	})
}

// wrappedResponseWriter records the status written to a ResponseWriter, so we can log 404 and
// 405 statuses.
type wrappedResponseWriter struct {
	w      http.ResponseWriter
	status int
}

func (ww *wrappedResponseWriter) Header() http.Header { return ww.w.Header() }

func (ww *wrappedResponseWriter) WriteHeader(status int) {
	ww.status = status
	ww.w.WriteHeader(status)
}

func (ww *wrappedResponseWriter) Write(data []byte) (int, error) {
	if ww.status == 0 {
		ww.status = http.StatusOK
	}
	return ww.w.Write(data)
}

func (ww *wrappedResponseWriter) Flush() {
	if f, ok := ww.w.(http.Flusher); ok {
		f.Flush()
	}
}

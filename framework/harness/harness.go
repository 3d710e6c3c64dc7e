package harness

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/launchdarkly/crud-contract-tests/framework"
	"github.com/launchdarkly/crud-contract-tests/framework/helpers"
)

const httpListenerTimeout = time.Second * 10

// TestHarness is the part of the test run that deals with HTTP plumbing other than the probes
// themselves.
//
// It checks that the remote service is reachable before any test runs (CheckService), and it can
// host any number of local endpoints on one HTTP listener (NewLocalEndpoint). It contains no
// knowledge of resource contracts.
type TestHarness struct {
	endpoints     *localEndpointsManager
	server        *http.Server
	serviceStatus ServiceStatus
	logger        framework.Logger
}

// HarnessParams configures NewTestHarness.
type HarnessParams struct {
	// ExternalHostname is the hostname used in the URLs of local endpoints. Defaults to localhost.
	ExternalHostname string

	// ListenPort is the port of the local listener. If it is zero, a free port is chosen.
	ListenPort int

	// DebugLogger receives diagnostic output. Defaults to a null logger.
	DebugLogger framework.Logger
}

// NewTestHarness creates a TestHarness and starts its local listener, returning when the listener
// is definitely accepting requests.
func NewTestHarness(params HarnessParams) (*TestHarness, error) {
	logger := params.DebugLogger
	if logger == nil {
		logger = framework.NullLogger()
	}
	hostname := helpers.IfElse(params.ExternalHostname == "", "localhost", params.ExternalHostname)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", params.ListenPort))
	if err != nil {
		return nil, fmt.Errorf("could not start local listener: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	h := &TestHarness{
		endpoints: newLocalEndpointsManager(fmt.Sprintf("http://%s:%d", hostname, port), logger),
		logger:    logger,
	}
	h.server = &http.Server{
		Handler:           http.HandlerFunc(h.serveHTTP),
		ReadHeaderTimeout: 10 * time.Second, // arbitrary but non-infinite timeout to avoid Slowloris Attack
	}
	go func() {
		if err := h.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("Local listener stopped: %s", err)
		}
	}()

	ready := helpers.PollForSpecificResultValue(func() bool {
		resp, err := http.DefaultClient.Head(fmt.Sprintf("http://localhost:%d", port))
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, httpListenerTimeout, time.Millisecond*10, true)
	if !ready {
		_ = h.server.Close()
		return nil, fmt.Errorf("could not detect own listener on port %d", port)
	}
	return h, nil
}

// BaseURL returns the external base URL of the local listener.
func (h *TestHarness) BaseURL() string {
	return h.endpoints.externalBaseURL
}

// NewLocalEndpoint adds an endpoint to the local listener.
//
// The handler receives all requests to the endpoint's base URL or any subpath of it, with the
// request URL rewritten so that the handler sees only the subpath. For instance, if the base URL
// is http://localhost:8111/endpoints/mock, a request to /endpoints/mock/posts/1 is seen by the
// handler as /posts/1.
func (h *TestHarness) NewLocalEndpoint(
	handler http.Handler,
	logger framework.Logger,
	options ...LocalEndpointOption,
) (*LocalEndpoint, error) {
	return h.endpoints.newLocalEndpoint(handler, logger, options...)
}

// ServiceStatus returns the result of the last successful CheckService call.
func (h *TestHarness) ServiceStatus() ServiceStatus {
	return h.serviceStatus
}

// Close shuts down the local listener.
func (h *TestHarness) Close(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

func (h *TestHarness) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead && r.URL.Path == "/" {
		w.WriteHeader(http.StatusOK) // we use this to test whether our own listener is active yet
		return
	}
	h.endpoints.serveHTTP(w, r)
}

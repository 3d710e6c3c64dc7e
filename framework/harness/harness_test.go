package harness

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarnessHostsLocalEndpoints(t *testing.T) {
	h, err := NewTestHarness(HarnessParams{})
	require.NoError(t, err)
	defer func() { _ = h.Close(context.Background()) }()

	handler := httphelpers.HandlerWithResponse(200, nil, []byte(`{"status":"ok"}`))
	e, err := h.NewLocalEndpoint(handler, nil, LocalEndpointName("mock"))
	require.NoError(t, err)
	assert.Equal(t, h.BaseURL()+"/endpoints/mock", e.BaseURL())

	resp, err := http.Get(e.BaseURL() + "/test")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, `{"status":"ok"}`, string(body))
}

func TestCheckServiceSucceeds(t *testing.T) {
	h, err := NewTestHarness(HarnessParams{})
	require.NoError(t, err)
	defer func() { _ = h.Close(context.Background()) }()

	handler := httphelpers.HandlerWithResponse(200, nil, []byte(`{"status":"ok","method":"GET"}`))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		var out bytes.Buffer
		status, err := h.CheckService(context.Background(), server.URL+"/test", time.Second, &out)
		require.NoError(t, err)
		assert.Equal(t, 200, status.StatusCode)
		assert.Equal(t, `{"status":"ok","method":"GET"}`, string(status.Body))
		assert.Equal(t, status, h.ServiceStatus())
		assert.Contains(t, out.String(), "Connecting to service at "+server.URL)
	})
}

func TestCheckServiceFailsOnErrorStatus(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(503), func(server *httptest.Server) {
		status, err := queryServiceStatus(context.Background(), http.DefaultClient, server.URL, time.Second, io.Discard)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
		assert.Equal(t, 503, status.StatusCode)
	})
}

func TestCheckServiceRetriesUntilTimeout(t *testing.T) {
	server := httptest.NewServer(httphelpers.HandlerWithStatus(200))
	url := server.URL
	server.Close()

	start := time.Now()
	_, err := queryServiceStatus(context.Background(), http.DefaultClient, url, time.Millisecond*600, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond*500)
}

func TestCheckServiceRejectsMalformedURL(t *testing.T) {
	_, err := queryServiceStatus(context.Background(), http.DefaultClient, "not a url", time.Second, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid service URL")
}

package contract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/crud-contract-tests/framework"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTransport(t *testing.T, options ...TransportOption) *HTTPTransport {
	tr, err := NewHTTPTransport(options...)
	require.NoError(t, err)
	return tr
}

func TestTransportDecodesJSON(t *testing.T) {
	handler := httphelpers.HandlerWithResponse(200, http.Header{"Content-Type": {"application/json"}},
		[]byte(`{"posts": []}`))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		resp, err := newTestTransport(t).Do(context.Background(), Request{Method: "GET", URL: server.URL + "/posts"})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Status)
		assert.True(t, resp.IsJSON)
		assert.Equal(t, ldvalue.ArrayType, resp.Body.GetByKey("posts").Type())
		assert.Equal(t, `{"posts": []}`, string(resp.Raw))
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	})
}

func TestTransportNonJSONBody(t *testing.T) {
	for _, body := range []string{"", "<html></html>", "not json"} {
		handler := httphelpers.HandlerWithResponse(500, nil, []byte(body))
		httphelpers.WithServer(handler, func(server *httptest.Server) {
			resp, err := newTestTransport(t).Do(context.Background(), Request{Method: "GET", URL: server.URL})
			require.NoError(t, err)
			assert.Equal(t, 500, resp.Status)
			assert.False(t, resp.IsJSON, body)
			assert.True(t, resp.Body.IsNull())
		})
	}
}

func TestTransportSendsJSONBody(t *testing.T) {
	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(201))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		body := ldvalue.ObjectBuild().Set("title", ldvalue.String("x")).Build()
		_, err := newTestTransport(t).Do(context.Background(), Request{Method: "POST", URL: server.URL + "/posts/add", Body: body})
		require.NoError(t, err)

		r := <-requests
		assert.Equal(t, "POST", r.Request.Method)
		assert.Equal(t, "/posts/add", r.Request.URL.Path)
		assert.Equal(t, "application/json", r.Request.Header.Get("Content-Type"))
		assert.JSONEq(t, `{"title": "x"}`, string(r.Body))
	})
}

func TestTransportOmitsBodyForNull(t *testing.T) {
	handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		_, err := newTestTransport(t).Do(context.Background(), Request{Method: "GET", URL: server.URL})
		require.NoError(t, err)

		r := <-requests
		assert.Equal(t, "", r.Request.Header.Get("Content-Type"))
		assert.Len(t, r.Body, 0)
	})
}

func TestTransportConnectionFailure(t *testing.T) {
	httphelpers.WithServer(httphelpers.BrokenConnectionHandler(), func(server *httptest.Server) {
		_, err := newTestTransport(t).Do(context.Background(), Request{Method: "GET", URL: server.URL})
		var reqErr *RequestError
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, "GET", reqErr.Method)
		assert.Equal(t, server.URL, reqErr.URL)
	})
}

func TestTransportTimeout(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		tr := newTestTransport(t, TransportTimeout(50*time.Millisecond))
		_, err := tr.Do(context.Background(), Request{Method: "GET", URL: server.URL})
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded), err.Error())
	})
}

func TestTransportRateLimit(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(200), func(server *httptest.Server) {
		tr := newTestTransport(t, TransportRateLimit(20, 1))
		start := time.Now()
		for i := 0; i < 3; i++ {
			_, err := tr.Do(context.Background(), Request{Method: "GET", URL: server.URL})
			require.NoError(t, err)
		}
		// first request is immediate, the next two wait 50ms each
		assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	})
}

func TestTransportRateLimitRespectsContext(t *testing.T) {
	tr := newTestTransport(t, TransportRateLimit(0.001, 1))
	httphelpers.WithServer(httphelpers.HandlerWithStatus(200), func(server *httptest.Server) {
		_, err := tr.Do(context.Background(), Request{Method: "GET", URL: server.URL})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = tr.Do(ctx, Request{Method: "GET", URL: server.URL})
		assert.Error(t, err)
	})
}

func TestTransportRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	httphelpers.WithServer(httphelpers.HandlerWithStatus(204), func(server *httptest.Server) {
		tr := newTestTransport(t, TransportTracerProvider(provider))
		_, err := tr.Do(context.Background(), Request{Method: "DELETE", URL: server.URL + "/posts/1"})
		require.NoError(t, err)
	})

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "probe DELETE", spans[0].Name())
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "DELETE", attrs["http.request.method"].AsString())
	assert.Equal(t, int64(204), attrs["http.response.status_code"].AsInt64())
}

func TestTransportLogsSummaryOnly(t *testing.T) {
	handler := httphelpers.HandlerWithResponse(200, nil, []byte(`{"password": "hunter2"}`))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		var logger framework.CapturingLogger
		tr := newTestTransport(t, TransportLogger(&logger))
		_, err := tr.Do(context.Background(), Request{Method: "GET", URL: server.URL})
		require.NoError(t, err)

		out := logger.Output()
		require.Len(t, out, 1)
		assert.Contains(t, out[0].Message, "-> 200")
		assert.NotContains(t, out[0].Message, "hunter2")
	})
}

func TestTransportWithCustomClient(t *testing.T) {
	client := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: 418, Body: http.NoBody, Header: http.Header{}}, nil
	})}
	resp, err := newTestTransport(t, TransportHTTPClient(client)).Do(context.Background(),
		Request{Method: "GET", URL: "http://nowhere"})
	require.NoError(t, err)
	assert.Equal(t, 418, resp.Status)
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/launchdarkly/crud-contract-tests/framework"
	"github.com/launchdarkly/crud-contract-tests/framework/helpers"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	// DefaultRequestTimeout applies to each request unless TransportTimeout says otherwise.
	DefaultRequestTimeout = 15 * time.Second

	tracerName = "github.com/launchdarkly/crud-contract-tests/contract"
)

// Request is a single HTTP request issued by a probe.
type Request struct {
	Method string
	URL    string

	// Body is sent as JSON unless it is null.
	Body ldvalue.Value
}

// Response is what a Transport observed. Any status, including 4xx and 5xx, is a response and not
// an error.
type Response struct {
	Status int
	Header http.Header

	// Raw is the undecoded body.
	Raw []byte

	// Body is the decoded body, or null if IsJSON is false.
	Body   ldvalue.Value
	IsJSON bool

	Elapsed time.Duration
}

// Transport issues requests for probes. It must return an error only if the request could not be
// completed; an HTTP error status is a normal response.
type Transport interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// HTTPTransport is the standard Transport. Each request gets its own timeout and an OpenTelemetry
// span, and requests can be paced with a rate limiter shared by everything using the transport.
// It never retries.
type HTTPTransport struct {
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	tracer  trace.Tracer
	logger  framework.Logger
}

// TransportOption is an option for NewHTTPTransport.
type TransportOption helpers.ConfigOption[HTTPTransport]

// TransportTimeout sets the timeout for each request.
func TransportTimeout(timeout time.Duration) TransportOption {
	return helpers.ConfigOptionFunc[HTTPTransport](func(t *HTTPTransport) error {
		t.timeout = timeout
		return nil
	})
}

// TransportRateLimit limits the transport to requestsPerSecond, allowing bursts of up to burst
// requests. A rate of zero or less means no limit.
func TransportRateLimit(requestsPerSecond float64, burst int) TransportOption {
	return helpers.ConfigOptionFunc[HTTPTransport](func(t *HTTPTransport) error {
		if requestsPerSecond <= 0 {
			t.limiter = nil
			return nil
		}
		t.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), max(burst, 1))
		return nil
	})
}

// TransportHTTPClient sets the underlying HTTP client.
func TransportHTTPClient(client *http.Client) TransportOption {
	return helpers.ConfigOptionFunc[HTTPTransport](func(t *HTTPTransport) error {
		t.client = client
		return nil
	})
}

// TransportTracerProvider sets where request spans go. The default is the global provider, which
// does nothing unless tracing was set up.
func TransportTracerProvider(provider trace.TracerProvider) TransportOption {
	return helpers.ConfigOptionFunc[HTTPTransport](func(t *HTTPTransport) error {
		t.tracer = provider.Tracer(tracerName)
		return nil
	})
}

// TransportLogger sets a logger for a one-line summary of each request. Bodies are never logged
// here, since they may contain sensitive fields.
func TransportLogger(logger framework.Logger) TransportOption {
	return helpers.ConfigOptionFunc[HTTPTransport](func(t *HTTPTransport) error {
		t.logger = logger
		return nil
	})
}

// NewHTTPTransport creates an HTTPTransport.
func NewHTTPTransport(options ...TransportOption) (*HTTPTransport, error) {
	t := &HTTPTransport{
		client:  http.DefaultClient,
		timeout: DefaultRequestTimeout,
		tracer:  otel.GetTracerProvider().Tracer(tracerName),
		logger:  framework.NullLogger(),
	}
	if err := helpers.ApplyOptions(t, options...); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *HTTPTransport) Do(ctx context.Context, req Request) (Response, error) {
	ctx, span := t.tracer.Start(ctx, "probe "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL),
		))
	defer span.End()

	resp, err := t.do(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.logger.Printf("%s %s failed: %s", req.Method, req.URL, err)
		return Response{}, &RequestError{Method: req.Method, URL: req.URL, Err: err}
	}
	span.SetAttributes(
		attribute.Int("http.response.status_code", resp.Status),
		attribute.Int("http.response.body.size", len(resp.Raw)),
	)
	t.logger.Printf("%s %s -> %d (%d bytes, %s)", req.Method, req.URL, resp.Status, len(resp.Raw),
		resp.Elapsed.Round(time.Millisecond))
	return resp, nil
}

func (t *HTTPTransport) do(ctx context.Context, req Request) (Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return Response{}, err
		}
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	var body io.Reader
	if !req.Body.IsNull() {
		body = bytes.NewReader([]byte(req.Body.JSONString()))
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	start := time.Now()
	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer httpResp.Body.Close() //nolint:errcheck
	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, err
	}

	resp := Response{
		Status:  httpResp.StatusCode,
		Header:  httpResp.Header,
		Raw:     raw,
		Body:    ldvalue.Null(),
		Elapsed: time.Since(start),
	}
	if len(bytes.TrimSpace(raw)) != 0 && json.Valid(raw) {
		resp.Body = ldvalue.Parse(raw)
		resp.IsJSON = true
	}
	return resp, nil
}

package harness

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ServiceStatus is what the pre-flight check learned about the remote service.
type ServiceStatus struct {
	URL        string
	StatusCode int
	Body       []byte
	Elapsed    time.Duration
}

const statusQueryInterval = time.Millisecond * 250

// CheckService verifies that the remote service is up before any test runs, by sending GET
// requests to statusURL until one returns a 2xx status or the timeout elapses. Progress is
// written to output.
//
// Connection errors are retried, since a local service may still be starting. A non-2xx response
// is not retried: the service is up but unhealthy, and running the suite against it would only
// produce noise.
func (h *TestHarness) CheckService(
	ctx context.Context,
	statusURL string,
	timeout time.Duration,
	output io.Writer,
) (ServiceStatus, error) {
	status, err := queryServiceStatus(ctx, http.DefaultClient, statusURL, timeout, output)
	if err == nil {
		h.serviceStatus = status
		h.logger.Printf("Service status response from %s: %d (%s)", statusURL, status.StatusCode, status.Elapsed)
	}
	return status, err
}

func queryServiceStatus(
	ctx context.Context,
	client *http.Client,
	statusURL string,
	timeout time.Duration,
	output io.Writer,
) (ServiceStatus, error) {
	if _, err := url.ParseRequestURI(statusURL); err != nil {
		return ServiceStatus{URL: statusURL}, fmt.Errorf("invalid service URL: %w", err)
	}
	fmt.Fprintf(output, "Connecting to service at %s", statusURL)
	defer fmt.Fprintln(output)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for {
		fmt.Fprint(output, ".")
		status, err := getStatus(ctx, client, statusURL)
		if err == nil {
			if status.StatusCode < 200 || status.StatusCode >= 300 {
				return status, fmt.Errorf("service returned status code %d", status.StatusCode)
			}
			return status, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ServiceStatus{URL: statusURL}, fmt.Errorf("timed out, result of last query was: %w", lastErr)
		case <-time.After(statusQueryInterval):
		}
	}
}

func getStatus(ctx context.Context, client *http.Client, statusURL string) (ServiceStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return ServiceStatus{}, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return ServiceStatus{}, err
	}
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ServiceStatus{}, err
	}
	return ServiceStatus{
		URL:        statusURL,
		StatusCode: resp.StatusCode,
		Body:       body,
		Elapsed:    time.Since(start),
	}, nil
}

package main

import (
	"context"
	_ "embed" // this is required in order for go:embed to work
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/launchdarkly/crud-contract-tests/config"
	"github.com/launchdarkly/crud-contract-tests/contract"
	"github.com/launchdarkly/crud-contract-tests/contracttests"
	"github.com/launchdarkly/crud-contract-tests/framework"
	"github.com/launchdarkly/crud-contract-tests/framework/harness"
	"github.com/launchdarkly/crud-contract-tests/framework/ldtest"
	"github.com/launchdarkly/crud-contract-tests/framework/tracing"
	"github.com/launchdarkly/crud-contract-tests/mockapi"
	"github.com/launchdarkly/crud-contract-tests/reporting"
	"github.com/launchdarkly/crud-contract-tests/resources"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

const (
	serviceName     = "crud-contract-tests"
	envFileVariable = config.EnvPrefix + "ENV_FILE"
	shutdownTimeout = time.Second * 5
)

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

func main() {
	fmt.Printf("%s v%s\n", serviceName, strings.TrimSpace(versionString))

	cfg, err := config.Load(os.Getenv(envFileVariable))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var params commandParams
	if !params.Read(os.Args, cfg) {
		os.Exit(1)
	}

	results, err := run(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !results.OK() {
		os.Exit(1)
	}
}

func run(params commandParams) (*contracttests.SuiteResults, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runID := uuid.NewString()
	fmt.Printf("Run ID: %s\n", runID)

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		loggers := ldlog.NewDefaultLoggers()
		loggers.SetMinLevel(ldlog.Debug)
		mainDebugLogger = loggers.ForLevel(ldlog.Debug)
	}

	shutdownTracing, err := tracing.Setup(ctx, serviceName, runID, params.otelEndpoint)
	if err != nil {
		return nil, err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to flush traces: %s\n", err)
		}
	}()

	h, err := harness.NewTestHarness(harness.HarnessParams{
		ExternalHostname: params.host,
		ListenPort:       params.port,
		DebugLogger:      mainDebugLogger,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = h.Close(shutdownCtx)
	}()

	baseURL := params.serviceURL
	if params.mock != "" {
		mode, err := mockapi.ParseMode(params.mock)
		if err != nil {
			return nil, err
		}
		mock, err := h.NewLocalEndpoint(mockapi.NewService(mode, mainDebugLogger), nil,
			harness.LocalEndpointName("mock"), harness.LocalEndpointDescription("mock API"))
		if err != nil {
			return nil, err
		}
		baseURL = mock.BaseURL()
		fmt.Printf("Using %s mock API at %s\n", mode, baseURL)
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	if _, err := h.CheckService(ctx, baseURL+params.statusPath, params.serviceTimeout, os.Stdout); err != nil {
		return nil, fmt.Errorf("service at %s is not available: %w", baseURL, err)
	}

	rs, err := resources.Load(baseURL, params.resources...)
	if err != nil {
		return nil, err
	}

	transport, err := contract.NewHTTPTransport(
		contract.TransportTimeout(params.requestTimeout),
		contract.TransportRateLimit(params.rateLimit, params.rateBurst),
		contract.TransportLogger(mainDebugLogger),
	)
	if err != nil {
		return nil, err
	}
	verifier, err := contract.NewVerifier(transport,
		contract.VerifierLogger(mainDebugLogger),
		contract.VerifierRedactFields(params.redactFields...),
		contract.VerifierRedactFields(resources.ForbiddenFields(rs)...),
	)
	if err != nil {
		return nil, err
	}

	console := reporting.NewConsoleSummary(os.Stdout)
	metrics := reporting.NewMetrics()
	feed := reporting.NewLiveFeed(mainDebugLogger)
	defer feed.Close()
	reporters := reporting.Multi{console, metrics, feed}

	for _, e := range []struct {
		name, description string
		handler           http.Handler
	}{
		{"live", "live probe feed", feed.Handler()},
		{"metrics", "metrics", metrics.Handler()},
	} {
		endpoint, err := h.NewLocalEndpoint(e.handler, nil,
			harness.LocalEndpointName(e.name), harness.LocalEndpointDescription(e.description))
		if err != nil {
			return nil, err
		}
		fmt.Printf("Serving %s at %s\n", e.description, endpoint.BaseURL())
	}

	var jsonFile *reporting.JSONFile
	if params.reportFile != "" {
		jsonFile = reporting.NewJSONFile(params.reportFile, runID)
		reporters = append(reporters, jsonFile)
	}
	if params.redisURL != "" {
		publisher, err := reporting.NewRedisPublisher(params.redisURL, params.redisChannel, mainDebugLogger)
		if err != nil {
			return nil, err
		}
		defer func() { _ = publisher.Close() }()
		reporters = append(reporters, publisher)
	}

	consoleLogger := &ldtest.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	var testLogger ldtest.TestLogger = consoleLogger
	if params.jUnitFile != "" {
		testLogger = &ldtest.MultiTestLogger{Loggers: []ldtest.TestLogger{
			consoleLogger,
			ldtest.NewJUnitTestLogger(params.jUnitFile,
				ldtest.JUnitProperty{Name: "baseURL", Value: baseURL},
				ldtest.JUnitProperty{Name: "runId", Value: runID},
			),
		}}
	}

	fmt.Println()
	ldtest.PrintFilterDescription(os.Stdout, params.filters)

	results := contracttests.RunContractSuite(ctx, contracttests.SuiteConfig{
		Resources:  rs,
		Verifier:   verifier,
		RunID:      runID,
		Filter:     params.filters.Match,
		TestLogger: testLogger,
		Observer:   reporters,
		Reporter:   reporters,
		Parallel:   true,
	})
	for _, err := range results.ReportErrors {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
	}

	fmt.Println()
	console.PrintTable()
	fmt.Println()
	if err := testLogger.EndLog(results.Results); err != nil {
		return nil, fmt.Errorf("error writing log: %w", err)
	}

	if jsonFile != nil {
		if err := jsonFile.Write(); err != nil {
			return nil, err
		}
	}
	if params.pushgatewayURL != "" {
		if err := metrics.Push(ctx, params.pushgatewayURL, serviceName, runID); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
		}
	}

	if len(results.Failures) != 0 {
		failed := make([]ldtest.TestID, 0, len(results.Failures))
		for _, f := range results.Failures {
			failed = append(failed, f.TestID)
		}
		if params.recordFailures != "" {
			if err := writeFailures(params.recordFailures, failed); err != nil {
				return nil, err
			}
		}
		fmt.Printf("To rerun the failed tests:\n  %s\n", rerunCommand(os.Args[0], params, failed))
	}

	return &results, nil
}

func writeFailures(path string, failed []ldtest.TestID) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create failure record file: %w", err)
	}
	for _, id := range failed {
		fmt.Fprintln(f, id)
	}
	return f.Close()
}

package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/launchdarkly/crud-contract-tests/config"
	"github.com/launchdarkly/crud-contract-tests/framework/ldtest"

	"github.com/alessio/shellescape"
)

type commandParams struct {
	serviceURL     string
	statusPath     string
	mock           string
	resources      []string
	port           int
	host           string
	filters        ldtest.RegexFilters
	requestTimeout time.Duration
	serviceTimeout time.Duration
	rateLimit      float64
	rateBurst      int
	redactFields   []string
	debug          bool
	debugAll       bool
	jUnitFile      string
	reportFile     string
	recordFailures string
	redisURL       string
	redisChannel   string
	pushgatewayURL string
	otelEndpoint   string
}

type stringListFlag struct {
	values *[]string
}

func (s stringListFlag) String() string {
	if s.values == nil {
		return ""
	}
	return strings.Join(*s.values, ",")
}

func (s stringListFlag) Set(value string) error {
	var ret []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			ret = append(ret, v)
		}
	}
	*s.values = ret
	return nil
}

// Read parses the command line. Every flag that has a configuration setting defaults to it.
func (c *commandParams) Read(args []string, cfg config.Config) bool {
	c.resources = cfg.Resources
	c.redactFields = cfg.RedactFields

	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.StringVar(&c.serviceURL, "url", cfg.BaseURL, "base URL of the service under test")
	fs.StringVar(&c.statusPath, "status-path", cfg.StatusPath, "path that is polled before the run to see if the service is up")
	fs.StringVar(&c.mock, "mock", cfg.Mock, `run against the built-in mock API ("loose" or "strict") instead of -url`)
	fs.Var(stringListFlag{&c.resources}, "resources", "comma-separated resource kinds to verify (default all)")
	fs.StringVar(&c.host, "host", cfg.Host, "external hostname of the test harness")
	fs.IntVar(&c.port, "port", cfg.Port, "port that the test harness will listen on (live feed, metrics, mock API)")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.DurationVar(&c.requestTimeout, "timeout", cfg.RequestTimeout, "timeout for each request")
	fs.DurationVar(&c.serviceTimeout, "service-timeout", cfg.ServiceTimeout, "how long to wait for the service to be up")
	fs.Float64Var(&c.rateLimit, "rate", cfg.RateLimit, "maximum requests per second (0 for no limit)")
	fs.IntVar(&c.rateBurst, "burst", cfg.RateBurst, "maximum burst of requests")
	fs.Var(stringListFlag{&c.redactFields}, "redact", "comma-separated fields to redact from debug output")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.StringVar(&c.jUnitFile, "junit", cfg.JUnitFile, "write JUnit XML output to the specified path")
	fs.StringVar(&c.reportFile, "report", cfg.ReportFile, "write a JSON report to the specified path")
	fs.StringVar(&c.recordFailures, "record-failures", cfg.RecordFailures, "write the IDs of failed tests to the specified path")
	fs.StringVar(&c.redisURL, "redis-url", cfg.RedisURL, "publish reports to this Redis server")
	fs.StringVar(&c.redisChannel, "redis-channel", cfg.RedisChannel, "Redis channel for reports")
	fs.StringVar(&c.pushgatewayURL, "pushgateway", cfg.PushgatewayURL, "push metrics to this Prometheus Pushgateway at the end of the run")
	fs.StringVar(&c.otelEndpoint, "otel-endpoint", cfg.OTelEndpoint, "export request traces to this OTLP/HTTP endpoint")

	if err := fs.Parse(args[1:]); err != nil {
		return false
	}
	if c.serviceURL == "" && c.mock == "" {
		fmt.Fprintln(os.Stderr, "-url or -mock is required")
		fs.Usage()
		return false
	}
	return true
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

// rerunCommand returns a command line that runs only the specified tests, with the same target.
func rerunCommand(program string, params commandParams, failed []ldtest.TestID) string {
	var b commandBuilder
	b.add(program)
	if params.mock != "" {
		b.add("-mock", params.mock)
	} else {
		b.add("-url", params.serviceURL)
	}
	for _, id := range failed {
		b.add("-run", exactTestIDPattern(id))
	}
	return b.String()
}

func exactTestIDPattern(id ldtest.TestID) string {
	parts := make([]string, 0, len(id))
	for _, part := range id {
		parts = append(parts, "^"+regexp.QuoteMeta(part)+"$")
	}
	return strings.Join(parts, "/")
}

package reporting

import (
	"context"
	"fmt"
	"net/http"

	"github.com/launchdarkly/crud-contract-tests/contract"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const metricsNamespace = "crud_contract"

// Metrics records probe outcomes as Prometheus metrics in its own registry.
type Metrics struct {
	registry      *prometheus.Registry
	probes        *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	hardFailures  *prometheus.GaugeVec
	softFailures  *prometheus.GaugeVec
}

// NewMetrics creates the metrics and registers them.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "probes_total",
			Help:      "Number of probes run, by resource kind, probe and classification.",
		}, []string{"resource", "probe", "classification"}),
		probeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "probe_duration_seconds",
			Help:      "Time taken by the request of each probe.",
			Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}, []string{"resource", "probe"}),
		hardFailures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "report_hard_failures",
			Help:      "Hard failures in the latest report for each resource kind.",
		}, []string{"resource"}),
		softFailures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "report_soft_failures",
			Help:      "Soft failures in the latest report for each resource kind.",
		}, []string{"resource"}),
	}
	m.registry.MustRegister(m.probes, m.probeDuration, m.hardFailures, m.softFailures)
	return m
}

func (m *Metrics) ProbeRecorded(result contract.ProbeResult) {
	m.probes.WithLabelValues(result.Resource, result.Probe, result.Classification.String()).Inc()
	if result.Status != 0 {
		m.probeDuration.WithLabelValues(result.Resource, result.Probe).Observe(result.Elapsed.Seconds())
	}
}

func (m *Metrics) Report(_ context.Context, report contract.ProbeReport) error {
	m.hardFailures.WithLabelValues(report.Resource()).Set(float64(len(report.HardFailures())))
	m.softFailures.WithLabelValues(report.Resource()).Set(float64(len(report.SoftFailures())))
	return nil
}

// Registry returns the registry that the metrics are in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Push sends the current metrics to a Prometheus Pushgateway, grouped by run id.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job, runID string) error {
	err := push.New(gatewayURL, job).
		Gatherer(m.registry).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}

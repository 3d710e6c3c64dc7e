package contracttests

import (
	"context"

	"github.com/launchdarkly/crud-contract-tests/contract"
	"github.com/launchdarkly/crud-contract-tests/framework/ldtest"
	"github.com/launchdarkly/crud-contract-tests/reporting"
	"github.com/launchdarkly/crud-contract-tests/resources"
)

const nonCriticalExplanation = "service behavior differs from its contract, but not in a way that breaks clients"

// resourceRun is the state of the probe sequence for one resource kind. It is the
// ldtest.TestConfiguration.Context of that kind's tests.
type resourceRun struct {
	ctx      context.Context
	resource resources.Resource
	verifier *contract.Verifier
	observer reporting.Observer
	builder  *contract.ReportBuilder
	config   ldtest.TestConfiguration
}

func newResourceRun(ctx context.Context, suite SuiteConfig, resource resources.Resource) *resourceRun {
	r := &resourceRun{
		ctx:      ctx,
		resource: resource,
		verifier: suite.Verifier,
		observer: suite.Observer,
		builder:  contract.NewReportBuilder(suite.RunID, resource.Name()),
	}
	r.config = ldtest.TestConfiguration{
		Filter:       suite.Filter,
		TestLogger:   suite.TestLogger,
		Capabilities: resource.Def.Capabilities(),
		Context:      r,
	}
	return r
}

func (r *resourceRun) run() ldtest.Results {
	return ldtest.Run(r.config, func(t *ldtest.T) {
		t.Run(r.resource.Name(), doAllProbes)
	})
}

func runFor(t *ldtest.T) *resourceRun {
	return t.Context().(*resourceRun)
}

// record adds a probe result to the kind's report and turns its classification into the outcome
// of the current test scope.
func (r *resourceRun) record(t *ldtest.T, result contract.ProbeResult) {
	t.Helper()
	result.Resource = r.resource.Name()
	r.builder.Add(result)
	if r.observer != nil {
		r.observer.ProbeRecorded(result)
	}

	t.Debug("%s", result.Summary())
	switch {
	case result.Classification.IsHardFailure():
		t.Errorf("%s", result.Summary())
	case result.Classification.IsSoftFailure():
		t.NonCritical(nonCriticalExplanation)
		t.Errorf("%s", result.Summary())
	case result.Classification == contract.Unvalidated:
		t.Debug("could not be validated")
	}
}

package contracttests

import (
	"context"
	"fmt"
	"sync"

	"github.com/launchdarkly/crud-contract-tests/contract"
	"github.com/launchdarkly/crud-contract-tests/framework/ldtest"
	"github.com/launchdarkly/crud-contract-tests/reporting"
	"github.com/launchdarkly/crud-contract-tests/resources"
)

// SuiteConfig is the input to RunContractSuite.
type SuiteConfig struct {
	// Resources are the kinds to verify. Each one becomes a top-level test.
	Resources []resources.Resource

	// Verifier runs the probes. All kinds share it, and with it the transport's rate limiter.
	Verifier *contract.Verifier

	// RunID identifies this run in every report.
	RunID string

	Filter     ldtest.Filter
	TestLogger ldtest.TestLogger

	// Observer, if set, is told about every probe result as soon as it is classified.
	Observer reporting.Observer

	// Reporter, if set, receives each kind's report when the kind is finished.
	Reporter reporting.Reporter

	// Parallel runs the kinds concurrently. Probes within a kind always run in order.
	Parallel bool
}

// SuiteResults is the outcome of RunContractSuite.
type SuiteResults struct {
	ldtest.Results

	// Reports has one report per kind, in the same order as SuiteConfig.Resources.
	Reports []contract.ProbeReport

	// ReportErrors are errors from the Reporter. They do not affect OK.
	ReportErrors []error
}

// RunContractSuite runs the probe sequence for every configured resource kind.
func RunContractSuite(ctx context.Context, config SuiteConfig) SuiteResults {
	n := len(config.Resources)
	results := make([]ldtest.Results, n)
	reports := make([]contract.ProbeReport, n)
	reportErrors := make([]error, n)

	runOne := func(i int) {
		r := newResourceRun(ctx, config, config.Resources[i])
		results[i] = r.run()
		reports[i] = r.builder.Build()
		if config.Reporter != nil {
			if err := config.Reporter.Report(ctx, reports[i]); err != nil {
				reportErrors[i] = fmt.Errorf("failed to report results for %s: %w", r.resource.Name(), err)
			}
		}
	}

	if config.Parallel {
		var wg sync.WaitGroup
		for i := range config.Resources {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				runOne(i)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range config.Resources {
			runOne(i)
		}
	}

	var ret SuiteResults
	for i := range results {
		ret.Results = ret.Results.Merge(results[i])
		ret.Reports = append(ret.Reports, reports[i])
		if reportErrors[i] != nil {
			ret.ReportErrors = append(ret.ReportErrors, reportErrors[i])
		}
	}
	return ret
}

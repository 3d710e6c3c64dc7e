package contracttests

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/launchdarkly/crud-contract-tests/contract"
	"github.com/launchdarkly/crud-contract-tests/framework/ldtest"
	"github.com/launchdarkly/crud-contract-tests/mockapi"
	"github.com/launchdarkly/crud-contract-tests/resources"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	results []contract.ProbeResult
	lock    sync.Mutex
}

func (o *recordingObserver) ProbeRecorded(result contract.ProbeResult) {
	o.lock.Lock()
	o.results = append(o.results, result)
	o.lock.Unlock()
}

type recordingReporter struct {
	reports []contract.ProbeReport
	err     error
	lock    sync.Mutex
}

func (r *recordingReporter) Report(_ context.Context, report contract.ProbeReport) error {
	r.lock.Lock()
	r.reports = append(r.reports, report)
	r.lock.Unlock()
	return r.err
}

func runAgainstMock(t *testing.T, mode mockapi.Mode, configure func(*SuiteConfig)) SuiteResults {
	var results SuiteResults
	httphelpers.WithServer(mockapi.NewService(mode, nil), func(server *httptest.Server) {
		rs, err := resources.Load(server.URL)
		require.NoError(t, err)
		transport, err := contract.NewHTTPTransport()
		require.NoError(t, err)
		verifier, err := contract.NewVerifier(transport)
		require.NoError(t, err)

		config := SuiteConfig{
			Resources: rs,
			Verifier:  verifier,
			RunID:     "test-run",
			Parallel:  true,
		}
		if configure != nil {
			configure(&config)
		}
		results = RunContractSuite(context.Background(), config)
	})
	return results
}

func testIDs(results []ldtest.TestResult) []string {
	var ret []string
	for _, r := range results {
		ret = append(ret, r.TestID.String())
	}
	return ret
}

func findResult(report contract.ProbeReport, probe string) (contract.ProbeResult, bool) {
	for _, r := range report.Results() {
		if r.Probe == probe {
			return r, true
		}
	}
	return contract.ProbeResult{}, false
}

func TestFieldShapesSampleComesFromSingleItemList(t *testing.T) {
	results := runAgainstMock(t, mockapi.Strict, nil)
	require.Len(t, results.Reports, 4)

	shapes, found := findResult(results.Reports[0], contract.ProbeFieldShapes)
	require.True(t, found)
	assert.Equal(t, contract.Expected, shapes.Classification, shapes.Summary())
	assert.Equal(t, "GET", shapes.Request.Method)
	assert.Contains(t, shapes.Request.URL, "/posts?")
	assert.Contains(t, shapes.Request.URL, "limit=1")
}

func TestStrictServiceMeetsEveryContract(t *testing.T) {
	results := runAgainstMock(t, mockapi.Strict, nil)

	assert.True(t, results.OK(), "failures: %v", testIDs(results.Failures))
	assert.Len(t, results.NonCriticalFailures, 0, "non-critical failures: %v", testIDs(results.NonCriticalFailures))
	assert.Len(t, results.ReportErrors, 0)

	require.Len(t, results.Reports, 4)
	for i, name := range []string{"posts", "products", "todos", "users"} {
		report := results.Reports[i]
		assert.Equal(t, name, report.Resource())
		assert.Equal(t, "test-run", report.RunID())
		assert.Len(t, report.HardFailures(), 0, name)
		assert.Len(t, report.SoftFailures(), 0, name)
	}
}

func TestProbeSequenceFollowsConfiguration(t *testing.T) {
	results := runAgainstMock(t, mockapi.Strict, nil)
	require.Len(t, results.Reports, 4)

	var probes []string
	for _, r := range results.Reports[1].Results() {
		probes = append(probes, r.Probe)
	}
	assert.Equal(t, []string{
		contract.ProbeList,
		contract.ProbeListLimit,
		contract.ProbeFieldShapes,
		contract.ProbeGet,
		contract.ProbeGetMissing,
		contract.ProbeCreate,
		contract.ProbeCreateInvalid,
		contract.ProbeReplace,
		contract.ProbeReplaceInvalid,
		contract.ProbePatch,
		contract.ProbeDelete,
		contract.ProbeDeleteMissing,
	}, probes)

	_, found := findResult(results.Reports[0], contract.ProbeListLimit)
	assert.False(t, found, "posts have no list limit configured")

	ownerResult, found := findResult(results.Reports[2], contract.ProbeOwnerFilter)
	require.True(t, found)
	assert.Equal(t, contract.Expected, ownerResult.Classification)

	sensitiveResult, found := findResult(results.Reports[3], contract.ProbeSensitiveFields)
	require.True(t, found)
	assert.Equal(t, contract.Expected, sensitiveResult.Classification)
}

func TestLooseServiceFailures(t *testing.T) {
	results := runAgainstMock(t, mockapi.Loose, nil)

	assert.False(t, results.OK())
	assert.Equal(t, []string{"users/sensitive fields"}, testIDs(results.Failures))
	assert.Contains(t, testIDs(results.NonCriticalFailures), "posts/delete missing")
	assert.Contains(t, testIDs(results.NonCriticalFailures), "posts/create invalid/empty post with no required fields")
	assert.Contains(t, testIDs(results.NonCriticalFailures), "todos/replace invalid/completed is a string instead of a boolean")

	require.Len(t, results.Reports, 4)
	users := results.Reports[3]
	require.Len(t, users.HardFailures(), 1)
	violation := users.HardFailures()[0]
	assert.Equal(t, contract.SecurityViolation, violation.Classification)
	assert.Equal(t, "password", violation.Field)
	for _, note := range violation.Notes {
		assert.NotContains(t, note, "emilyspass")
	}

	accepted, found := findResult(results.Reports[1], contract.ProbeCreateInvalid)
	require.True(t, found)
	assert.Equal(t, contract.UnexpectedSuccess, accepted.Classification)
	assert.Equal(t, "price", accepted.Field)
}

func TestObserverAndReporterSeeEverything(t *testing.T) {
	observer := &recordingObserver{}
	reporter := &recordingReporter{}
	results := runAgainstMock(t, mockapi.Loose, func(c *SuiteConfig) {
		c.Observer = observer
		c.Reporter = reporter
	})

	total := 0
	for _, r := range results.Reports {
		total += r.Len()
	}
	assert.Len(t, observer.results, total)
	for _, r := range observer.results {
		assert.NotEqual(t, "", r.Resource)
	}
	assert.Len(t, reporter.reports, 4)
}

func TestReporterErrorsAreCollected(t *testing.T) {
	results := runAgainstMock(t, mockapi.Strict, func(c *SuiteConfig) {
		c.Reporter = &recordingReporter{err: errors.New("sorry")}
		c.Parallel = false
	})
	assert.True(t, results.OK())
	require.Len(t, results.ReportErrors, 4)
	assert.Contains(t, results.ReportErrors[0].Error(), "posts")
	assert.Contains(t, results.ReportErrors[0].Error(), "sorry")
}

func TestFilterExcludesProbes(t *testing.T) {
	results := runAgainstMock(t, mockapi.Loose, func(c *SuiteConfig) {
		c.Filter = func(id ldtest.TestID) bool {
			return len(id) < 2 || id[1] != contract.ProbeSensitiveFields
		}
	})
	assert.True(t, results.OK())
	_, found := findResult(results.Reports[3], contract.ProbeSensitiveFields)
	assert.False(t, found)
}

func TestUnreachableServiceIsTransportError(t *testing.T) {
	var url string
	httphelpers.WithServer(httphelpers.HandlerWithStatus(200), func(server *httptest.Server) {
		url = server.URL
	})
	rs, err := resources.Load(url, "todos")
	require.NoError(t, err)
	transport, err := contract.NewHTTPTransport()
	require.NoError(t, err)
	verifier, err := contract.NewVerifier(transport)
	require.NoError(t, err)

	results := RunContractSuite(context.Background(), SuiteConfig{Resources: rs, Verifier: verifier})

	assert.True(t, results.OK())
	require.Len(t, results.Reports, 1)
	list, found := findResult(results.Reports[0], contract.ProbeList)
	require.True(t, found)
	assert.Equal(t, contract.TransportError, list.Classification)
	assert.Contains(t, testIDs(results.NonCriticalFailures), "todos/list")

	shapes, found := findResult(results.Reports[0], contract.ProbeFieldShapes)
	require.True(t, found)
	assert.Equal(t, contract.Unvalidated, shapes.Classification)
}

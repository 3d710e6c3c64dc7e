package reporting

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/launchdarkly/crud-contract-tests/contract"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	j := NewJSONFile(path, "run-1")
	require.NoError(t, j.Report(context.Background(), makeReport("users", makeResult("", contract.ProbeList, contract.Expected))))
	require.NoError(t, j.Report(context.Background(), makeReport("posts", makeResult("", contract.ProbeList, contract.Expected))))
	require.NoError(t, j.Write())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	parsed := ldvalue.Parse(data)
	reports := parsed.GetByKey("reports")
	require.Equal(t, 2, reports.Count())
	assert.Equal(t, "posts", reports.GetByIndex(0).GetByKey("resource").StringValue())
	assert.Equal(t, "users", reports.GetByIndex(1).GetByKey("resource").StringValue())
}

func TestJSONFileWriteError(t *testing.T) {
	j := NewJSONFile(filepath.Join(t.TempDir(), "missing-dir", "report.json"), "run-1")
	assert.Error(t, j.Write())
}

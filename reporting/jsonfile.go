package reporting

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/launchdarkly/crud-contract-tests/contract"
)

// JSONFile collects reports and writes them to a file as one JSON document.
type JSONFile struct {
	path    string
	runID   string
	reports []contract.ProbeReport
	lock    sync.Mutex
}

// NewJSONFile creates a JSONFile that will write to path when Write is called.
func NewJSONFile(path, runID string) *JSONFile {
	return &JSONFile{path: path, runID: runID}
}

func (j *JSONFile) Report(_ context.Context, report contract.ProbeReport) error {
	j.lock.Lock()
	j.reports = append(j.reports, report)
	j.lock.Unlock()
	return nil
}

// Write writes all reports so far, in resource name order, replacing the file.
func (j *JSONFile) Write() error {
	j.lock.Lock()
	reports := append([]contract.ProbeReport(nil), j.reports...)
	j.lock.Unlock()

	sort.Slice(reports, func(a, b int) bool { return reports[a].Resource() < reports[b].Resource() })
	if err := os.WriteFile(j.path, EncodeReports(j.runID, reports), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

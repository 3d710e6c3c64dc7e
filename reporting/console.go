package reporting

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/launchdarkly/crud-contract-tests/contract"

	"github.com/fatih/color"
)

var (
	summaryHeaderColor  = color.New(color.Bold)                //nolint:gochecknoglobals
	summaryHardColor    = color.New(color.FgRed)               //nolint:gochecknoglobals
	summarySoftColor    = color.New(color.FgYellow)            //nolint:gochecknoglobals
	summaryQuietColor   = color.New(color.Faint)               //nolint:gochecknoglobals
	summaryOKColor      = color.New(color.FgGreen)             //nolint:gochecknoglobals
	summarySkippedColor = color.New(color.Faint, color.FgBlue) //nolint:gochecknoglobals
)

// ConsoleSummary prints a block for each finished report and, at the end, a table of
// classification counts per resource kind.
type ConsoleSummary struct {
	out     io.Writer
	reports []contract.ProbeReport
	lock    sync.Mutex
}

// NewConsoleSummary creates a ConsoleSummary that writes to out.
func NewConsoleSummary(out io.Writer) *ConsoleSummary {
	return &ConsoleSummary{out: out}
}

func (c *ConsoleSummary) Report(_ context.Context, report contract.ProbeReport) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.reports = append(c.reports, report)

	summaryHeaderColor.Fprintf(c.out, "[%s] %d probes in %s\n", report.Resource(), report.Len(),
		report.Duration().Round(time.Millisecond))
	for _, r := range report.HardFailures() {
		summaryHardColor.Fprintf(c.out, "  FAILED %s\n", r.Summary())
	}
	for _, r := range report.SoftFailures() {
		summarySoftColor.Fprintf(c.out, "  ANOMALY %s\n", r.Summary())
	}
	for _, r := range report.Results() {
		if r.Classification == contract.Unvalidated {
			summarySkippedColor.Fprintf(c.out, "  UNVALIDATED %s\n", r.Summary())
		}
	}
	return nil
}

// PrintTable writes the per-resource classification counts of every report so far.
func (c *ConsoleSummary) PrintTable() {
	c.lock.Lock()
	defer c.lock.Unlock()

	classifications := contract.AllClassifications()
	width := len("resource")
	for _, r := range c.reports {
		width = max(width, len(r.Resource()))
	}

	header := fmt.Sprintf("%-*s", width, "resource")
	for _, cl := range classifications {
		header += fmt.Sprintf("  %s", cl)
	}
	summaryHeaderColor.Fprintln(c.out, header)

	for _, r := range c.reports {
		counts := r.Counts()
		fmt.Fprintf(c.out, "%-*s", width, r.Resource())
		for _, cl := range classifications {
			cell := fmt.Sprintf("  %*d", len(cl.String()), counts[cl])
			switch {
			case counts[cl] == 0:
				summaryQuietColor.Fprint(c.out, cell)
			case cl.IsHardFailure():
				summaryHardColor.Fprint(c.out, cell)
			case cl.IsSoftFailure():
				summarySoftColor.Fprint(c.out, cell)
			case cl == contract.Expected:
				summaryOKColor.Fprint(c.out, cell)
			default:
				fmt.Fprint(c.out, cell)
			}
		}
		fmt.Fprintln(c.out)
	}
	fmt.Fprintln(c.out, strings.Repeat("-", len(header)))
}

package reporting

import (
	"fmt"
	"time"

	"github.com/launchdarkly/crud-contract-tests/contract"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// EncodeReport returns the JSON representation of a report.
func EncodeReport(report contract.ProbeReport) []byte {
	w := jwriter.NewWriter()
	writeReport(&w, report)
	return w.Bytes()
}

// EncodeReports returns a JSON object with the run id and every report. Reports are expected to
// be from the same run.
func EncodeReports(runID string, reports []contract.ProbeReport) []byte {
	w := jwriter.NewWriter()
	obj := w.Object()
	obj.Name("runId").String(runID)
	totals := make(map[contract.Classification]int)
	for _, r := range reports {
		for c, n := range r.Counts() {
			totals[c] += n
		}
	}
	writeCounts(obj.Name("totals"), totals)
	arr := obj.Name("reports").Array()
	for _, r := range reports {
		writeReport(&w, r)
	}
	arr.End()
	obj.End()
	return w.Bytes()
}

// EncodeProbeResult returns the JSON representation of a single result.
func EncodeProbeResult(result contract.ProbeResult) []byte {
	w := jwriter.NewWriter()
	writeProbeResult(&w, result)
	return w.Bytes()
}

func writeReport(w *jwriter.Writer, report contract.ProbeReport) {
	obj := w.Object()
	obj.Name("runId").String(report.RunID())
	obj.Name("resource").String(report.Resource())
	obj.Name("started").String(report.Started().UTC().Format(time.RFC3339Nano))
	obj.Name("finished").String(report.Finished().UTC().Format(time.RFC3339Nano))
	obj.Name("durationMs").Int(int(report.Duration().Milliseconds()))
	writeCounts(obj.Name("counts"), report.Counts())
	arr := obj.Name("results").Array()
	for _, result := range report.Results() {
		writeProbeResult(w, result)
	}
	arr.End()
	obj.End()
}

func writeCounts(w *jwriter.Writer, counts map[contract.Classification]int) {
	obj := w.Object()
	for _, c := range contract.AllClassifications() {
		obj.Name(c.String()).Int(counts[c])
	}
	obj.End()
}

func writeProbeResult(w *jwriter.Writer, result contract.ProbeResult) {
	obj := w.Object()
	obj.Name("resource").String(result.Resource)
	obj.Name("probe").String(result.Probe)
	req := obj.Name("request").Object()
	req.Name("method").String(result.Request.Method)
	req.Name("url").String(result.Request.URL)
	req.End()
	if result.Status != 0 {
		obj.Name("status").Int(result.Status)
	}
	obj.Name("classification").String(result.Classification.String())
	if result.Field != "" {
		obj.Name("field").String(result.Field)
	}
	if len(result.Notes) != 0 {
		notes := obj.Name("notes").Array()
		for _, n := range result.Notes {
			w.String(n)
		}
		notes.End()
	}
	if result.Err != nil {
		obj.Name("error").String(result.Err.Error())
	}
	obj.Name("elapsedMs").Float64(float64(result.Elapsed.Microseconds()) / 1000)
	if result.BodyDigest != 0 {
		obj.Name("bodyDigest").String(fmt.Sprintf("%016x", result.BodyDigest))
	}
	obj.End()
}

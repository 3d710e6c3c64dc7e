package ldtest

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/launchdarkly/crud-contract-tests/framework"
	o "github.com/launchdarkly/crud-contract-tests/framework/opt"
)

// JUnitTestLogger accumulates test results and writes them as JUnit XML when EndLog is called.
// Each top-level test (one per resource kind) becomes a test suite.
type JUnitTestLogger struct {
	filePath   string
	properties []JUnitProperty
	testIDs    []TestID // in the order the tests started
	tests      map[string]jUnitTestStatus
	lock       sync.Mutex
}

// JUnitProperty is a name/value pair attached to every suite in the JUnit output.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitTestStatus struct {
	failures    []error
	skipped     o.Maybe[string]
	nonCritical o.Maybe[string]
	output      string
	duration    time.Duration
}

// Struct definitions for the JUnit XML schema - see https://github.com/jstemmer/go-junit-report

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Skipped    int                `xml:"skipped,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Properties []JUnitProperty    `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName     xml.Name             `xml:"testcase"`
	Classname   string               `xml:"classname,attr"`
	Name        string               `xml:"name,attr"`
	Time        string               `xml:"time,attr"`
	SkipMessage *jUnitXMLSkipMessage `xml:"skipped,omitempty"`
	Failure     *jUnitXMLFailure     `xml:"failure,omitempty"`
	SystemOut   string               `xml:"system-out,omitempty"`
}

type jUnitXMLSkipMessage struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

func NewJUnitTestLogger(filePath string, properties ...JUnitProperty) *JUnitTestLogger {
	return &JUnitTestLogger{
		filePath:   filePath,
		properties: properties,
		tests:      make(map[string]jUnitTestStatus),
	}
}

func (j *JUnitTestLogger) update(id TestID, fn func(*jUnitTestStatus)) {
	j.lock.Lock()
	defer j.lock.Unlock()
	key := id.String()
	status, ok := j.tests[key]
	if !ok {
		j.testIDs = append(j.testIDs, id)
	}
	fn(&status)
	j.tests[key] = status
}

func (j *JUnitTestLogger) TestStarted(id TestID) {
	j.update(id, func(*jUnitTestStatus) {})
}

func (j *JUnitTestLogger) TestError(id TestID, err error) {
	j.update(id, func(s *jUnitTestStatus) { s.failures = append(s.failures, err) })
}

func (j *JUnitTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	j.update(id, func(s *jUnitTestStatus) {
		s.output = debugOutput.ToString("")
		s.duration = result.Duration
		if result.NonCritical {
			s.nonCritical = o.Some(result.Explanation)
		}
	})
}

func (j *JUnitTestLogger) TestSkipped(id TestID, reason string) {
	j.update(id, func(s *jUnitTestStatus) { s.skipped = o.Some(reason) })
}

func (j *JUnitTestLogger) EndLog(Results) error {
	fmt.Printf("Writing JUnit data to %s\n", j.filePath)

	bytes, err := xml.MarshalIndent(j.buildDocument(), "", "  ")
	if err != nil {
		return err
	}
	bytes = append(bytes, '\n')
	return os.WriteFile(j.filePath, bytes, 0644) //nolint:gosec
}

func (j *JUnitTestLogger) buildDocument() jUnitXMLDocument {
	j.lock.Lock()
	defer j.lock.Unlock()

	var doc jUnitXMLDocument
	for _, topLevelID := range getTopLevelIDs(j.testIDs) {
		suite := jUnitXMLTestSuite{
			Name:       fmt.Sprintf("CRUD contract tests: %s", topLevelID),
			Properties: j.properties,
		}
		var total time.Duration
		for _, testID := range j.testIDs {
			if len(testID) == 0 || testID[0] != topLevelID {
				continue
			}
			status := j.tests[testID.String()]
			suite.TestCases = append(suite.TestCases, makeJUnitTestCase(topLevelID, testID, status))
			suite.Tests++
			if status.skipped.IsDefined() {
				suite.Skipped++
			} else if len(status.failures) != 0 && !status.nonCritical.IsDefined() {
				suite.Failures++
			}
			total += status.duration
		}
		suite.Time = jUnitDurationString(total)
		doc.Suites = append(doc.Suites, suite)
	}
	return doc
}

func makeJUnitTestCase(suiteName string, testID TestID, status jUnitTestStatus) jUnitXMLTestCase {
	testCase := jUnitXMLTestCase{
		Classname: suiteName,
		Name:      testID.String(),
		Time:      jUnitDurationString(status.duration),
	}
	if status.skipped.IsDefined() {
		testCase.SkipMessage = &jUnitXMLSkipMessage{Message: status.skipped.Value()}
		return testCase
	}
	if len(status.failures) == 0 {
		return testCase
	}
	messages := make([]string, 0, len(status.failures))
	for _, e := range status.failures {
		messages = append(messages, describeFailure(e))
	}
	if status.nonCritical.IsDefined() {
		// non-critical failures are reported as passing tests with the details in the output
		testCase.Name += " (non-critical)"
		testCase.SystemOut = status.nonCritical.Value() + "\n" + strings.Join(messages, "\n")
		return testCase
	}
	testCase.Failure = &jUnitXMLFailure{
		Message:  strings.Join(messages, "\n"),
		Contents: status.output,
	}
	return testCase
}

func describeFailure(err error) string {
	message := err.Error()
	var es ErrorWithStacktrace
	if errors.As(err, &es) && len(es.Stacktrace) != 0 {
		message += "\n  Stacktrace:"
		for _, s := range es.Stacktrace {
			message += "\n    " + s.String()
		}
	}
	return message
}

func getTopLevelIDs(allIDs []TestID) []string {
	var ret []string
	seen := make(map[string]bool)
	for _, testID := range allIDs {
		if len(testID) != 0 && !seen[testID[0]] {
			ret = append(ret, testID[0])
			seen[testID[0]] = true
		}
	}
	return ret
}

func jUnitDurationString(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

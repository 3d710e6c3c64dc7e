package ldtest

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Filter decides whether a test should run.
type Filter func(TestID) bool

// RegexFilters selects tests by their IDs. A test runs if it matches at least one MustMatch
// pattern (or there are none), and matches no MustNotMatch pattern.
type RegexFilters struct {
	MustMatch    TestIDPatternList
	MustNotMatch TestIDPatternList
}

// Match implements Filter.
func (r RegexFilters) Match(id TestID) bool {
	if r.MustMatch.IsDefined() && !r.MustMatch.AnyMatch(id, true) {
		return false
	}
	return !r.MustNotMatch.AnyMatch(id, false)
}

// IsDefined returns true if there are any patterns.
func (r RegexFilters) IsDefined() bool {
	return r.MustMatch.IsDefined() || r.MustNotMatch.IsDefined()
}

// TestIDPattern has one regex per test ID component, so "posts/create" matches the "create"
// subtests of the "posts" test (and, as a regex, any test whose components contain those strings).
type TestIDPattern []*regexp.Regexp

// Match tests whether the pattern matches the ID. If includeParents is true, an ID that is shorter
// than the pattern matches if it is a prefix of something that would match, so that the parents
// of a selected test also run.
func (p TestIDPattern) Match(id TestID, includeParents bool) bool {
	if len(id) < len(p) && !includeParents {
		return false
	}
	for i, rx := range p {
		if i >= len(id) {
			break
		}
		if !rx.MatchString(id[i]) {
			return false
		}
	}
	return true
}

func (p TestIDPattern) String() string {
	parts := make([]string, 0, len(p))
	for _, rx := range p {
		parts = append(parts, rx.String())
	}
	return strings.Join(parts, "/")
}

func ParseTestIDPattern(s string) (TestIDPattern, error) {
	parts := strings.Split(s, "/")
	ret := make(TestIDPattern, 0, len(parts))
	for _, part := range parts {
		rx, err := regexp.Compile(part)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", part, err)
		}
		ret = append(ret, rx)
	}
	return ret, nil
}

// TestIDPatternList implements flag.Value so that a flag can be repeated.
type TestIDPatternList []TestIDPattern

func (l TestIDPatternList) String() string {
	quoted := make([]string, 0, len(l))
	for _, p := range l {
		quoted = append(quoted, `"`+p.String()+`"`)
	}
	return strings.Join(quoted, " or ")
}

// Set is called by the command line parser.
func (l *TestIDPatternList) Set(value string) error {
	p, err := ParseTestIDPattern(value)
	if err != nil {
		return err
	}
	*l = append(*l, p)
	return nil
}

func (l TestIDPatternList) IsDefined() bool {
	return len(l) != 0
}

func (l TestIDPatternList) AnyMatch(id TestID, includeParents bool) bool {
	for _, p := range l {
		if p.Match(id, includeParents) {
			return true
		}
	}
	return false
}

// PrintFilterDescription explains which tests the filters will skip, if any.
func PrintFilterDescription(w io.Writer, filters RegexFilters) {
	if !filters.IsDefined() {
		return
	}
	fmt.Fprintln(w, "Some tests will be skipped based on the filter criteria for this test run:")
	if filters.MustMatch.IsDefined() {
		fmt.Fprintf(w, "  skip any not matching %s\n", filters.MustMatch)
	}
	if filters.MustNotMatch.IsDefined() {
		fmt.Fprintf(w, "  skip any matching %s\n", filters.MustNotMatch)
	}
	fmt.Fprintln(w)
}

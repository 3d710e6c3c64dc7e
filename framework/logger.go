package framework

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the minimal logging interface used throughout the harness. It is satisfied by
// *log.Logger, by ldlog.BaseLogger, and by the loggers in this package.
type Logger interface {
	Println(args ...interface{})
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (nullLogger) Println(...interface{})        {}
func (nullLogger) Printf(string, ...interface{}) {}

// NullLogger returns a Logger that discards everything.
func NullLogger() Logger { return nullLogger{} }

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// ToString formats the captured messages one per line, each with a timestamp and the given prefix.
func (output CapturedOutput) ToString(prefix string) string {
	var b strings.Builder
	for i, m := range output {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s[%s] %s", prefix, m.Time.Format(timestampFormat), m.Message)
	}
	return b.String()
}

// CapturingLogger records all output from a test scope.
//
// A child logger that is attached with AddChildLogger starts out with a copy of everything the
// parent has captured so far, and while it is attached, anything sent to the parent goes to the
// child instead. See ldtest.(*T).DebugLogger().
type CapturingLogger struct {
	output   CapturedOutput
	children []*CapturingLogger
	lock     sync.Mutex
}

func (l *CapturingLogger) Println(args ...interface{}) {
	l.append(strings.TrimRight(fmt.Sprintln(args...), "\r\n"))
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.append(fmt.Sprintf(message, args...))
}

func (l *CapturingLogger) append(message string) {
	l.appendCaptured(CapturedMessage{Time: time.Now(), Message: message})
}

func (l *CapturingLogger) appendCaptured(m CapturedMessage) {
	l.lock.Lock()
	if len(l.children) == 0 {
		l.output = append(l.output, m)
		l.lock.Unlock()
		return
	}
	children := append([]*CapturingLogger(nil), l.children...)
	l.lock.Unlock()
	for _, c := range children {
		c.appendCaptured(m)
	}
}

// Output returns a copy of everything captured so far.
func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append(CapturedOutput(nil), l.output...)
}

func (l *CapturingLogger) AddChildLogger(child *CapturingLogger) {
	inherited := l.Output()
	l.lock.Lock()
	l.children = append(l.children, child)
	l.lock.Unlock()

	child.lock.Lock()
	child.output = append(inherited, child.output...)
	child.lock.Unlock()
}

func (l *CapturingLogger) RemoveChildLogger(child *CapturingLogger) {
	l.lock.Lock()
	defer l.lock.Unlock()
	for i, c := range l.children {
		if c == child {
			l.children = append(l.children[:i], l.children[i+1:]...)
			return
		}
	}
}

type prefixedLogger struct {
	base   Logger
	prefix string
}

// LoggerWithPrefix returns a Logger that adds a prefix to every message before passing it on.
func LoggerWithPrefix(baseLogger Logger, prefix string) Logger {
	return prefixedLogger{base: baseLogger, prefix: prefix}
}

func (p prefixedLogger) Println(args ...interface{}) {
	p.base.Println(append([]interface{}{p.prefix}, args...)...)
}

func (p prefixedLogger) Printf(message string, args ...interface{}) {
	p.base.Printf(p.prefix+message, args...)
}

// Package ldtest contains a test runner framework that is similar to Go's testing package, but is
// run as regular Go application code rather than Go tests. It adds non-critical failures, which
// are reported without failing the run, and pluggable loggers for console and JUnit output.
package ldtest

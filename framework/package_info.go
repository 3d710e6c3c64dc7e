// Package framework contains the low-level infrastructure of the contract test harness that does
// not know anything about particular REST resources. The base package contains shared types such as
// Logger and Capabilities; other components are in the subpackages harness, helpers, ldtest, opt
// and tracing.
//
// The general model is:
//
// 1. The harness verifies that the remote service under test is reachable before anything runs,
// and can host local endpoints (for instance a mock of the remote service, a live feed of probe
// results, or a metrics endpoint) on a single HTTP listener.
//
// 2. There is a general notion of a test scope which is similar to Go's testing.T, allowing
// pieces of test logic to be associated with a test identifier and to accumulate success,
// failure and non-critical failure results.
//
// The code that knows what a resource contract looks like lives in the contract package, and the
// code that turns contracts into a tree of tests lives in contracttests.
package framework

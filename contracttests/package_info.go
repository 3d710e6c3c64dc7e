// Package contracttests turns resource contracts into a tree of tests.
//
// Tests in this package use other packages as follows:
//
// contract: the probes themselves and the classification of their results
//
// ldtest: the basic test scope framework
//
// reporting: consumers of probe results and finished reports
//
// resources: the schema and configuration of each resource kind
//
// servicedef: the capability names that decide which optional probes run
package contracttests

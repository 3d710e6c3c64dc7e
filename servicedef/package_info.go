// Package servicedef contains the definitions of the per-resource configuration that the contract
// tests are run with: which ids are known to exist, which id is known not to, and which payloads
// to submit. These are read from the data files in the data package.
//
// A ResourceDef says nothing about the shape of the resource itself; that is declared in Go, in
// the resources package.
package servicedef

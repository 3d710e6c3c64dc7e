// Package contract verifies that a CRUD-style REST resource behaves the way its declared contract
// says it should.
//
// A ResourceSchema describes the shape of one resource kind, and an EndpointSet says where its
// list, get, create, replace, patch and delete operations live. A Verifier runs individual probes
// against those endpoints through a Transport and classifies each outcome as a ProbeResult. Probes
// never panic or return errors for problems with the remote service: an unreachable service, an
// unexpected status, or a malformed body all become classifications, so that one bad probe never
// prevents the rest of a resource's probes from running.
//
// The results for one resource kind are collected into an immutable ProbeReport.
package contract

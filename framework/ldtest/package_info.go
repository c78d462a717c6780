// Package ldtest provides the test scope type T, which plays the role of Go's testing.T for
// conformance tests that run outside of the Go test runner.
//
// A T accumulates failures reported through Errorf (so it can be passed to the assert and
// require packages), can be skipped with a reason, and can run named subtests. Every test's
// outcome is recorded in Results.
package ldtest

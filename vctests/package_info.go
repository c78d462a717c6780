// Package vctests contains the conformance scenarios. Each suite runs once for every
// implementation in the registry that has an endpoint for the suite's role with the run's tag;
// the others are reported as skipped.
package vctests

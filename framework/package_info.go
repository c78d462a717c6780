// Package framework contains the low-level implementation of test harness infrastructure
// that is not specific to the credential domain. The base package contains shared types
// such as Logger; other components are in the subpackages harness and ldtest.
//
// The general model is:
//
// 1. The test harness talks to one or more implementations under test, each exposing
// HTTP endpoints for some set of roles (issuer, verifier, presentation verifier).
//
// 2. The test harness can host an in-process reference implementation, so that the
// harness itself can be exercised without any third-party service.
//
// 3. There is a general notion of a test scope which is similar to Go's testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results.
//
// The domain-specific code that knows what is being tested is responsible for building
// request bodies, deciding which implementations are in scope, and providing a
// domain-specific test API on top of the test scope.
package framework

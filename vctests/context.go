package vctests

import (
	"fmt"
	"io"

	"github.com/vc-test-suites/vc-conformance-tests/endpoints"
	"github.com/vc-test-suites/vc-conformance-tests/fixtures"
	"github.com/vc-test-suites/vc-conformance-tests/framework/ldtest"
	"github.com/vc-test-suites/vc-conformance-tests/matrix"
	"github.com/vc-test-suites/vc-conformance-tests/prover"
	"github.com/vc-test-suites/vc-conformance-tests/registry"
	"github.com/vc-test-suites/vc-conformance-tests/transport"
)

// SuiteContext is the global state of a run. It is passed to the tests through
// ldtest.TestConfiguration.Context.
type SuiteContext struct {
	Registry registry.Registry
	Tag      string
	Fixtures *fixtures.Store
	Adapter  *transport.Adapter
	Prover   *prover.Prover

	// Output receives the summary of which implementations each suite covers. If nil, the
	// summary is discarded.
	Output io.Writer
}

// NewSuiteContext creates the components of a run from its configuration.
func NewSuiteContext(reg registry.Registry, config registry.Config, tag string, output io.Writer) (SuiteContext, error) {
	p, err := prover.FromConfig(config)
	if err != nil {
		return SuiteContext{}, err
	}
	return SuiteContext{
		Registry: reg,
		Tag:      tag,
		Fixtures: fixtures.NewStore(),
		Adapter:  transport.NewAdapter(config),
		Prover:   p,
		Output:   output,
	}, nil
}

func requireContext(t *ldtest.T) SuiteContext {
	if c, ok := t.Context().(SuiteContext); ok {
		return c
	}
	panic("SuiteContext was not included in the global test configuration!" +
		" This is a basic mistake in the initialization logic.")
}

// endpointsFor returns the endpoints of an implementation, with request tracing going to the
// test's debug output.
func (sc SuiteContext) endpointsFor(t *ldtest.T, impl registry.Implementation) *endpoints.TestEndpoints {
	return endpoints.New(impl, sc.Tag,
		endpoints.WithPoster(sc.Adapter.WithRequestLogger(t.DebugLogger())),
		endpoints.WithProver(sc.Prover),
		endpoints.WithLogger(t.DebugLogger()),
	)
}

// forEachImplementation runs action as a subtest for every implementation that has an endpoint
// for the role, and records a skipped subtest for every other one.
func forEachImplementation(t *ldtest.T, role registry.Role, action func(*ldtest.T, *endpoints.TestEndpoints)) {
	sc := requireContext(t)
	p := matrix.FilterRegistry(sc.Registry, role, sc.Tag)
	if sc.Output != nil {
		p.Describe(sc.Output)
	}
	for _, impl := range p.Match {
		impl := impl
		t.Run(impl.Name, func(t *ldtest.T) {
			action(t, sc.endpointsFor(t, impl))
		})
	}
	for _, impl := range p.NonMatch {
		t.Run(impl.Name, func(t *ldtest.T) {
			t.SkipWithReason(fmt.Sprintf("no %s endpoint tagged %q", role, sc.Tag))
		})
	}
}

func requireRole(t *ldtest.T, te *endpoints.TestEndpoints, role registry.Role) {
	if !te.Has(role) {
		t.SkipWithReason(fmt.Sprintf("%s has no %s endpoint tagged %q", te.Implementation().Name, role, te.Tag()))
	}
}

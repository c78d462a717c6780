// Package endpoints gives scenario code a uniform way to call the issuer, verifier and
// presentation endpoints of one implementation.
package endpoints

import (
	"context"
	"fmt"

	"github.com/vc-test-suites/vc-conformance-tests/document"
	"github.com/vc-test-suites/vc-conformance-tests/framework"
	"github.com/vc-test-suites/vc-conformance-tests/prover"
	"github.com/vc-test-suites/vc-conformance-tests/registry"
	"github.com/vc-test-suites/vc-conformance-tests/servicedef"
	"github.com/vc-test-suites/vc-conformance-tests/transport"
)

// NoEndpointError is the failure returned when an operation is called on an implementation that
// has no endpoint for the role with the requested tag.
type NoEndpointError struct {
	Implementation string
	Role           registry.Role
	Tag            string
}

func (e *NoEndpointError) Error() string {
	return fmt.Sprintf("implementation %q has no %s endpoint tagged %q", e.Implementation, e.Role, e.Tag)
}

// TestEndpoints resolves, for a single implementation and tag, the endpoints of each role.
type TestEndpoints struct {
	impl     registry.Implementation
	tag      string
	resolved map[registry.Role]registry.Endpoint
	poster   transport.Poster
	prover   *prover.Prover
	logger   framework.Logger
}

// Option customizes TestEndpoints.
type Option func(*TestEndpoints)

// WithPoster sets how requests are delivered. The default is a transport.Adapter with default
// configuration.
func WithPoster(p transport.Poster) Option {
	return func(te *TestEndpoints) { te.poster = p }
}

// WithProver sets the prover used by ProveVP.
func WithProver(p *prover.Prover) Option {
	return func(te *TestEndpoints) { te.prover = p }
}

// WithLogger sets the logger for a description of each call.
func WithLogger(logger framework.Logger) Option {
	return func(te *TestEndpoints) {
		if logger != nil {
			te.logger = logger
		}
	}
}

// New resolves the endpoints of impl whose tags contain tag. Roles that do not resolve are not
// an error here; calling an operation for them returns a *NoEndpointError failure.
func New(impl registry.Implementation, tag string, opts ...Option) *TestEndpoints {
	te := &TestEndpoints{
		impl:     impl,
		tag:      tag,
		resolved: make(map[registry.Role]registry.Endpoint),
		logger:   framework.NullLogger(),
	}
	for _, role := range registry.AllRoles {
		if e, ok := impl.FindEndpoint(role, tag); ok {
			te.resolved[role] = e
		}
	}
	for _, o := range opts {
		o(te)
	}
	if te.poster == nil {
		te.poster = transport.NewAdapter(registry.Config{}.WithDefaults(), transport.WithLogger(te.logger))
	}
	return te
}

// Implementation returns the implementation these endpoints belong to.
func (te *TestEndpoints) Implementation() registry.Implementation { return te.impl }

// Tag returns the tag endpoints were resolved by.
func (te *TestEndpoints) Tag() string { return te.tag }

// Has returns true if an endpoint was resolved for the role.
func (te *TestEndpoints) Has(role registry.Role) bool {
	_, ok := te.resolved[role]
	return ok
}

// Endpoint returns the endpoint resolved for the role.
func (te *TestEndpoints) Endpoint(role registry.Role) (registry.Endpoint, bool) {
	e, ok := te.resolved[role]
	return e, ok
}

func (te *TestEndpoints) endpoint(role registry.Role) (registry.Endpoint, error) {
	if e, ok := te.resolved[role]; ok {
		return e, nil
	}
	return registry.Endpoint{}, &NoEndpointError{Implementation: te.impl.Name, Role: role, Tag: te.tag}
}

// Issue asks the issuer to secure a credential. The request carries a copy of the credential
// whose issuer is replaced by the endpoint's id, if both are present, and the endpoint's
// options.
func (te *TestEndpoints) Issue(ctx context.Context, credential document.Document) transport.Result {
	return te.issue(ctx, credential, true)
}

// IssueAsIs is like Issue, but never replaces the issuer. Scenarios that send a deliberately
// invalid issuer use it.
func (te *TestEndpoints) IssueAsIs(ctx context.Context, credential document.Document) transport.Result {
	return te.issue(ctx, credential, false)
}

func (te *TestEndpoints) issue(ctx context.Context, credential document.Document, replaceIssuer bool) transport.Result {
	e, err := te.endpoint(registry.RoleIssuers)
	if err != nil {
		return transport.Failure(err)
	}
	c := credential.Clone()
	if _, hasIssuer := c.IssuerID(); replaceIssuer && hasIssuer && e.ID != "" {
		c.SetIssuerID(e.ID)
	}
	body := servicedef.IssueRequest{Credential: c}
	if !e.Options.IsNull() {
		body.Options = e.Options.AsArbitraryValue()
	}
	te.logger.Printf("issue via %s", e)
	return te.poster.Post(ctx, e, body)
}

// Verify asks the verifier to verify a credential, checking its proof. A successful response
// that reports errors is treated as a failure.
func (te *TestEndpoints) Verify(ctx context.Context, credential document.Document) transport.Result {
	e, err := te.endpoint(registry.RoleVerifiers)
	if err != nil {
		return transport.Failure(err)
	}
	body := servicedef.VerifyCredentialRequest{
		VerifiableCredential: credential,
		Options:              servicedef.DefaultVerifyCredentialOptions(),
	}
	te.logger.Printf("verify via %s", e)
	return transport.FailureFromEmbeddedErrors(te.poster.Post(ctx, e, body))
}

// VerifyVP asks the presentation verifier to verify a presentation. If options is nil, no checks
// are requested. A successful response that reports errors is treated as a failure.
func (te *TestEndpoints) VerifyVP(
	ctx context.Context,
	presentation document.Document,
	options *servicedef.VerifyOptions,
) transport.Result {
	e, err := te.endpoint(registry.RoleVPVerifiers)
	if err != nil {
		return transport.Failure(err)
	}
	opts := servicedef.DefaultVerifyPresentationOptions()
	if options != nil {
		opts = *options
	}
	body := servicedef.VerifyPresentationRequest{VerifiablePresentation: presentation, Options: opts}
	te.logger.Printf("verify presentation via %s", e)
	return transport.FailureFromEmbeddedErrors(te.poster.Post(ctx, e, body))
}

// ProveVP secures a presentation locally. No request is made, so it works for every
// implementation regardless of its prover endpoints.
func (te *TestEndpoints) ProveVP(presentation document.Document, options servicedef.ProveOptions) transport.Result {
	if te.prover == nil {
		return transport.Failure(fmt.Errorf("no prover configured for %s", te.impl.Name))
	}
	vp, err := te.prover.Prove(presentation, options)
	if err != nil {
		return transport.Failure(err)
	}
	return transport.Success(vp)
}

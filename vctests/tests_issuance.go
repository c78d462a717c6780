package vctests

import (
	"context"

	"github.com/vc-test-suites/vc-conformance-tests/assertions"
	"github.com/vc-test-suites/vc-conformance-tests/document"
	"github.com/vc-test-suites/vc-conformance-tests/endpoints"
	"github.com/vc-test-suites/vc-conformance-tests/fixtures"
	"github.com/vc-test-suites/vc-conformance-tests/framework/ldtest"
	"github.com/vc-test-suites/vc-conformance-tests/registry"

	"github.com/stretchr/testify/require"
)

type invalidCredentialCase struct {
	name   string
	mutate func(document.Document)

	// keepIssuer sends the issuer as mutated instead of replacing it with the endpoint's id.
	keepIssuer bool
}

var invalidCredentialCases = []invalidCredentialCase{
	{name: "@context is missing", mutate: func(d document.Document) { delete(d, document.PropertyContext) }},
	{name: "first @context is not the base context", mutate: func(d document.Document) {
		d[document.PropertyContext] = []interface{}{"https://www.w3.org/2018/credentials/v1"}
	}},
	{name: "type is missing", mutate: func(d document.Document) { delete(d, document.PropertyType) }},
	{name: "type does not include VerifiableCredential", mutate: func(d document.Document) {
		d[document.PropertyType] = []interface{}{"ExampleCredential"}
	}},
	{name: "credentialSubject is missing", mutate: func(d document.Document) {
		delete(d, document.PropertyCredentialSubject)
	}},
	{name: "issuer is missing", keepIssuer: true, mutate: func(d document.Document) {
		delete(d, document.PropertyIssuer)
	}},
	{name: "issuer is not a URL", keepIssuer: true, mutate: func(d document.Document) {
		d[document.PropertyIssuer] = "not a url"
	}},
	{name: "issuer object has no id", keepIssuer: true, mutate: func(d document.Document) {
		d[document.PropertyIssuer] = map[string]interface{}{"name": "Example Issuer"}
	}},
	{name: "id is not a URL", mutate: func(d document.Document) { d[document.PropertyID] = "not a url" }},
}

func DoIssuanceTests(t *ldtest.T) {
	forEachImplementation(t, registry.RoleIssuers, func(t *ldtest.T, te *endpoints.TestEndpoints) {
		sc := requireContext(t)

		t.Run("issues a valid credential", func(t *ldtest.T) {
			vc := issueFixture(t, te, fixtures.CredentialBasic)
			assertions.IsSecured(t, vc, "issued credential must be secured")
			assertions.HasRequiredProperties(t, vc, "issued credential must have the required properties")
			inner := unwrap(t, vc)
			assertions.HasStructure(t, inner, assertions.KindCredential, "issued credential must be well formed")
			assertions.HasPath(t, inner, "$.credentialSubject", "issued credential must keep its subject")
		})

		t.Run("issues a credential with an issuer object", func(t *ldtest.T) {
			vc := issueFixture(t, te, fixtures.CredentialIssuerObject)
			assertions.HasPath(t, unwrap(t, vc), "$.issuer.id", "issuer object must keep its id")
		})

		for _, c := range invalidCredentialCases {
			c := c
			t.Run("rejects credential when "+c.name, func(t *ldtest.T) {
				credential := sc.Fixtures.MustLoad(fixtures.CredentialBasic)
				c.mutate(credential)
				issue := te.Issue
				if c.keepIssuer {
					issue = te.IssueAsIs
				}
				assertions.RejectsInvalidInput(t, issue(context.Background(), credential), c.name)
			})
		}
	})
}

// issueFixture issues a fixture and requires it to succeed with a document.
func issueFixture(t *ldtest.T, te *endpoints.TestEndpoints, name string) document.Document {
	return issueDocument(t, te, requireContext(t).Fixtures.MustLoad(name))
}

func issueDocument(t *ldtest.T, te *endpoints.TestEndpoints, credential document.Document) document.Document {
	r := te.Issue(context.Background(), credential)
	if !assertions.Succeeds(t, r, "issuance must succeed") {
		t.FailNow()
	}
	d, ok := r.Document()
	require.True(t, ok, "issuer must return a JSON object, got %v", r.Data)
	return d
}

// unwrap returns the credential or presentation inside an envelope, or the document itself.
func unwrap(t *ldtest.T, d document.Document) document.Document {
	inner, err := assertions.ExtractIfEnveloped(d)
	require.NoError(t, err, "enveloped document must be decodable")
	return inner
}

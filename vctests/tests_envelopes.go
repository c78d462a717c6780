package vctests

import (
	"github.com/vc-test-suites/vc-conformance-tests/assertions"
	"github.com/vc-test-suites/vc-conformance-tests/document"
	"github.com/vc-test-suites/vc-conformance-tests/endpoints"
	"github.com/vc-test-suites/vc-conformance-tests/envelope"
	"github.com/vc-test-suites/vc-conformance-tests/fixtures"
	"github.com/vc-test-suites/vc-conformance-tests/framework/ldtest"
	"github.com/vc-test-suites/vc-conformance-tests/registry"

	"github.com/stretchr/testify/assert"
)

func DoEnvelopeTests(t *ldtest.T) {
	forEachImplementation(t, registry.RoleIssuers, func(t *ldtest.T, te *endpoints.TestEndpoints) {
		t.Run("enveloped credential", func(t *ldtest.T) {
			vc := issueFixture(t, te, fixtures.CredentialBasic)
			if !envelope.IsEnveloped(vc) {
				t.SkipWithReason("issuer returned an embedded proof")
			}

			t.Run("has exactly one enveloping type", func(t *ldtest.T) {
				assert.True(t, vc.HasType(document.TypeEnvelopedCredential), "type must be %s",
					document.TypeEnvelopedCredential)
				assert.False(t, vc.Has(document.PropertyProof), "an envelope must not also have a proof")
			})

			t.Run("id is a data: URL with a known media type", func(t *ldtest.T) {
				id, _ := vc.ID()
				_, err := envelope.DefaultRegistry().DecodeDataURL(id)
				assert.NoError(t, err)
			})

			t.Run("has the required properties", func(t *ldtest.T) {
				assertions.HasRequiredProperties(t, vc, "enveloped credential must have the required properties")
			})

			t.Run("inner credential is well formed", func(t *ldtest.T) {
				assertions.HasStructure(t, unwrap(t, vc), assertions.KindCredential, "enveloped credential")
			})
		})
	})
}

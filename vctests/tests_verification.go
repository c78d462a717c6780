package vctests

import (
	"context"

	"github.com/vc-test-suites/vc-conformance-tests/assertions"
	"github.com/vc-test-suites/vc-conformance-tests/endpoints"
	"github.com/vc-test-suites/vc-conformance-tests/fixtures"
	"github.com/vc-test-suites/vc-conformance-tests/framework/ldtest"
	"github.com/vc-test-suites/vc-conformance-tests/registry"
)

func DoVerificationTests(t *ldtest.T) {
	forEachImplementation(t, registry.RoleVerifiers, func(t *ldtest.T, te *endpoints.TestEndpoints) {
		sc := requireContext(t)

		t.Run("verifies a credential it issued", func(t *ldtest.T) {
			requireRole(t, te, registry.RoleIssuers)
			vc := issueFixture(t, te, fixtures.CredentialBasic)
			assertions.Succeeds(t, te.Verify(context.Background(), vc), "issued credential must verify")
		})

		t.Run("rejects a credential without a proof", func(t *ldtest.T) {
			vc := sc.Fixtures.MustLoad(fixtures.CredentialBasic)
			assertions.Rejects(t, te.Verify(context.Background(), vc), "credential without a proof must not verify")
		})

		t.Run("rejects a credential whose proof was removed", func(t *ldtest.T) {
			requireRole(t, te, registry.RoleIssuers)
			vc := issueFixture(t, te, fixtures.CredentialBasic)
			if !vc.Has("proof") {
				t.SkipWithReason("issuer returned an enveloped credential")
			}
			assertions.Rejects(t, te.Verify(context.Background(), vc.WithoutProof()),
				"credential without a proof must not verify")
		})

		t.Run("rejects NonconformingDocument", func(t *ldtest.T) {
			vc := sc.Fixtures.MustLoad(fixtures.CredentialNonconforming)
			assertions.Rejects(t, te.Verify(context.Background(), vc), "NonconformingDocument must not verify")
		})
	})
}

package vctests

import (
	"context"
	"time"

	"github.com/vc-test-suites/vc-conformance-tests/assertions"
	"github.com/vc-test-suites/vc-conformance-tests/document"
	"github.com/vc-test-suites/vc-conformance-tests/endpoints"
	"github.com/vc-test-suites/vc-conformance-tests/fixtures"
	"github.com/vc-test-suites/vc-conformance-tests/framework/ldtest"
	"github.com/vc-test-suites/vc-conformance-tests/registry"
)

func DoValidityPeriodTests(t *ldtest.T) {
	forEachImplementation(t, registry.RoleIssuers, func(t *ldtest.T, te *endpoints.TestEndpoints) {
		sc := requireContext(t)

		t.Run("validFrom and validUntil are dateTimes", func(t *ldtest.T) {
			now := time.Now()
			credential := assertions.ValidityPeriod(sc.Fixtures.MustLoad(fixtures.CredentialBasic),
				now.Add(-assertions.DefaultSkew), now.Add(assertions.DefaultSkew))
			vc := unwrap(t, issueDocument(t, te, credential))
			assertions.IsDateTime(t, vc[document.PropertyValidFrom], "validFrom")
			assertions.IsDateTime(t, vc[document.PropertyValidUntil], "validUntil")
		})

		t.Run("rejects malformed validFrom", func(t *ldtest.T) {
			r := te.Issue(context.Background(), sc.Fixtures.MustLoad(fixtures.CredentialInvalidValidity))
			assertions.RejectsInvalidInput(t, r, "validFrom must be a dateTime")
		})

		t.Run("validFrom must not be after validUntil", func(t *ldtest.T) {
			requireRole(t, te, registry.RoleVerifiers)
			assertions.TemporalOrder(context.Background(), t, te,
				sc.Fixtures.MustLoad(fixtures.CredentialBasic), assertions.DefaultSkew)
		})
	})
}

package vctests

import (
	"context"

	"github.com/vc-test-suites/vc-conformance-tests/assertions"
	"github.com/vc-test-suites/vc-conformance-tests/document"
	"github.com/vc-test-suites/vc-conformance-tests/endpoints"
	"github.com/vc-test-suites/vc-conformance-tests/envelope"
	"github.com/vc-test-suites/vc-conformance-tests/fixtures"
	"github.com/vc-test-suites/vc-conformance-tests/framework/ldtest"
	"github.com/vc-test-suites/vc-conformance-tests/registry"
	"github.com/vc-test-suites/vc-conformance-tests/servicedef"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func DoPresentationTests(t *ldtest.T) {
	forEachImplementation(t, registry.RoleVPVerifiers, func(t *ldtest.T, te *endpoints.TestEndpoints) {
		sc := requireContext(t)

		t.Run("verifies a presentation", func(t *ldtest.T) {
			vp := prove(t, te, sc.Fixtures.MustLoad(fixtures.PresentationBasic), servicedef.ProveOptions{})
			assertions.Succeeds(t, te.VerifyVP(context.Background(), vp, nil), "presentation must verify")
		})

		t.Run("verifies a presentation with a challenge", func(t *ldtest.T) {
			challenge := uuid.New().String()
			vp := prove(t, te, sc.Fixtures.MustLoad(fixtures.PresentationBasic), servicedef.ProveOptions{
				Challenge: ldvalue.NewOptionalString(challenge),
			})
			options := &servicedef.VerifyOptions{
				Checks:    []string{servicedef.CheckProof},
				Challenge: ldvalue.NewOptionalString(challenge),
			}
			assertions.Succeeds(t, te.VerifyVP(context.Background(), vp, options),
				"presentation with matching challenge must verify")
		})

		t.Run("verifies an enveloped presentation", func(t *ldtest.T) {
			vp := prove(t, te, sc.Fixtures.MustLoad(fixtures.PresentationBasic), servicedef.ProveOptions{Enveloped: true})
			assertions.Succeeds(t, te.VerifyVP(context.Background(), vp, nil), "enveloped presentation must verify")
		})

		t.Run("verifies a presentation of an issued credential", func(t *ldtest.T) {
			requireRole(t, te, registry.RoleIssuers)
			vc := issueFixture(t, te, fixtures.CredentialBasic)
			vp := sc.Fixtures.MustLoad(fixtures.PresentationBasic)
			vp[document.PropertyVerifiableCredential] = []interface{}{map[string]interface{}(vc)}
			vp = prove(t, te, vp, servicedef.ProveOptions{})
			assertions.Succeeds(t, te.VerifyVP(context.Background(), vp, nil),
				"presentation of an issued credential must verify")
		})

		t.Run("verifies a presentation of an enveloped credential", func(t *ldtest.T) {
			requireRole(t, te, registry.RoleIssuers)
			vc := issueFixture(t, te, fixtures.CredentialBasic)
			if !envelope.IsEnveloped(vc) {
				t.SkipWithReason("issuer does not return enveloped credentials")
			}
			vp := sc.Fixtures.MustLoad(fixtures.PresentationBasic)
			vp[document.PropertyVerifiableCredential] = []interface{}{map[string]interface{}(vc)}
			vp = prove(t, te, vp, servicedef.ProveOptions{})
			assertions.Succeeds(t, te.VerifyVP(context.Background(), vp, nil),
				"presentation of an enveloped credential must verify")
		})

		t.Run("rejects a presentation without a type", func(t *ldtest.T) {
			vp := prove(t, te, sc.Fixtures.MustLoad(fixtures.PresentationMissingType), servicedef.ProveOptions{})
			assertions.Rejects(t, te.VerifyVP(context.Background(), vp, nil), "presentation must have a type")
		})

		t.Run("rejects NonconformingDocument", func(t *ldtest.T) {
			vp := sc.Fixtures.MustLoad(fixtures.PresentationNonconforming)
			assertions.Rejects(t, te.VerifyVP(context.Background(), vp, nil), "NonconformingDocument must not verify")
		})
	})
}

func prove(t *ldtest.T, te *endpoints.TestEndpoints, vp document.Document, options servicedef.ProveOptions) document.Document {
	r := te.ProveVP(vp, options)
	require.NoError(t, r.Err, "could not secure presentation")
	d, ok := r.Document()
	require.True(t, ok)
	return d
}

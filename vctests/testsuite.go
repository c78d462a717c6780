package vctests

import (
	"github.com/vc-test-suites/vc-conformance-tests/framework/ldtest"
)

// RunTestSuite runs every suite against the implementations of the registry.
func RunTestSuite(
	sc SuiteContext,
	filter ldtest.Filter,
	testLogger ldtest.TestLogger,
) ldtest.Results {
	config := ldtest.TestConfiguration{
		Filter:     filter,
		TestLogger: testLogger,
		Context:    sc,
	}
	return ldtest.Run(config, func(t *ldtest.T) {
		t.Run("issuance", DoIssuanceTests)
		t.Run("validity period", DoValidityPeriodTests)
		t.Run("verification", DoVerificationTests)
		t.Run("presentations", DoPresentationTests)
		t.Run("envelopes", DoEnvelopeTests)
	})
}

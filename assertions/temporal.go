package assertions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vc-test-suites/vc-conformance-tests/document"
	"github.com/vc-test-suites/vc-conformance-tests/endpoints"
	"github.com/vc-test-suites/vc-conformance-tests/registry"

	"github.com/stretchr/testify/assert"
)

// DefaultSkew is the distance from the current time used for validFrom and validUntil.
const DefaultSkew = 48 * time.Hour

// ValidityPeriod returns a copy of a credential with validFrom and validUntil set.
func ValidityPeriod(credential document.Document, from, until time.Time) document.Document {
	c := credential.Clone()
	c[document.PropertyValidFrom] = from.UTC().Format(time.RFC3339)
	c[document.PropertyValidUntil] = until.UTC().Format(time.RFC3339)
	return c
}

// CheckTemporalOrder issues a credential that is valid from skew before now until skew after
// now, which must succeed, and one with the two dates swapped, which must be rejected. An
// implementation may reject the swapped credential either when issuing it or, if it issues it,
// when verifying the result. Accepting it at issuance without a verifier to reject it fails.
func CheckTemporalOrder(
	ctx context.Context,
	te *endpoints.TestEndpoints,
	credential document.Document,
	skew time.Duration,
) error {
	now := time.Now()

	ordered := te.Issue(ctx, ValidityPeriod(credential, now.Add(-skew), now.Add(skew)))
	if err := CheckSucceeded(ordered); err != nil {
		return fmt.Errorf("credential with validFrom before validUntil was not issued: %w", err)
	}

	reversed := te.Issue(ctx, ValidityPeriod(credential, now.Add(skew), now.Add(-skew)))
	if !reversed.OK() {
		if err := CheckRejected(reversed); err != nil {
			return fmt.Errorf("issuing a credential with validFrom after validUntil: %w", err)
		}
		return nil
	}
	issued, ok := reversed.Document()
	if !ok {
		return fmt.Errorf("issuer accepted validFrom after validUntil and returned a non-document: %v", reversed.Data)
	}
	if !te.Has(registry.RoleVerifiers) {
		return errors.New("issuer accepted validFrom after validUntil and no verifier is available to reject it")
	}
	verified := te.Verify(ctx, issued)
	if verified.OK() {
		return errors.New("credential with validFrom after validUntil was accepted at both issuance and verification")
	}
	if err := CheckRejected(verified); err != nil {
		return fmt.Errorf("verifying a credential with validFrom after validUntil: %w", err)
	}
	return nil
}

// TemporalOrder asserts CheckTemporalOrder.
func TemporalOrder(
	ctx context.Context,
	t assert.TestingT,
	te *endpoints.TestEndpoints,
	credential document.Document,
	skew time.Duration,
) bool {
	return report(t, CheckTemporalOrder(ctx, te, credential, skew), "validFrom must not be after validUntil")
}

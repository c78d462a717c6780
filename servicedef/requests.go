// Package servicedef defines the JSON request and response bodies exchanged with the
// implementations under test.
package servicedef

import (
	"encoding/json"

	"github.com/vc-test-suites/vc-conformance-tests/document"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// CheckProof is the verification check that asks a verifier to validate proofs.
const CheckProof = "proof"

// IssueRequest is the body of POST /credentials/issue.
type IssueRequest struct {
	Credential document.Document `json:"credential"`
	Options    interface{}       `json:"options,omitempty"`
}

// VerifyCredentialRequest is the body of POST /credentials/verify.
type VerifyCredentialRequest struct {
	VerifiableCredential document.Document `json:"verifiableCredential"`
	Options              VerifyOptions     `json:"options"`
}

// VerifyPresentationRequest is the body of POST /presentations/verify.
type VerifyPresentationRequest struct {
	VerifiablePresentation document.Document `json:"verifiablePresentation"`
	Options                VerifyOptions     `json:"options"`
}

// VerifyOptions are the options of a verification request. Checks is always present, even if
// empty.
type VerifyOptions struct {
	Checks    []string
	Challenge ldvalue.OptionalString
	Domain    ldvalue.OptionalString
}

func (o VerifyOptions) MarshalJSON() ([]byte, error) {
	checks := o.Checks
	if checks == nil {
		checks = []string{}
	}
	m := map[string]interface{}{"checks": checks}
	addOptionalString(m, "challenge", o.Challenge)
	addOptionalString(m, "domain", o.Domain)
	return json.Marshal(m)
}

// ProvePresentationRequest is the body of POST /presentations/prove.
type ProvePresentationRequest struct {
	Presentation document.Document `json:"presentation"`
	Options      ProveOptions      `json:"options"`
}

// ProveOptions are the options of a presentation proving request.
type ProveOptions struct {
	Challenge ldvalue.OptionalString
	Domain    ldvalue.OptionalString

	// Enveloped asks for an EnvelopedVerifiablePresentation instead of an embedded proof.
	Enveloped bool
}

func (o ProveOptions) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{}
	addOptionalString(m, "challenge", o.Challenge)
	addOptionalString(m, "domain", o.Domain)
	if o.Enveloped {
		m["enveloped"] = true
	}
	return json.Marshal(m)
}

func (o *ProveOptions) UnmarshalJSON(data []byte) error {
	var raw struct {
		Challenge *string `json:"challenge"`
		Domain    *string `json:"domain"`
		Enveloped bool    `json:"enveloped"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = ProveOptions{
		Challenge: ldvalue.NewOptionalStringFromPointer(raw.Challenge),
		Domain:    ldvalue.NewOptionalStringFromPointer(raw.Domain),
		Enveloped: raw.Enveloped,
	}
	return nil
}

// DefaultVerifyCredentialOptions are the options sent with every credential verification.
func DefaultVerifyCredentialOptions() VerifyOptions {
	return VerifyOptions{Checks: []string{CheckProof}}
}

// DefaultVerifyPresentationOptions are the options sent with a presentation verification when
// the caller does not supply any.
func DefaultVerifyPresentationOptions() VerifyOptions {
	return VerifyOptions{Checks: []string{}}
}

func (o *VerifyOptions) UnmarshalJSON(data []byte) error {
	var raw struct {
		Checks    []string `json:"checks"`
		Challenge *string  `json:"challenge"`
		Domain    *string  `json:"domain"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = VerifyOptions{
		Checks:    raw.Checks,
		Challenge: ldvalue.NewOptionalStringFromPointer(raw.Challenge),
		Domain:    ldvalue.NewOptionalStringFromPointer(raw.Domain),
	}
	return nil
}

func addOptionalString(m map[string]interface{}, key string, value ldvalue.OptionalString) {
	if value.IsDefined() {
		m[key] = value.StringValue()
	}
}

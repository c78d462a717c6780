// Package assertions contains the conformance checks applied to implementation responses.
//
// Each Check function is a pure predicate that returns nil if the value conforms and otherwise
// an error naming the rule and the mismatch. The corresponding assert-style functions report
// the same failures through a testify TestingT.
package assertions

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/vc-test-suites/vc-conformance-tests/document"
	"github.com/vc-test-suites/vc-conformance-tests/envelope"
	"github.com/vc-test-suites/vc-conformance-tests/transport"

	"github.com/PaesslerAG/jsonpath"
)

// Properties every plain credential must have once issued.
var requiredCredentialProperties = []string{
	document.PropertyContext,
	document.PropertyType,
	document.PropertyIssuer,
	document.PropertyCredentialSubject,
	document.PropertyProof,
}

// Properties of the outer document of an enveloped credential.
var requiredEnvelopeProperties = []string{
	document.PropertyContext,
	document.PropertyType,
	document.PropertyID,
}

// Properties of the credential inside an envelope. The proof is the envelope itself.
var requiredEnvelopedCredentialProperties = requiredCredentialProperties[:4]

var xsdDateTime = regexp.MustCompile(
	`^-?\d{4,}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])T(([01]\d|2[0-3]):[0-5]\d:[0-5]\d(\.\d+)?|24:00:00(\.0+)?)` +
		`(Z|[+-]((0\d|1[0-3]):[0-5]\d|14:00))?$`)

// CheckInvalidInput verifies that a call was rejected as invalid input: it failed, with status
// 400 or 422. A 401 means the request was never evaluated, so it does not count.
func CheckInvalidInput(r transport.Result) error {
	if r.OK() {
		return fmt.Errorf("expected HTTP 400 or 422, but the request succeeded with: %v", r.Data)
	}
	status, ok := r.Status()
	if !ok {
		return fmt.Errorf("expected HTTP 400 or 422, but got no HTTP status: %w", r.Err)
	}
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return nil
	case http.StatusUnauthorized:
		return fmt.Errorf("expected HTTP 400 or 422, got 401 (authorization failure, not invalid input): %w", r.Err)
	default:
		return fmt.Errorf("expected HTTP 400 or 422, got %d: %w", status, r.Err)
	}
}

// CheckRejected verifies that the implementation refused a call, either with an error status or
// with verification errors in its response. A call that never got an answer, such as a
// connection failure or a missing endpoint, is not a rejection.
func CheckRejected(r transport.Result) error {
	if r.OK() {
		return fmt.Errorf("expected the request to be rejected, but it succeeded with: %v", r.Data)
	}
	if !r.Rejected() {
		return fmt.Errorf("expected the request to be rejected, but no rejection was observed: %w", r.Err)
	}
	return nil
}

// CheckSucceeded verifies that a call succeeded and returned a body.
func CheckSucceeded(r transport.Result) error {
	if !r.OK() {
		return fmt.Errorf("expected the request to succeed: %w", r.Err)
	}
	if r.Data == nil {
		return errors.New("expected a response body, got none")
	}
	return nil
}

// ExtractIfEnveloped returns the credential or presentation inside an enveloped document, or
// the document itself if it is not enveloped.
func ExtractIfEnveloped(d document.Document) (document.Document, error) {
	return envelope.ExtractIfEnveloped(d)
}

// CheckSecured verifies that a document is secured in exactly one way: either it has an
// embedded proof (an object, or a non-empty array of objects) or it is an enveloped document
// whose id is a data: URL.
func CheckSecured(d document.Document) error {
	hasProof := d.Has(document.PropertyProof)
	if hasProof {
		if err := checkProofShape(d[document.PropertyProof]); err != nil {
			return err
		}
	}
	enveloped := envelope.IsEnveloped(d)
	if enveloped {
		id, _ := d.ID()
		if _, _, err := envelope.ParseDataURL(id); err != nil {
			return fmt.Errorf("enveloped document must have a data: URL id: %w", err)
		}
	}
	switch {
	case hasProof && enveloped:
		return errors.New("document must not have both an embedded proof and an enveloping type")
	case !hasProof && !enveloped:
		return fmt.Errorf("document must have a proof or be enveloped, got type %v", d.Types())
	}
	return nil
}

func checkProofShape(value interface{}) error {
	switch p := value.(type) {
	case nil:
		return errors.New("proof must be an object or a non-empty array of objects, got null")
	case []interface{}:
		if len(p) == 0 {
			return errors.New("proof must be an object or a non-empty array of objects, got an empty array")
		}
		for i, item := range p {
			if _, ok := document.FromValue(item); !ok {
				return fmt.Errorf("proof must be an object or an array of objects, but entry %d is %T", i, item)
			}
		}
		return nil
	default:
		if _, ok := document.FromValue(p); !ok {
			return fmt.Errorf("proof must be an object or an array of objects, got %T", p)
		}
		return nil
	}
}

// CheckRequiredProperties verifies the properties an issued credential must have. For an
// enveloped credential, the envelope and the credential inside it are checked separately.
func CheckRequiredProperties(d document.Document) error {
	if !envelope.IsEnveloped(d) {
		return requireProperties(d, "credential", requiredCredentialProperties)
	}
	if err := requireProperties(d, "envelope", requiredEnvelopeProperties); err != nil {
		return err
	}
	inner, err := envelope.ExtractIfEnveloped(d)
	if err != nil {
		return fmt.Errorf("cannot decode enveloped credential: %w", err)
	}
	return requireProperties(inner, "enveloped credential", requiredEnvelopedCredentialProperties)
}

// CheckPresentationProperties verifies that a document is a presentation.
func CheckPresentationProperties(d document.Document) error {
	if err := requireProperties(d, "presentation", []string{document.PropertyContext, document.PropertyType}); err != nil {
		return err
	}
	if !d.HasType(document.TypePresentation) {
		return fmt.Errorf("presentation type must include %s, got %v", document.TypePresentation, d.Types())
	}
	return nil
}

func requireProperties(d document.Document, what string, properties []string) error {
	var missing []string
	for _, p := range properties {
		if !d.Has(p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is missing required properties %v", what, missing)
	}
	return nil
}

// CheckDateTime verifies that a value is a string in XML Schema dateTime form, as required for
// validFrom and validUntil.
func CheckDateTime(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("dateTime must be a string, got %T", value)
	}
	if !xsdDateTime.MatchString(s) {
		return fmt.Errorf("%q is not a valid dateTime", s)
	}
	return nil
}

// CheckPath verifies that the document has a value at a JSONPath expression, such as
// "$.credentialSubject.id".
func CheckPath(d document.Document, path string) error {
	v, err := jsonpath.Get(path, map[string]interface{}(d))
	if err != nil {
		return fmt.Errorf("no value at %s: %w", path, err)
	}
	if list, ok := v.([]interface{}); ok && len(list) == 0 {
		return fmt.Errorf("no value at %s", path)
	}
	if v == nil {
		return fmt.Errorf("no value at %s", path)
	}
	return nil
}

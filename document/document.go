// Package document models credentials and presentations as semi-structured JSON objects.
package document

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/slices"
)

// BaseContextURL is the context URL that must be the first entry of every document's @context.
const BaseContextURL = "https://www.w3.org/ns/credentials/v2"

// Profile-defining and enveloping type terms.
const (
	TypeCredential            = "VerifiableCredential"
	TypePresentation          = "VerifiablePresentation"
	TypeEnvelopedCredential   = "EnvelopedVerifiableCredential"
	TypeEnvelopedPresentation = "EnvelopedVerifiablePresentation"
)

// Property names with normative meaning.
const (
	PropertyContext              = "@context"
	PropertyType                 = "type"
	PropertyID                   = "id"
	PropertyIssuer               = "issuer"
	PropertyCredentialSubject    = "credentialSubject"
	PropertyProof                = "proof"
	PropertyHolder               = "holder"
	PropertyVerifiableCredential = "verifiableCredential"
	PropertyValidFrom            = "validFrom"
	PropertyValidUntil           = "validUntil"
)

// Document is a credential, presentation, or envelope. It is never typed more strongly than a
// JSON object, since conformance tests deliberately build documents that are malformed.
type Document map[string]interface{}

// Parse decodes a JSON object.
func Parse(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("malformed document: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("malformed document: not a JSON object")
	}
	return d, nil
}

// FromValue converts a decoded JSON value into a Document, if it is an object.
func FromValue(v interface{}) (Document, bool) {
	switch m := v.(type) {
	case Document:
		return m, true
	case map[string]interface{}:
		return Document(m), true
	default:
		return nil, false
	}
}

// JSON encodes the document. Map keys are emitted in sorted order.
func (d Document) JSON() []byte {
	data, _ := json.Marshal(d)
	return data
}

func (d Document) String() string {
	return string(d.JSON())
}

// Has returns true if the property is present, even if its value is null.
func (d Document) Has(property string) bool {
	_, ok := d[property]
	return ok
}

// Types returns the document's type terms. A scalar string type yields a single-element slice;
// anything that is not a string or an array of strings yields nil.
func (d Document) Types() []string {
	return stringOrStrings(d[PropertyType])
}

// HasType returns true if the type property equals or contains the given term.
func (d Document) HasType(term string) bool {
	return slices.Contains(d.Types(), term)
}

// Contexts returns the @context entries in order. A scalar context yields a single entry.
func (d Document) Contexts() []interface{} {
	switch c := d[PropertyContext].(type) {
	case []interface{}:
		return c
	case nil:
		return nil
	default:
		return []interface{}{c}
	}
}

// FirstContext returns the first @context entry if it is a string.
func (d Document) FirstContext() (string, bool) {
	contexts := d.Contexts()
	if len(contexts) == 0 {
		return "", false
	}
	s, ok := contexts[0].(string)
	return s, ok
}

// ID returns the document's id, if it is a string.
func (d Document) ID() (string, bool) {
	s, ok := d[PropertyID].(string)
	return s, ok
}

// IssuerID returns the issuer identifier, whether the issuer is a URL string or an object
// with an id.
func (d Document) IssuerID() (string, bool) {
	if iss, ok := d[PropertyIssuer].(string); ok {
		return iss, true
	}
	if iss, ok := FromValue(d[PropertyIssuer]); ok {
		s, ok := iss[PropertyID].(string)
		return s, ok
	}
	return "", false
}

// SetIssuerID replaces the issuer identifier, preserving an object-valued issuer.
func (d Document) SetIssuerID(id string) {
	if iss, ok := FromValue(d[PropertyIssuer]); ok {
		iss[PropertyID] = id
		return
	}
	d[PropertyIssuer] = id
}

func stringOrStrings(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []interface{}:
		ret := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			ret = append(ret, s)
		}
		return ret
	}
	return nil
}

package assertions

import (
	"github.com/vc-test-suites/vc-conformance-tests/document"
	"github.com/vc-test-suites/vc-conformance-tests/transport"

	"github.com/stretchr/testify/assert"
)

func report(t assert.TestingT, err error, reason string) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	if err == nil {
		return true
	}
	return assert.Fail(t, err.Error(), reason)
}

// RejectsInvalidInput asserts that a call was rejected with status 400 or 422.
func RejectsInvalidInput(t assert.TestingT, r transport.Result, reason string) bool {
	return report(t, CheckInvalidInput(r), reason)
}

// Rejects asserts that the implementation refused a call.
func Rejects(t assert.TestingT, r transport.Result, reason string) bool {
	return report(t, CheckRejected(r), reason)
}

// Succeeds asserts that a call succeeded and returned a body.
func Succeeds(t assert.TestingT, r transport.Result, reason string) bool {
	return report(t, CheckSucceeded(r), reason)
}

// IsSecured asserts that a document has a proof or is enveloped, but not both.
func IsSecured(t assert.TestingT, d document.Document, reason string) bool {
	return report(t, CheckSecured(d), reason)
}

// HasRequiredProperties asserts that an issued credential has the required properties.
func HasRequiredProperties(t assert.TestingT, d document.Document, reason string) bool {
	return report(t, CheckRequiredProperties(d), reason)
}

// IsPresentation asserts that a document is a presentation.
func IsPresentation(t assert.TestingT, d document.Document, reason string) bool {
	return report(t, CheckPresentationProperties(d), reason)
}

// HasStructure asserts that a document matches the schema for its kind.
func HasStructure(t assert.TestingT, d document.Document, kind Kind, reason string) bool {
	return report(t, CheckStructure(d, kind), reason)
}

// IsDateTime asserts that a value is an XML Schema dateTime.
func IsDateTime(t assert.TestingT, value interface{}, reason string) bool {
	return report(t, CheckDateTime(value), reason)
}

// HasPath asserts that a document has a value at a JSONPath expression.
func HasPath(t assert.TestingT, d document.Document, path string, reason string) bool {
	return report(t, CheckPath(d, path), reason)
}

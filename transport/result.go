// Package transport delivers JSON request bodies to the endpoints of implementations under test
// and normalizes every outcome into a Result.
package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vc-test-suites/vc-conformance-tests/document"
)

// ErrRedirectNotSupported is the cause of a failure when an endpoint answers with a 3xx status.
// Redirects are never followed.
var ErrRedirectNotSupported = errors.New("redirect not supported")

// ErrVerificationFailed is the cause of a failure built from the "errors" list of an otherwise
// successful verification response.
var ErrVerificationFailed = errors.New("verification failed")

// Error describes a failed call: a network error, a non-2xx status, or a response body that
// could not be parsed.
type Error struct {
	// Status is the HTTP status code, or zero if no response was received.
	Status int

	// Errors is the "errors" member of the response body, if it had one.
	Errors []interface{}

	// Body is the decoded response body (or its raw text if it was not JSON) when the body
	// did not have an "errors" member.
	Body interface{}

	Message string
	Cause   error
}

func (e *Error) Error() string {
	var parts []string
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.Status))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	if len(e.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("errors: %v", e.Errors))
	} else if e.Body != nil {
		parts = append(parts, fmt.Sprintf("body: %v", e.Body))
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusOf returns the HTTP status carried by an error, if it is or wraps an *Error with a
// status.
func StatusOf(err error) (int, bool) {
	var te *Error
	if errors.As(err, &te) && te.Status != 0 {
		return te.Status, true
	}
	return 0, false
}

// Result is the outcome of a call. Exactly one of Data and Err is meaningful: Err is nil on
// success, and Data is only set on success.
type Result struct {
	Data interface{}
	Err  error
}

// Success returns a successful Result.
func Success(data interface{}) Result {
	return Result{Data: data}
}

// Failure returns a failed Result.
func Failure(err error) Result {
	return Result{Err: err}
}

// OK returns true if the call succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Rejected returns true if the call reached the implementation and it refused the request: it
// answered with a 4xx or 5xx status, or reported verification errors in its response.
func (r Result) Rejected() bool {
	if r.Err == nil {
		return false
	}
	if status, ok := r.Status(); ok && status >= http.StatusBadRequest {
		return true
	}
	return errors.Is(r.Err, ErrVerificationFailed)
}

// Status returns the HTTP status of a failed call, if there is one.
func (r Result) Status() (int, bool) {
	return StatusOf(r.Err)
}

// Document returns the result data as a Document, if the call succeeded and returned an object.
func (r Result) Document() (document.Document, bool) {
	if r.Err != nil {
		return nil, false
	}
	return document.FromValue(r.Data)
}

func (r Result) String() string {
	if r.Err != nil {
		return "failure: " + r.Err.Error()
	}
	if d, ok := r.Document(); ok {
		return "success: " + d.String()
	}
	return fmt.Sprintf("success: %v", r.Data)
}

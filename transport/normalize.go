package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// NormalizeResponse turns an HTTP status and raw body into a Result.
func NormalizeResponse(status int, body []byte) Result {
	switch {
	case status >= http.StatusBadRequest:
		e := &Error{Status: status, Message: http.StatusText(status)}
		var decoded interface{}
		if len(body) == 0 {
			return Failure(e)
		}
		if err := json.Unmarshal(body, &decoded); err != nil {
			e.Body = string(body)
			return Failure(e)
		}
		if obj, ok := decoded.(map[string]interface{}); ok {
			if errs, ok := obj["errors"]; ok {
				e.Errors = asList(errs)
				return Failure(e)
			}
		}
		e.Body = decoded
		return Failure(e)
	case status >= http.StatusMultipleChoices:
		return Failure(&Error{Status: status, Cause: ErrRedirectNotSupported})
	}

	if len(body) == 0 {
		return Success(nil)
	}
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Failure(&Error{Status: status, Message: "malformed JSON response", Cause: err})
	}
	return Success(decoded)
}

// FailureFromEmbeddedErrors converts a successful verification result whose body carries a
// non-empty "errors" list into a failure built from the first entry, caused by
// ErrVerificationFailed. Other results are returned unchanged.
func FailureFromEmbeddedErrors(r Result) Result {
	if r.Err != nil {
		return r
	}
	obj, ok := r.Data.(map[string]interface{})
	if !ok {
		return r
	}
	errs := asList(obj["errors"])
	if len(errs) == 0 {
		return r
	}
	return Failure(&Error{
		Message: fmt.Sprintf("verification reported %d error(s): %s", len(errs), describeEmbeddedError(errs[0])),
		Errors:  errs,
		Cause:   ErrVerificationFailed,
	})
}

func describeEmbeddedError(e interface{}) string {
	if m, ok := e.(map[string]interface{}); ok {
		for _, key := range []string{"message", "title", "name"} {
			if s, ok := m[key].(string); ok && s != "" {
				return s
			}
		}
	}
	data, _ := json.Marshal(e)
	return string(data)
}

func asList(v interface{}) []interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return t
	default:
		return []interface{}{t}
	}
}

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/vc-test-suites/vc-conformance-tests/framework"
	"github.com/vc-test-suites/vc-conformance-tests/registry"
)

const jsonContentType = "application/json"

// Poster delivers a JSON body to an endpoint.
type Poster interface {
	Post(ctx context.Context, endpoint registry.Endpoint, body interface{}) Result
}

// Adapter sends requests over plain HTTP itself, and delegates https: endpoints to a secure
// client that knows how to authenticate.
type Adapter struct {
	local  *http.Client
	secure Poster
	logger framework.Logger
}

// AdapterOption customizes an Adapter.
type AdapterOption func(*Adapter)

// WithSecureClient replaces the client used for https: endpoints.
func WithSecureClient(p Poster) AdapterOption {
	return func(a *Adapter) { a.secure = p }
}

// WithLocalClient replaces the HTTP client used for plain http: endpoints. Its redirect policy
// is overridden so that redirects are never followed.
func WithLocalClient(c *http.Client) AdapterOption {
	return func(a *Adapter) {
		copied := *c
		copied.CheckRedirect = doNotFollowRedirects
		a.local = &copied
	}
}

// WithLogger sets the logger for request and response tracing.
func WithLogger(logger framework.Logger) AdapterOption {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAdapter creates an Adapter. Unless overridden by options, the secure client is an
// HTTPSClient built from the same configuration.
func NewAdapter(config registry.Config, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		local: &http.Client{
			Timeout:       config.RequestTimeout,
			CheckRedirect: doNotFollowRedirects,
		},
		logger: framework.NullLogger(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.secure == nil {
		a.secure = NewHTTPSClient(config, a.logger)
	}
	return a
}

// WithRequestLogger returns a copy of the adapter that traces requests to a different logger,
// such as the debug logger of a single test.
func (a *Adapter) WithRequestLogger(logger framework.Logger) *Adapter {
	copied := *a
	if logger != nil {
		copied.logger = logger
		if h, ok := a.secure.(*HTTPSClient); ok {
			copied.secure = h.withLogger(logger)
		}
	}
	return &copied
}

// Post sends the body to the endpoint and normalizes the response.
func (a *Adapter) Post(ctx context.Context, endpoint registry.Endpoint, body interface{}) Result {
	u, err := url.Parse(endpoint.URL)
	if err != nil {
		return Failure(&Error{Message: "invalid endpoint URL", Cause: err})
	}
	if strings.EqualFold(u.Scheme, "https") {
		return a.secure.Post(ctx, endpoint, body)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return Failure(&Error{Message: "cannot encode request body", Cause: err})
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(data))
	if err != nil {
		return Failure(&Error{Message: "cannot build request", Cause: err})
	}
	req.Header.Set("Content-Type", jsonContentType)
	req.Header.Set("Accept", jsonContentType)
	return doRequest(a.local, req, data, a.logger)
}

func doRequest(client *http.Client, req *http.Request, requestBody []byte, logger framework.Logger) Result {
	logger.Printf("POST %s: %s", req.URL, string(requestBody))
	resp, err := client.Do(req)
	if err != nil {
		logger.Printf("request to %s failed: %s", req.URL, err)
		return Failure(&Error{Message: fmt.Sprintf("request to %s failed", req.URL), Cause: err})
	}
	defer func() { _ = resp.Body.Close() }()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failure(&Error{Status: resp.StatusCode, Message: "cannot read response body", Cause: err})
	}
	logger.Printf("response %d from %s: %s", resp.StatusCode, req.URL, string(respBody))
	return NormalizeResponse(resp.StatusCode, respBody)
}

func doNotFollowRedirects(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

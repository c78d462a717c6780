package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/vc-test-suites/vc-conformance-tests/framework"
	"github.com/vc-test-suites/vc-conformance-tests/registry"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Authentication types accepted in AuthSettings.Type.
const (
	AuthBearer = "bearer"
	AuthMTLS   = "mtls"
)

// HTTPSClient posts to authenticated HTTPS endpoints. Depending on the endpoint settings it adds
// a bearer token, presents a client certificate, or signs the request as a capability
// invocation.
type HTTPSClient struct {
	config  registry.Config
	base    http.RoundTripper
	logger  framework.Logger
	clients map[string]*http.Client
	lock    *sync.Mutex
}

// NewHTTPSClient creates an HTTPSClient.
func NewHTTPSClient(config registry.Config, logger framework.Logger) *HTTPSClient {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &HTTPSClient{
		config:  config.WithDefaults(),
		base:    http.DefaultTransport,
		logger:  logger,
		clients: make(map[string]*http.Client),
		lock:    &sync.Mutex{},
	}
}

func (h *HTTPSClient) withLogger(logger framework.Logger) *HTTPSClient {
	copied := *h
	copied.logger = logger
	return &copied
}

// Post implements Poster.
func (h *HTTPSClient) Post(ctx context.Context, endpoint registry.Endpoint, body interface{}) Result {
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

	client, err := h.clientFor(endpoint)
	if err != nil {
		return Failure(&Error{Message: "cannot configure TLS client", Cause: err})
	}
	if err := h.authenticate(req, data, endpoint); err != nil {
		return Failure(&Error{Message: "cannot authenticate request", Cause: err})
	}
	return doRequest(client, req, data, h.logger)
}

func (h *HTTPSClient) authenticate(req *http.Request, body []byte, endpoint registry.Endpoint) error {
	if endpoint.Zcap != nil {
		seed, ok := h.config.CapabilitySeeds[endpoint.Zcap.KeySeedEnv]
		if !ok || seed == "" {
			return fmt.Errorf("capability key seed %s is not set", endpoint.Zcap.KeySeedEnv)
		}
		invoker, err := NewZcapInvoker(seed)
		if err != nil {
			return err
		}
		return invoker.Sign(req, body, endpoint.Zcap.Capability)
	}
	if endpoint.Auth != nil && strings.EqualFold(endpoint.Auth.Type, AuthBearer) {
		token, ok := h.config.BearerTokens[endpoint.Auth.TokenEnv]
		if !ok || token == "" {
			return fmt.Errorf("bearer token %s is not set", endpoint.Auth.TokenEnv)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// clientFor returns a client for the endpoint; endpoints that use mutual TLS get a client with
// their certificate, built once per certificate.
func (h *HTTPSClient) clientFor(endpoint registry.Endpoint) (*http.Client, error) {
	key := ""
	var tlsConfig *tls.Config
	if endpoint.Auth != nil && strings.EqualFold(endpoint.Auth.Type, AuthMTLS) {
		key = endpoint.Auth.CertFile + "|" + endpoint.Auth.KeyFile
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	if c, ok := h.clients[key]; ok {
		return c, nil
	}
	base := h.base
	if key != "" {
		cert, err := tls.LoadX509KeyPair(endpoint.Auth.CertFile, endpoint.Auth.KeyFile)
		if err != nil {
			return nil, err
		}
		tlsConfig = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
		if t, ok := h.base.(*http.Transport); ok {
			t = t.Clone()
			t.TLSClientConfig = tlsConfig
			base = t
		} else {
			base = &http.Transport{TLSClientConfig: tlsConfig}
		}
	}
	c := &http.Client{
		Transport:     otelhttp.NewTransport(base),
		Timeout:       h.config.RequestTimeout,
		CheckRedirect: doNotFollowRedirects,
	}
	h.clients[key] = c
	return c, nil
}

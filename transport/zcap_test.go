package transport

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/vc-test-suites/vc-conformance-tests/keys"
	"github.com/vc-test-suites/vc-conformance-tests/registry"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/multiformats/go-multibase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var authParamPattern = regexp.MustCompile(`(\w+)="([^"]*)"`)

func testSeed(t *testing.T) string {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	s, err := multibase.Encode(multibase.Base58BTC, seed)
	require.NoError(t, err)
	return s
}

func parseAuthorization(t *testing.T, header string) map[string]string {
	require.Regexp(t, `^Signature `, header)
	params := make(map[string]string)
	for _, m := range authParamPattern.FindAllStringSubmatch(header, -1) {
		params[m[1]] = m[2]
	}
	return params
}

func TestZcapSignatureVerifies(t *testing.T) {
	seed := testSeed(t)
	invoker, err := NewZcapInvoker(seed)
	require.NoError(t, err)
	fixed := time.Unix(1700000000, 0)
	invoker.now = func() time.Time { return fixed }

	body := []byte(`{"verifiableCredential":{}}`)
	req, err := http.NewRequest("POST", "https://verifier.example/credentials/verify", nil)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	require.NoError(t, invoker.Sign(req, body, ""))

	assert.Equal(t,
		`zcap id="urn:zcap:root:https%3A%2F%2Fverifier.example%2Fcredentials%2Fverify",action="write"`,
		req.Header.Get("Capability-Invocation"))
	assert.Regexp(t, `^mh=u`, req.Header.Get("Digest"))

	params := parseAuthorization(t, req.Header.Get("Authorization"))
	assert.Equal(t, invoker.KeyID(), params["keyId"])
	assert.Equal(t, strconv.FormatInt(fixed.Unix(), 10), params["created"])
	assert.Equal(t, strconv.FormatInt(fixed.Add(signatureLifetime).Unix(), 10), params["expires"])

	sig, err := base64.StdEncoding.DecodeString(params["signature"])
	require.NoError(t, err)
	pub, err := keys.PublicKeyFromDIDKey(params["keyId"])
	require.NoError(t, err)
	input := signingInput(req, params["keyId"], fixed.Unix(), fixed.Add(signatureLifetime).Unix())
	assert.True(t, ed25519.Verify(pub, []byte(input), sig))
}

func TestZcapExplicitCapability(t *testing.T) {
	invoker, err := NewZcapInvoker(testSeed(t))
	require.NoError(t, err)
	req, err := http.NewRequest("POST", "https://verifier.example/credentials/verify", nil)
	require.NoError(t, err)

	require.NoError(t, invoker.Sign(req, nil, "urn:zcap:delegated:abc"))

	assert.Equal(t, `zcap id="urn:zcap:delegated:abc",action="write"`, req.Header.Get("Capability-Invocation"))
}

func TestZcapInvalidSeed(t *testing.T) {
	_, err := NewZcapInvoker("!notmultibase")
	assert.ErrorIs(t, err, keys.ErrInvalidSeed)
}

func TestBodyDigestIsSHA256Multihash(t *testing.T) {
	digest, err := bodyDigest([]byte("abc"))
	require.NoError(t, err)
	_, data, err := multibase.Decode(digest)
	require.NoError(t, err)
	require.Len(t, data, 34)
	assert.Equal(t, []byte{0x12, 0x20}, data[:2])
	sum := sha256.Sum256([]byte("abc"))
	assert.Equal(t, sum[:], data[2:])
}

func TestHTTPSClientAddsBearerToken(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(204))
	server := httptest.NewTLSServer(handler)
	defer server.Close()

	config := registry.Config{BearerTokens: map[string]string{"ACME_TOKEN": "xyz"}}
	client := NewHTTPSClient(config, nil)
	client.base = server.Client().Transport

	endpoint := registry.Endpoint{URL: server.URL, Auth: &registry.AuthSettings{Type: "bearer", TokenEnv: "ACME_TOKEN"}}
	result := client.Post(context.Background(), endpoint, map[string]interface{}{})

	require.True(t, result.OK(), "unexpected error: %s", result.Err)
	r := <-requestsCh
	assert.Equal(t, "Bearer xyz", r.Request.Header.Get("Authorization"))
}

func TestHTTPSClientSignsCapabilityInvocation(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(204))
	server := httptest.NewTLSServer(handler)
	defer server.Close()

	config := registry.Config{CapabilitySeeds: map[string]string{"ACME_ZCAP": testSeed(t)}}
	client := NewHTTPSClient(config, nil)
	client.base = server.Client().Transport

	endpoint := registry.Endpoint{URL: server.URL, Zcap: &registry.ZcapSettings{KeySeedEnv: "ACME_ZCAP"}}
	result := client.Post(context.Background(), endpoint, map[string]interface{}{})

	require.True(t, result.OK(), "unexpected error: %s", result.Err)
	r := <-requestsCh
	assert.NotEmpty(t, r.Request.Header.Get("Capability-Invocation"))
	assert.NotEmpty(t, r.Request.Header.Get("Digest"))
	assert.Regexp(t, `^Signature keyId="did:key:z6Mk`, r.Request.Header.Get("Authorization"))
}

func TestHTTPSClientMissingSecretIsFailure(t *testing.T) {
	client := NewHTTPSClient(registry.Config{}, nil)
	endpoint := registry.Endpoint{URL: "https://vc.example", Zcap: &registry.ZcapSettings{KeySeedEnv: "UNSET"}}

	result := client.Post(context.Background(), endpoint, map[string]interface{}{})

	assert.False(t, result.OK())
}

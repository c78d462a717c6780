package endpoints

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/vc-test-suites/vc-conformance-tests/document"
	"github.com/vc-test-suites/vc-conformance-tests/keys"
	"github.com/vc-test-suites/vc-conformance-tests/prover"
	"github.com/vc-test-suites/vc-conformance-tests/registry"
	"github.com/vc-test-suites/vc-conformance-tests/servicedef"
	"github.com/vc-test-suites/vc-conformance-tests/transport"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const tag = "vc2.0"

func credential() document.Document {
	return document.Document{
		"@context":          []interface{}{document.BaseContextURL},
		"type":              []interface{}{"VerifiableCredential"},
		"issuer":            "did:example:fixture",
		"credentialSubject": map[string]interface{}{"id": "did:example:subject"},
	}
}

func implementationAt(url string) registry.Implementation {
	return registry.Implementation{
		Name: "Acme",
		Issuers: []registry.Endpoint{
			{ID: "did:example:other", URL: url + "/other", Tags: []string{"other"}},
			{
				ID:      "did:example:acme",
				URL:     url + "/credentials/issue",
				Tags:    []string{tag},
				Options: ldvalue.ObjectBuild().Set("type", ldvalue.String("Ed25519Signature2020")).Build(),
			},
		},
		Verifiers:   []registry.Endpoint{{URL: url + "/credentials/verify", Tags: []string{tag}}},
		VPVerifiers: []registry.Endpoint{{URL: url + "/presentations/verify", Tags: []string{tag}}},
	}
}

func decodeBody(t *testing.T, data []byte) map[string]interface{} {
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestNewResolvesByTag(t *testing.T) {
	te := New(implementationAt("http://localhost"), tag)

	e, ok := te.Endpoint(registry.RoleIssuers)
	require.True(t, ok)
	assert.Equal(t, "did:example:acme", e.ID)
	assert.True(t, te.Has(registry.RoleVerifiers))
	assert.False(t, te.Has(registry.RoleProvers))
}

func TestIssueReplacesIssuerAndSendsOptions(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithJSONResponse(credential(), nil))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		te := New(implementationAt(server.URL), tag)
		fixture := credential()

		result := te.Issue(context.Background(), fixture)

		require.True(t, result.OK(), "unexpected error: %s", result.Err)
		r := <-requestsCh
		assert.Equal(t, "/credentials/issue", r.Request.URL.Path)
		body := decodeBody(t, r.Body)
		sent := body["credential"].(map[string]interface{})
		assert.Equal(t, "did:example:acme", sent["issuer"])
		assert.Equal(t, map[string]interface{}{"type": "Ed25519Signature2020"}, body["options"])
		assert.Equal(t, "did:example:fixture", fixture["issuer"], "fixture must not be modified")
	})
}

func TestIssueReplacesIssuerObjectID(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithJSONResponse(credential(), nil))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		fixture := credential()
		fixture["issuer"] = map[string]interface{}{"id": "did:example:fixture", "name": "Issuer"}

		New(implementationAt(server.URL), tag).Issue(context.Background(), fixture)

		sent := decodeBody(t, (<-requestsCh).Body)["credential"].(map[string]interface{})
		assert.Equal(t, map[string]interface{}{"id": "did:example:acme", "name": "Issuer"}, sent["issuer"])
	})
}

func TestIssueAsIsKeepsIssuer(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(400))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		fixture := credential()
		fixture["issuer"] = "not a url"

		result := New(implementationAt(server.URL), tag).IssueAsIs(context.Background(), fixture)

		assert.False(t, result.OK())
		sent := decodeBody(t, (<-requestsCh).Body)["credential"].(map[string]interface{})
		assert.Equal(t, "not a url", sent["issuer"])
	})
}

func TestIssueWithoutIssuerDoesNotAddOne(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(422))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		fixture := credential()
		delete(fixture, "issuer")

		New(implementationAt(server.URL), tag).Issue(context.Background(), fixture)

		sent := decodeBody(t, (<-requestsCh).Body)["credential"].(map[string]interface{})
		assert.NotContains(t, sent, "issuer")
	})
}

func TestMissingEndpointIsTypedFailure(t *testing.T) {
	impl := registry.Implementation{Name: "Empty"}
	te := New(impl, tag)

	for _, result := range []transport.Result{
		te.Issue(context.Background(), credential()),
		te.Verify(context.Background(), credential()),
		te.VerifyVP(context.Background(), credential(), nil),
	} {
		var nee *NoEndpointError
		require.ErrorAs(t, result.Err, &nee)
		assert.Equal(t, "Empty", nee.Implementation)
		assert.Equal(t, tag, nee.Tag)
	}
}

func TestVerifySendsProofCheck(t *testing.T) {
	response := map[string]interface{}{"checks": []interface{}{"proof"}, "warnings": []interface{}{}, "errors": []interface{}{}}
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithJSONResponse(response, nil))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		result := New(implementationAt(server.URL), tag).Verify(context.Background(), credential())

		require.True(t, result.OK(), "unexpected error: %s", result.Err)
		body := decodeBody(t, (<-requestsCh).Body)
		assert.Equal(t, map[string]interface{}{"checks": []interface{}{"proof"}}, body["options"])
		assert.Contains(t, body, "verifiableCredential")
	})
}

func TestVerifyEmbeddedErrorsAreFailures(t *testing.T) {
	response := map[string]interface{}{"errors": []interface{}{map[string]interface{}{"message": "bad signature"}}}
	httphelpers.WithServer(httphelpers.HandlerWithJSONResponse(response, nil), func(server *httptest.Server) {
		result := New(implementationAt(server.URL), tag).Verify(context.Background(), credential())

		require.False(t, result.OK())
		assert.Contains(t, result.Err.Error(), "bad signature")
	})
}

func TestVerifyVPOptions(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		te := New(implementationAt(server.URL), tag)

		te.VerifyVP(context.Background(), credential(), nil)
		body := decodeBody(t, (<-requestsCh).Body)
		assert.Equal(t, map[string]interface{}{"checks": []interface{}{}}, body["options"])

		te.VerifyVP(context.Background(), credential(), &servicedef.VerifyOptions{
			Checks:    []string{"proof"},
			Challenge: ldvalue.NewOptionalString("abc"),
		})
		body = decodeBody(t, (<-requestsCh).Body)
		assert.Equal(t, map[string]interface{}{"checks": []interface{}{"proof"}, "challenge": "abc"}, body["options"])
	})
}

func TestProveVPIsLocal(t *testing.T) {
	key, err := keys.Generate()
	require.NoError(t, err)
	p := prover.New(key)
	te := New(registry.Implementation{Name: "NoProver"}, tag, WithProver(p))

	vp := document.Document{
		"@context": []interface{}{document.BaseContextURL},
		"type":     []interface{}{"VerifiablePresentation"},
	}
	result := te.ProveVP(vp, servicedef.ProveOptions{})

	require.True(t, result.OK(), "unexpected error: %s", result.Err)
	d, ok := result.Document()
	require.True(t, ok)
	assert.NoError(t, prover.VerifyProofs(d))
}

func TestProveVPWithoutProver(t *testing.T) {
	result := New(registry.Implementation{Name: "X"}, tag).ProveVP(document.Document{}, servicedef.ProveOptions{})
	assert.False(t, result.OK())
}

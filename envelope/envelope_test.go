package envelope

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/vc-test-suites/vc-conformance-tests/document"

	"github.com/go-jose/go-jose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func innerCredential() document.Document {
	return document.Document{
		"@context":          []interface{}{document.BaseContextURL},
		"type":              []interface{}{"VerifiableCredential"},
		"issuer":            "did:example:issuer",
		"credentialSubject": map[string]interface{}{"id": "did:example:subject"},
	}
}

func signCompact(t *testing.T, payload interface{}) string {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: priv}, nil)
	require.NoError(t, err)
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	obj, err := signer.Sign(data)
	require.NoError(t, err)
	compact, err := obj.CompactSerialize()
	require.NoError(t, err)
	return compact
}

func TestExtractEnvelopedCredentialWithArrayType(t *testing.T) {
	compact := signCompact(t, innerCredential())
	env := document.Document{
		"@context": []interface{}{document.BaseContextURL},
		"type":     []interface{}{document.TypeEnvelopedCredential},
		"id":       DataURL(MediaTypeVCJWT, compact),
	}

	inner, err := ExtractIfEnveloped(env)
	require.NoError(t, err)
	assert.Equal(t, innerCredential(), inner)
}

func TestExtractEnvelopedCredentialWithScalarTypeAndVCClaim(t *testing.T) {
	compact := signCompact(t, map[string]interface{}{"iss": "did:example:issuer", "vc": innerCredential()})
	env := Envelope(document.TypeEnvelopedCredential, MediaTypeVCJWT, compact)

	inner, err := ExtractIfEnveloped(env)
	require.NoError(t, err)
	assert.Equal(t, innerCredential(), inner)
}

func TestExtractEnvelopedPresentationUsesVPClaim(t *testing.T) {
	vp := document.Document{
		"@context": []interface{}{document.BaseContextURL},
		"type":     []interface{}{"VerifiablePresentation"},
	}
	compact := signCompact(t, map[string]interface{}{"vp": vp, "nonce": "abc"})
	env := Envelope(document.TypeEnvelopedPresentation, MediaTypeVPJWT, compact)

	inner, err := ExtractIfEnveloped(env)
	require.NoError(t, err)
	assert.Equal(t, vp, inner)
}

func TestExtractIsIdempotent(t *testing.T) {
	compact := signCompact(t, innerCredential())
	env := Envelope(document.TypeEnvelopedCredential, MediaTypeVCJWT, compact)

	once, err := ExtractIfEnveloped(env)
	require.NoError(t, err)
	twice, err := ExtractIfEnveloped(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)

	plain := innerCredential()
	same, err := ExtractIfEnveloped(plain)
	require.NoError(t, err)
	assert.Equal(t, plain, same)
}

func TestExtractUnsignedCompactWithPaddedStandardEncoding(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(innerCredential().JSON())
	env := Envelope(document.TypeEnvelopedCredential, MediaTypeVCJWT, "e30."+payload+".")

	inner, err := ExtractIfEnveloped(env)
	require.NoError(t, err)
	assert.Equal(t, innerCredential(), inner)
}

func TestExtractFailsForUnsupportedMediaType(t *testing.T) {
	env := Envelope(document.TypeEnvelopedCredential, "application/vc+cose", "d28443a10126a0")
	_, err := ExtractIfEnveloped(env)
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
}

func TestExtractFailsForNonDataURL(t *testing.T) {
	env := document.Document{"type": document.TypeEnvelopedCredential, "id": "urn:uuid:1234"}
	_, err := ExtractIfEnveloped(env)
	assert.ErrorIs(t, err, ErrNotDataURL)

	delete(env, "id")
	_, err = ExtractIfEnveloped(env)
	assert.ErrorIs(t, err, ErrNotDataURL)
}

func TestExtractFailsForMalformedPayload(t *testing.T) {
	env := Envelope(document.TypeEnvelopedCredential, MediaTypeVCJWT, "onlyonesegment")
	_, err := ExtractIfEnveloped(env)
	assert.ErrorIs(t, err, ErrMalformed)

	env = Envelope(document.TypeEnvelopedCredential, MediaTypeVCJWT, "e30.!!!.sig")
	_, err = ExtractIfEnveloped(env)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCustomDecoderCanBeRegistered(t *testing.T) {
	r := NewRegistry()
	r.Register("application/vc+cose", DecoderFunc(func(string) (document.Document, error) {
		return innerCredential(), nil
	}))
	inner, err := r.ExtractIfEnveloped(Envelope(document.TypeEnvelopedCredential, "application/vc+cose", "xyz"))
	require.NoError(t, err)
	assert.Equal(t, innerCredential(), inner)
}

func TestParseDataURLStripsParameters(t *testing.T) {
	mt, payload, err := ParseDataURL("data:application/vc+jwt;charset=utf-8,a.b.c")
	require.NoError(t, err)
	assert.Equal(t, MediaTypeVCJWT, mt)
	assert.Equal(t, "a.b.c", payload)
}

func disclosure(t *testing.T, parts ...interface{}) (string, string) {
	data, err := json.Marshal(parts)
	require.NoError(t, err)
	encoded := base64.RawURLEncoding.EncodeToString(data)
	sum := sha256.Sum256([]byte(encoded))
	return encoded, base64.RawURLEncoding.EncodeToString(sum[:])
}

func TestDecodeSDJWTRestoresDisclosures(t *testing.T) {
	subjectDisclosure, subjectDigest := disclosure(t, "salt1", "credentialSubject",
		map[string]interface{}{"id": "did:example:subject"})
	typeDisclosure, typeDigest := disclosure(t, "salt2", "ExampleCredential")

	payload := map[string]interface{}{
		"@context": []interface{}{document.BaseContextURL},
		"type":     []interface{}{"VerifiableCredential", map[string]interface{}{"...": typeDigest}},
		"issuer":   "did:example:issuer",
		"_sd":      []interface{}{subjectDigest},
		"_sd_alg":  "sha-256",
	}
	compact := signCompact(t, payload) + "~" + subjectDisclosure + "~" + typeDisclosure + "~"
	env := Envelope(document.TypeEnvelopedCredential, MediaTypeVCSDJWT, compact)

	inner, err := ExtractIfEnveloped(env)
	require.NoError(t, err)
	assert.Equal(t, []string{"VerifiableCredential", "ExampleCredential"}, inner.Types())
	assert.Equal(t, map[string]interface{}{"id": "did:example:subject"}, inner["credentialSubject"])
	assert.NotContains(t, inner, "_sd")
	assert.NotContains(t, inner, "_sd_alg")
}

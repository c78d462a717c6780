package fixtures

import (
	"testing"
	"testing/fstest"

	"github.com/vc-test-suites/vc-conformance-tests/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorpusDocumentsParse(t *testing.T) {
	store := NewStore()
	names, err := store.Names()
	require.NoError(t, err)
	for _, name := range []string{
		CredentialBasic, CredentialIssuerObject, CredentialNonconforming, CredentialInvalidValidity,
		PresentationBasic, PresentationNonconforming, PresentationMissingType,
	} {
		assert.Contains(t, names, name)
		d, err := store.Load(name)
		require.NoError(t, err, name)
		first, ok := d.FirstContext()
		assert.True(t, ok, name)
		assert.Equal(t, document.BaseContextURL, first, name)
	}
}

func TestLoadReturnsIndependentCopies(t *testing.T) {
	store := NewStore()
	a, err := store.Load(CredentialBasic)
	require.NoError(t, err)
	delete(a, "@context")
	a["credentialSubject"].(map[string]interface{})["name"] = "changed"

	b, err := store.Load(CredentialBasic)
	require.NoError(t, err)
	assert.True(t, b.Has("@context"))
	assert.Equal(t, "Pat Example", b["credentialSubject"].(map[string]interface{})["name"])
}

func TestLoadUnknownFixture(t *testing.T) {
	_, err := NewStore().Load("credentials/nope.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadMalformedFixture(t *testing.T) {
	store := NewStoreFromFS(fstest.MapFS{"bad.json": {Data: []byte("{")}})
	_, err := store.Load("bad.json")
	assert.Error(t, err)
}

func TestMustLoadPanicsOnMissingFixture(t *testing.T) {
	assert.Panics(t, func() { NewStore().MustLoad("missing.json") })
}

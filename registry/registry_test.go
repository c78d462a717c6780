package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func TestLoadYAMLRegistry(t *testing.T) {
	reg, err := LoadFile("testdata/registry.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{"Acme", "Reference"}, reg.Names())
	acme, ok := reg.Find("Acme")
	require.True(t, ok)
	require.Len(t, acme.Issuers, 2)

	issuer := acme.Issuers[0]
	assert.Equal(t, "did:key:z6MkAcmeIssuer", issuer.ID)
	assert.Equal(t, "https://acme.example/credentials/issue", issuer.URL)
	assert.Equal(t, []string{"vc2.0", "vc-api"}, issuer.Tags)
	assert.Equal(t, "urn:uuid:acme", issuer.Options.GetByKey("credentialId").StringValue())
	assert.True(t, ldvalue.ArrayOf(ldvalue.String("/issuer")).Equal(issuer.Options.GetByKey("mandatoryPointers")))
	require.NotNil(t, issuer.Auth)
	assert.Equal(t, "ACME_TOKEN", issuer.Auth.TokenEnv)

	require.Len(t, acme.Verifiers, 1)
	require.NotNil(t, acme.Verifiers[0].Zcap)
	assert.Equal(t, "ACME_ZCAP_SEED", acme.Verifiers[0].Zcap.KeySeedEnv)
	assert.True(t, acme.Issuers[1].Options.IsNull())
}

func TestParseJSONRegistry(t *testing.T) {
	reg, err := Parse([]byte(`{"implementations": [
		{"name": "A", "verifiers": [{"endpoint": "http://a/verify", "tags": ["vc2.0"]}]}
	]}`), "json")
	require.NoError(t, err)
	impl, ok := reg.Find("A")
	require.True(t, ok)
	assert.Len(t, impl.Verifiers, 1)
	assert.Empty(t, impl.Issuers)
}

func TestParseRejectsInvalidRegistries(t *testing.T) {
	for name, input := range map[string]string{
		"duplicate names": `{"implementations": [{"name": "A"}, {"name": "A"}]}`,
		"missing name":    `{"implementations": [{"issuers": []}]}`,
		"missing URL":     `{"implementations": [{"name": "A", "issuers": [{"tags": ["vc2.0"]}]}]}`,
		"unknown field":   `{"implementations": [{"name": "A", "issuer": []}]}`,
		"malformed":       `{"implementations": [`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input), "json")
			assert.Error(t, err)
		})
	}
}

func TestFindEndpointRequiresEveryTag(t *testing.T) {
	impl := Implementation{
		Name: "A",
		Issuers: []Endpoint{
			{URL: "http://a/1", Tags: []string{"vc2.0"}},
			{URL: "http://a/2", Tags: []string{"vc2.0", "JWT"}},
		},
	}

	e, ok := impl.FindEndpoint(RoleIssuers, "vc2.0")
	require.True(t, ok)
	assert.Equal(t, "http://a/1", e.URL)

	e, ok = impl.FindEndpoint(RoleIssuers, "vc2.0", "JWT")
	require.True(t, ok)
	assert.Equal(t, "http://a/2", e.URL)

	_, ok = impl.FindEndpoint(RoleIssuers, "EnvelopingProof")
	assert.False(t, ok)

	_, ok = impl.FindEndpoint(RoleVerifiers, "vc2.0")
	assert.False(t, ok)
}

func TestConfigFromLookup(t *testing.T) {
	reg, err := LoadFile("testdata/registry.yaml")
	require.NoError(t, err)
	env := map[string]string{
		EnvKeySeed:       "z1AackLNBbJT6QwBWmsUHmnRPqEMGw4cgiyHvnZP6JgDuNf",
		"ACME_TOKEN":     "secret-token",
		"ACME_ZCAP_SEED": "z1AZK4h5w5YZkKYEgqtcFfvSbWQ3tZ3ZFgmLsXMZsTVoeK7",
		"UNRELATED":      "x",
	}
	c := ConfigFromLookup(reg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, env[EnvKeySeed], c.KeySeed)
	assert.Equal(t, map[string]string{"ACME_TOKEN": "secret-token"}, c.BearerTokens)
	assert.Equal(t, map[string]string{"ACME_ZCAP_SEED": env["ACME_ZCAP_SEED"]}, c.CapabilitySeeds)
	assert.Zero(t, c.RequestTimeout)
}

func TestConfigBaseURLOverride(t *testing.T) {
	c := ConfigFromLookup(Registry{}, func(k string) (string, bool) {
		if k == EnvBaseURL {
			return "http://localhost:9999", true
		}
		return "", false
	})
	assert.Equal(t, "http://localhost:9999", c.BaseURL)
}

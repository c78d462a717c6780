package registry

import (
	"os"
	"time"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvBaseURL = "BASE_URL"
	EnvKeySeed = "TEST_KEY_SEED"
)

// DefaultBaseURL is where the in-process reference implementation listens when BASE_URL is not set.
const DefaultBaseURL = "http://localhost:8111"

// Config holds every externally supplied setting of a run. It is built once, before any test
// runs, and passed explicitly to the components that need it.
type Config struct {
	// BaseURL is the base URL of the reference implementation.
	BaseURL string

	// KeySeed is the multibase-encoded seed of the key used for locally generated proofs. If
	// empty, a random key is generated for the run.
	KeySeed string

	// CapabilitySeeds maps environment variable names, as referenced by ZcapSettings.KeySeedEnv,
	// to their values.
	CapabilitySeeds map[string]string

	// BearerTokens maps environment variable names, as referenced by AuthSettings.TokenEnv, to
	// their values.
	BearerTokens map[string]string

	// RequestTimeout bounds each HTTP request. Zero means no timeout.
	RequestTimeout time.Duration
}

// WithDefaults returns a copy of the configuration with defaults applied to unset fields.
func (c Config) WithDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.CapabilitySeeds == nil {
		c.CapabilitySeeds = make(map[string]string)
	}
	if c.BearerTokens == nil {
		c.BearerTokens = make(map[string]string)
	}
	return c
}

// ConfigFromEnv builds a Config from the process environment. Besides the fixed variables, it
// reads every variable that an endpoint in the registry refers to by name.
func ConfigFromEnv(reg Registry) Config {
	return ConfigFromLookup(reg, os.LookupEnv)
}

// ConfigFromLookup is the same as ConfigFromEnv, but reads variables through the given function.
func ConfigFromLookup(reg Registry, lookup func(string) (string, bool)) Config {
	c := Config{
		CapabilitySeeds: make(map[string]string),
		BearerTokens:    make(map[string]string),
	}
	if v, ok := lookup(EnvBaseURL); ok {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvKeySeed); ok {
		c.KeySeed = v
	}
	for _, impl := range reg.Implementations {
		for _, role := range AllRoles {
			for _, e := range impl.Endpoints(role) {
				if e.Zcap != nil && e.Zcap.KeySeedEnv != "" {
					if v, ok := lookup(e.Zcap.KeySeedEnv); ok {
						c.CapabilitySeeds[e.Zcap.KeySeedEnv] = v
					}
				}
				if e.Auth != nil && e.Auth.TokenEnv != "" {
					if v, ok := lookup(e.Auth.TokenEnv); ok {
						c.BearerTokens[e.Auth.TokenEnv] = v
					}
				}
			}
		}
	}
	return c.WithDefaults()
}

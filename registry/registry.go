// Package registry describes the implementations under test and the harness configuration.
//
// The registry is loaded once at startup and is treated as immutable for the rest of the run.
package registry

import (
	"fmt"

	"golang.org/x/exp/slices"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Role identifies a group of endpoints within an implementation.
type Role string

const (
	RoleIssuers     Role = "issuers"
	RoleVerifiers   Role = "verifiers"
	RoleProvers     Role = "provers"
	RoleVPVerifiers Role = "vpVerifiers"
)

// AllRoles lists every role in the order they appear in registry files.
var AllRoles = []Role{RoleIssuers, RoleVerifiers, RoleProvers, RoleVPVerifiers}

// Endpoint is a single HTTP endpoint of an implementation.
type Endpoint struct {
	// ID is the identifier (typically a DID) that the implementation expects to see as the
	// issuer or holder of documents sent to this endpoint.
	ID string `mapstructure:"id"`

	URL  string   `mapstructure:"endpoint"`
	Tags []string `mapstructure:"tags"`

	// Options is sent verbatim as the "options" member of issuance requests.
	Options ldvalue.Value `mapstructure:"options"`

	Auth *AuthSettings `mapstructure:"auth"`
	Zcap *ZcapSettings `mapstructure:"zcap"`
}

// AuthSettings configures authentication for HTTPS endpoints.
type AuthSettings struct {
	// Type is "bearer" or "mtls".
	Type string `mapstructure:"type"`

	// TokenEnv names the environment variable holding a bearer token.
	TokenEnv string `mapstructure:"tokenEnv"`

	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// ZcapSettings configures capability invocation for an endpoint.
type ZcapSettings struct {
	// Capability is the id of the capability being invoked, or the root capability if empty.
	Capability string `mapstructure:"capability"`

	// KeySeedEnv names the environment variable holding the invocation key seed.
	KeySeedEnv string `mapstructure:"keySeedEnv"`
}

// HasTags returns true if the endpoint carries every one of the given tags.
func (e Endpoint) HasTags(tags ...string) bool {
	for _, tag := range tags {
		if !slices.Contains(e.Tags, tag) {
			return false
		}
	}
	return true
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s (tags: %v)", e.URL, e.Tags)
}

// Implementation is a named system under test.
type Implementation struct {
	Name        string     `mapstructure:"name"`
	Issuers     []Endpoint `mapstructure:"issuers"`
	Verifiers   []Endpoint `mapstructure:"verifiers"`
	Provers     []Endpoint `mapstructure:"provers"`
	VPVerifiers []Endpoint `mapstructure:"vpVerifiers"`
}

// Endpoints returns the endpoints for a role.
func (i Implementation) Endpoints(role Role) []Endpoint {
	switch role {
	case RoleIssuers:
		return i.Issuers
	case RoleVerifiers:
		return i.Verifiers
	case RoleProvers:
		return i.Provers
	case RoleVPVerifiers:
		return i.VPVerifiers
	}
	return nil
}

// FindEndpoint returns the first endpoint for a role that carries every one of the given tags.
// The second return value is false if there is none.
func (i Implementation) FindEndpoint(role Role, tags ...string) (Endpoint, bool) {
	return FindEndpoint(i.Endpoints(role), tags...)
}

// FindEndpoint returns the first endpoint that carries every one of the given tags.
func FindEndpoint(endpoints []Endpoint, tags ...string) (Endpoint, bool) {
	for _, e := range endpoints {
		if e.HasTags(tags...) {
			return e, true
		}
	}
	return Endpoint{}, false
}

// Registry is the ordered list of implementations under test.
type Registry struct {
	Implementations []Implementation `mapstructure:"implementations"`
}

// Find returns the implementation with the given name.
func (r Registry) Find(name string) (Implementation, bool) {
	for _, impl := range r.Implementations {
		if impl.Name == name {
			return impl, true
		}
	}
	return Implementation{}, false
}

// Names returns the implementation names in registry order.
func (r Registry) Names() []string {
	ret := make([]string, 0, len(r.Implementations))
	for _, impl := range r.Implementations {
		ret = append(ret, impl.Name)
	}
	return ret
}

// Validate checks that every implementation has a unique name and that every endpoint has a URL.
func (r Registry) Validate() error {
	seen := make(map[string]bool)
	for i, impl := range r.Implementations {
		if impl.Name == "" {
			return fmt.Errorf("implementation at index %d has no name", i)
		}
		if seen[impl.Name] {
			return fmt.Errorf("duplicate implementation name %q", impl.Name)
		}
		seen[impl.Name] = true
		for _, role := range AllRoles {
			for j, e := range impl.Endpoints(role) {
				if e.URL == "" {
					return fmt.Errorf("implementation %q: %s[%d] has no endpoint URL", impl.Name, role, j)
				}
			}
		}
	}
	return nil
}

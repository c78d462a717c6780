// Package matrix selects the implementations that are in scope for a suite.
package matrix

import (
	"fmt"
	"io"
	"strings"

	"github.com/vc-test-suites/vc-conformance-tests/registry"
)

// Partition is the result of filtering a registry. Match and NonMatch preserve registry order,
// and every implementation is in exactly one of them.
type Partition struct {
	Role     registry.Role
	Tags     []string
	Match    []registry.Implementation
	NonMatch []registry.Implementation
}

// Filter partitions implementations by whether at least one of their endpoints for the role
// carries every one of the tags.
func Filter(implementations []registry.Implementation, role registry.Role, tags ...string) Partition {
	p := Partition{Role: role, Tags: append([]string(nil), tags...)}
	for _, impl := range implementations {
		if _, ok := impl.FindEndpoint(role, tags...); ok {
			p.Match = append(p.Match, impl)
		} else {
			p.NonMatch = append(p.NonMatch, impl)
		}
	}
	return p
}

// FilterRegistry is a shortcut for Filter(reg.Implementations, role, tags...).
func FilterRegistry(reg registry.Registry, role registry.Role, tags ...string) Partition {
	return Filter(reg.Implementations, role, tags...)
}

// MatchNames returns the names of the matching implementations.
func (p Partition) MatchNames() []string {
	return names(p.Match)
}

// NonMatchNames returns the names of the implementations that were filtered out.
func (p Partition) NonMatchNames() []string {
	return names(p.NonMatch)
}

// Describe writes the "implemented" and "not implemented" columns for a suite.
func (p Partition) Describe(out io.Writer) {
	fmt.Fprintf(out, "%s tagged %s:\n", p.Role, strings.Join(p.Tags, "+"))
	fmt.Fprintf(out, "  implemented:     %s\n", joinOrNone(p.MatchNames()))
	fmt.Fprintf(out, "  not implemented: %s\n", joinOrNone(p.NonMatchNames()))
}

func names(impls []registry.Implementation) []string {
	ret := make([]string, 0, len(impls))
	for _, impl := range impls {
		ret = append(ret, impl.Name)
	}
	return ret
}

func joinOrNone(ss []string) string {
	if len(ss) == 0 {
		return "(none)"
	}
	return strings.Join(ss, ", ")
}

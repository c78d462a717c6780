package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/vc-test-suites/vc-conformance-tests/framework/ldtest"

	"github.com/alessio/shellescape"
)

const (
	defaultTag            = "vc2.0"
	defaultRequestTimeout = time.Second * 30
)

type commandParams struct {
	registryPath   string
	tag            string
	reference      bool
	filters        ldtest.RegexFilters
	requestTimeout time.Duration
	waitTimeout    time.Duration
	debug          bool
	debugAll       bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.registryPath, "registry", "", "YAML or JSON file listing the implementations to test")
	fs.StringVar(&c.tag, "tag", defaultTag, "only test endpoints that have this tag")
	fs.BoolVar(&c.reference, "reference", false, "also test the built-in reference implementation, listening at BASE_URL")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.DurationVar(&c.requestTimeout, "timeout", defaultRequestTimeout, "timeout for each request (0 for none)")
	fs.DurationVar(&c.waitTimeout, "wait", 0, "wait up to this long for every implementation to be reachable")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if c.registryPath == "" && !c.reference {
		fmt.Fprintln(os.Stderr, "-registry or -reference is required")
		fs.Usage()
		return false
	}
	return true
}

// rerunCommand builds a command line that repeats this run for only the failed tests.
func (c *commandParams) rerunCommand(program string, failures []ldtest.TestResult) string {
	var b commandBuilder
	b.add(program)
	if c.registryPath != "" {
		b.add("-registry", c.registryPath)
	}
	if c.tag != defaultTag {
		b.add("-tag", c.tag)
	}
	if c.reference {
		b.add("-reference")
	}
	for _, f := range failures {
		b.add("-run", rerunPattern(f.TestID))
	}
	if c.debug || c.debugAll {
		b.add("-debug")
	}
	return b.String()
}

// rerunPattern matches a test and every scope that encloses it, since a test whose parent is
// filtered out never runs.
func rerunPattern(id ldtest.TestID) string {
	alternatives := make([]string, 0, len(id.Path))
	for i := range id.Path {
		prefix := regexp.QuoteMeta(strings.Join(id.Path[:i+1], "/"))
		if i == len(id.Path)-1 {
			alternatives = append(alternatives, "^"+prefix+"(/|$)")
		} else {
			alternatives = append(alternatives, "^"+prefix+"$")
		}
	}
	return strings.Join(alternatives, "|")
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

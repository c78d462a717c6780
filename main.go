package main

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/vc-test-suites/vc-conformance-tests/framework"
	"github.com/vc-test-suites/vc-conformance-tests/framework/harness"
	"github.com/vc-test-suites/vc-conformance-tests/framework/ldtest"
	"github.com/vc-test-suites/vc-conformance-tests/keys"
	"github.com/vc-test-suites/vc-conformance-tests/prover"
	"github.com/vc-test-suites/vc-conformance-tests/refserver"
	"github.com/vc-test-suites/vc-conformance-tests/registry"
	"github.com/vc-test-suites/vc-conformance-tests/vctests"
)

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	var reg registry.Registry
	if params.registryPath != "" {
		var err error
		if reg, err = registry.LoadFile(params.registryPath); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid registry: %s\n", err)
			os.Exit(1)
		}
	}

	config := registry.ConfigFromEnv(reg)
	config.RequestTimeout = params.requestTimeout

	if params.reference {
		impl, err := startReference(config, params.tag, mainDebugLogger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not start reference implementation: %s\n", err)
			os.Exit(1)
		}
		reg.Implementations = append(reg.Implementations, impl)
		if err := reg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid registry: %s\n", err)
			os.Exit(1)
		}
	}

	if params.waitTimeout > 0 {
		for _, u := range serviceURLs(reg) {
			if err := harness.WaitForService(u, params.waitTimeout, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Implementation not reachable: %s\n", err)
				os.Exit(1)
			}
		}
	}

	sc, err := vctests.NewSuiteContext(reg, config, params.tag, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %s\n", err)
		os.Exit(1)
	}

	fmt.Println()
	params.filters.Describe(os.Stdout)

	fmt.Println("Running test suite")

	testLogger := ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	results := vctests.RunTestSuite(sc, params.filters.AsFilter, testLogger)

	fmt.Println()
	ldtest.PrintResults(results, os.Stdout)
	if !results.OK() {
		fmt.Println()
		fmt.Println("To run only the failed tests:")
		fmt.Println("  " + params.rerunCommand(os.Args[0], results.Failures))
		os.Exit(1)
	}
}

// startReference starts the built-in reference implementation on the port of BASE_URL.
func startReference(config registry.Config, tag string, logger framework.Logger) (registry.Implementation, error) {
	u, err := url.Parse(config.BaseURL)
	if err != nil {
		return registry.Implementation{}, fmt.Errorf("invalid %s: %w", registry.EnvBaseURL, err)
	}
	port := u.Port()
	if port == "" {
		port = "80"
	}
	key, err := keys.Generate()
	if err != nil {
		return registry.Implementation{}, err
	}
	s := refserver.NewServer(prover.New(key), framework.PrefixedLogger(logger, "[reference] "))
	if _, err := harness.StartServer(":"+port, s); err != nil {
		return registry.Implementation{}, err
	}
	return s.Implementation(strings.TrimSuffix(config.BaseURL, "/"), tag), nil
}

// serviceURLs returns the distinct scheme and host of every endpoint in the registry.
func serviceURLs(reg registry.Registry) []string {
	var ret []string
	seen := make(map[string]bool)
	for _, impl := range reg.Implementations {
		for _, role := range registry.AllRoles {
			for _, e := range impl.Endpoints(role) {
				u, err := url.Parse(e.URL)
				if err != nil || u.Host == "" {
					continue
				}
				base := u.Scheme + "://" + u.Host
				if !seen[base] {
					seen[base] = true
					ret = append(ret, base)
				}
			}
		}
	}
	return ret
}

package ldtest

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/vc-test-suites/vc-conformance-tests/framework"
)

// TestConfiguration contains the parameters for a test run.
type TestConfiguration struct {
	// Filter, if not nil, determines which tests are run. Tests that are excluded by the
	// filter are reported as skipped.
	Filter Filter

	// TestLogger receives notifications as tests start and finish. If nil, nothing is reported.
	TestLogger TestLogger

	// Context is an arbitrary value that test code can retrieve with T.Context. Domain-specific
	// test packages use it to pass global state, such as the implementation registry.
	Context interface{}
}

type environment struct {
	config  TestConfiguration
	results Results
}

// T represents a test or subtest.
type T struct {
	env         *environment
	id          TestID
	debugLogger framework.CapturingLogger
	failed      bool
	skipped     bool
	skipReason  string
	errors      []error
	defers      []func()
}

// Run starts a top-level test scope and returns the accumulated results of it and all of its
// subtests.
func Run(config TestConfiguration, action func(*T)) Results {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	env := &environment{config: config}
	t := &T{env: env}
	t.run(action)
	return env.results
}

func (t *T) run(action func(*T)) {
	defer func() {
		for i := len(t.defers) - 1; i >= 0; i-- {
			t.defers[i]()
		}
		if r := recover(); r != nil {
			if t.skipped {
				return
			}
			t.failed = true
			var addError error
			if _, ok := r.(*T); ok {
				if len(t.errors) == 0 {
					addError = errors.New("test failed with no failure message")
				}
			} else {
				addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			}
			if addError != nil {
				t.errors = append(t.errors, addError)
				t.env.config.TestLogger.TestError(t.id, addError)
			}
		}
		if t.skipped || len(t.id.Path) == 0 {
			return
		}
		result := TestResult{TestID: t.id, Errors: t.errors}
		t.env.results.Tests = append(t.env.results.Tests, result)
		if t.failed {
			t.env.results.Failures = append(t.env.results.Failures, result)
		}
	}()

	action(t)
}

// ID returns the unique identifier of this test.
func (t *T) ID() TestID {
	return t.id
}

// Context returns the value that was passed in TestConfiguration.Context.
func (t *T) Context() interface{} {
	return t.env.config.Context
}

// Run runs a subtest. This is equivalent to the Run method of testing.T.
func (t *T) Run(name string, action func(*T)) {
	id := t.id.Plus(name)

	t.env.config.TestLogger.TestStarted(id)
	if t.env.config.Filter != nil && !t.env.config.Filter(id) {
		t.env.results.Skipped = append(t.env.results.Skipped,
			TestResult{TestID: id, Skipped: true, SkipReason: "excluded by filter parameters"})
		t.env.config.TestLogger.TestSkipped(id, "excluded by filter parameters")
		return
	}
	t1 := &T{
		id:  id,
		env: t.env,
	}
	t1.run(action)
	if t1.skipped {
		t.env.results.Skipped = append(t.env.results.Skipped,
			TestResult{TestID: id, Skipped: true, SkipReason: t1.skipReason})
		t.env.config.TestLogger.TestSkipped(id, t1.skipReason)
	} else {
		t.env.config.TestLogger.TestFinished(id, t1.failed, t1.debugLogger.Output())
	}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	err := fmt.Errorf(format, args...)
	t.errors = append(t.errors, err)
	t.env.config.TestLogger.TestError(t.id, err)
}

// FailNow causes the test to immediately exit. The methods in the require package call it.
func (t *T) FailNow() {
	t.failed = true
	panic(t)
}

// Failed returns true if the test has reported any failures so far.
func (t *T) Failed() bool {
	return t.failed
}

// Skip marks the test as skipped and exits immediately.
func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

// SkipWithReason is the same as Skip, but records a reason that the test logger will report.
func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Defer schedules a function to run when this test exits, in the same order as Go's defer.
func (t *T) Defer(fn func()) {
	t.defers = append(t.defers, fn)
}

// Debug writes a message to the debug log for this test. Debug output is passed to the test
// logger when the test finishes.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns a Logger that writes to this test's debug output.
func (t *T) DebugLogger() framework.Logger {
	return &t.debugLogger
}

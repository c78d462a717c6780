package ldtest

import (
	"testing"

	"github.com/vc-test-suites/vc-conformance-tests/framework"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTestLogger struct {
	started  []string
	skipped  map[string]string
	finished map[string]bool
}

func newRecordingTestLogger() *recordingTestLogger {
	return &recordingTestLogger{skipped: make(map[string]string), finished: make(map[string]bool)}
}

func (r *recordingTestLogger) TestStarted(id TestID)   { r.started = append(r.started, id.String()) }
func (r *recordingTestLogger) TestError(TestID, error) {}
func (r *recordingTestLogger) TestFinished(id TestID, failed bool, _ framework.CapturedOutput) {
	r.finished[id.String()] = failed
}
func (r *recordingTestLogger) TestSkipped(id TestID, reason string) { r.skipped[id.String()] = reason }

func TestPassingAndFailingSubtests(t *testing.T) {
	logger := newRecordingTestLogger()
	results := Run(TestConfiguration{TestLogger: logger}, func(t *T) {
		t.Run("suite", func(t *T) {
			t.Run("passes", func(t *T) {
				assert.True(t, true)
			})
			t.Run("fails", func(t *T) {
				assert.Equal(t, 1, 2, "numbers differ")
			})
			t.Run("fails now", func(t *T) {
				require.Fail(t, "stop here")
				t.Errorf("not reached")
			})
		})
	})

	assert.False(t, results.OK())
	require.Len(t, results.Failures, 2)
	assert.Equal(t, "suite/fails", results.Failures[0].TestID.String())
	assert.Equal(t, "suite/fails now", results.Failures[1].TestID.String())
	assert.Len(t, results.Failures[1].Errors, 1)
	assert.Equal(t, []string{"suite", "suite/passes", "suite/fails", "suite/fails now"}, logger.started)
	assert.False(t, logger.finished["suite/passes"])
	assert.True(t, logger.finished["suite/fails"])
}

func TestSkipWithReason(t *testing.T) {
	logger := newRecordingTestLogger()
	results := Run(TestConfiguration{TestLogger: logger}, func(t *T) {
		t.Run("skipped", func(t *T) {
			t.SkipWithReason("no issuer")
			t.Errorf("not reached")
		})
	})

	assert.True(t, results.OK())
	assert.Len(t, results.Tests, 0)
	require.Len(t, results.Skipped, 1)
	assert.Equal(t, "no issuer", results.Skipped[0].SkipReason)
	assert.Equal(t, "no issuer", logger.skipped["skipped"])
}

func TestFilterExcludesTests(t *testing.T) {
	var filters RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("^b"))
	ran := []string{}
	results := Run(TestConfiguration{Filter: filters.AsFilter}, func(t *T) {
		for _, name := range []string{"a", "b", "c"} {
			n := name
			t.Run(n, func(t *T) { ran = append(ran, n) })
		}
	})

	assert.Equal(t, []string{"a", "c"}, ran)
	assert.Len(t, results.Skipped, 1)
}

func TestUnexpectedPanicIsRecordedAsFailure(t *testing.T) {
	results := Run(TestConfiguration{}, func(t *T) {
		t.Run("panics", func(t *T) {
			panic("boom")
		})
	})

	require.Len(t, results.Failures, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "boom")
}

func TestDeferredFunctionsRunInReverseOrder(t *testing.T) {
	var order []int
	Run(TestConfiguration{}, func(t *T) {
		t.Run("defers", func(t *T) {
			t.Defer(func() { order = append(order, 1) })
			t.Defer(func() { order = append(order, 2) })
			require.Fail(t, "exit early")
		})
	})

	assert.Equal(t, []int{2, 1}, order)
}

func TestContextIsShared(t *testing.T) {
	var seen interface{}
	Run(TestConfiguration{Context: "registry"}, func(t *T) {
		t.Run("child", func(t *T) { seen = t.Context() })
	})
	assert.Equal(t, "registry", seen)
}

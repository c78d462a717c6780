package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/vc-test-suites/vc-conformance-tests/framework"
	"github.com/vc-test-suites/vc-conformance-tests/framework/ldtest"

	"github.com/fatih/color"
)

var (
	failedColor  = color.New(color.FgRed, color.Bold)
	skippedColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
)

type ConsoleTestLogger struct {
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

func (c ConsoleTestLogger) TestStarted(id ldtest.TestID) {
	fmt.Printf("[%s]\n", id)
}

func (c ConsoleTestLogger) TestError(id ldtest.TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Printf("  %s\n", errorColor.Sprint(line))
	}
}

func (c ConsoleTestLogger) TestFinished(id ldtest.TestID, failed bool, debugOutput framework.CapturedOutput) {
	if failed {
		fmt.Printf("  %s %s\n", failedColor.Sprint("FAILED:"), id)
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		debugOutput.Dump(os.Stdout, "    DEBUG ")
	}
}

func (c ConsoleTestLogger) TestSkipped(id ldtest.TestID, reason string) {
	if reason == "" {
		fmt.Printf("  %s %s\n", skippedColor.Sprint("SKIPPED:"), id)
	} else {
		fmt.Printf("  %s %s (%s)\n", skippedColor.Sprint("SKIPPED:"), id, reason)
	}
}

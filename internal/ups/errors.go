package ups

import (
	"fmt"
	"strings"
)

// CommandError reports a failed status query. It is not fatal; the poll
// loop logs it and tries again on the next cycle.
type CommandError struct {
	Device  string
	Command string
	// ExitCode is -1 when the command did not run to completion
	// (not found, killed by timeout).
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: ", e.Command, e.Device)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, "exit status %d", e.ExitCode)
	} else {
		b.WriteString(e.Err.Error())
	}
	if e.Stderr != "" {
		b.WriteString(": ")
		b.WriteString(e.Stderr)
	}
	return b.String()
}

func (e *CommandError) Unwrap() error { return e.Err }

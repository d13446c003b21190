package ups

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const maxStderr = 512

// Fetcher runs the NUT client (upsc) for a device and parses its output.
type Fetcher struct {
	command string
	timeout time.Duration
}

// NewFetcher returns a Fetcher invoking command. A zero timeout disables the
// per-call deadline (the caller's ctx still applies).
func NewFetcher(command string, timeout time.Duration) *Fetcher {
	if strings.TrimSpace(command) == "" {
		command = "upsc"
	}
	return &Fetcher{command: command, timeout: timeout}
}

// Fetch runs "<command> <device>" and parses stdout. Any failure is
// returned as a *CommandError.
func (f *Fetcher) Fetch(ctx context.Context, device string) (Snapshot, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.command, device)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		ce := &CommandError{
			Device:   device,
			Command:  f.command,
			ExitCode: -1,
			Stderr:   truncate(strings.TrimSpace(stderr.String()), maxStderr),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			ce.ExitCode = exitErr.ExitCode()
		} else if ctx.Err() != nil {
			ce.Err = fmt.Errorf("%w (%v)", ctx.Err(), err)
		}
		return nil, ce
	}
	return ParseSnapshot(stdout.String()), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

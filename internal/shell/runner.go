package shell

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultOutputLimitBytes caps captured process output.
const DefaultOutputLimitBytes = 64 * 1024

// Result captures one finished external command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner executes external commands for covpilot subsystems.
//
// A non-zero exit status is reported through Result.ExitCode, not through the
// error return; the error is reserved for commands that could not be started
// or observed at all.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (Result, error)
}

// CommandRunner is the process-backed Runner used outside of tests.
type CommandRunner struct {
	OutputLimitBytes int
}

// Run executes name with args in dir and captures bounded stdout/stderr.
func (r CommandRunner) Run(ctx context.Context, dir string, name string, args ...string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{}, errors.New("command name must not be empty")
	}
	if strings.TrimSpace(dir) == "" {
		return Result{}, errors.New("command dir must not be empty")
	}

	limit := r.OutputLimitBytes
	if limit <= 0 {
		limit = DefaultOutputLimitBytes
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	stdout := newLimitedBuffer(limit)
	stderr := newLimitedBuffer(limit)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	started := time.Now()
	err := cmd.Run()
	duration := time.Since(started)

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			exitCode = -1
		case errors.As(err, &exitErr):
			exitCode = exitErr.ExitCode()
		case cmd.ProcessState != nil:
			exitCode = cmd.ProcessState.ExitCode()
		default:
			return Result{}, fmt.Errorf("run %s: %w", formatCommand(name, args), err)
		}
	}

	return Result{
		ExitCode: exitCode,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: duration,
	}, nil
}

func formatCommand(name string, args []string) string {
	parts := append([]string{name}, args...)
	sanitized := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sanitized = append(sanitized, part)
	}
	return strings.Join(sanitized, " ")
}

type limitedBuffer struct {
	max       int
	data      []byte
	truncated bool
}

func newLimitedBuffer(max int) *limitedBuffer {
	if max <= 0 {
		max = DefaultOutputLimitBytes
	}
	return &limitedBuffer{
		max:  max,
		data: make([]byte, 0, max),
	}
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	written := len(p)
	remaining := b.max - len(b.data)
	if remaining > 0 {
		if len(p) <= remaining {
			b.data = append(b.data, p...)
		} else {
			b.data = append(b.data, p[:remaining]...)
			b.truncated = true
		}
	} else {
		b.truncated = true
	}
	return written, nil
}

func (b *limitedBuffer) String() string {
	if !b.truncated {
		return string(b.data)
	}
	const marker = "\n...[output truncated]"
	if len(b.data) >= len(marker) {
		return string(b.data[:len(b.data)-len(marker)]) + marker
	}
	return string(b.data)
}

package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"substweet/internal/services"
)

// Runner executes ffmpeg with the given arguments and returns its stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner runs a real ffmpeg binary.
type ExecRunner struct {
	Binary string
}

// NewRunner returns an ExecRunner for binary, defaulting to "ffmpeg".
func NewRunner(binary string) ExecRunner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return ExecRunner{Binary: binary}
}

// Run executes the binary. A non-zero exit is wrapped with ErrExternalTool and
// carries the tail of stderr.
func (r ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{Args: args, Code: exitErr.ExitCode(), Stderr: tail(stderr.String(), 2048)}
		}
		return nil, services.Wrap(services.ErrExternalTool, "ffmpeg", "exec", fmt.Sprintf("run %s", r.Binary), err)
	}
	return stdout.Bytes(), nil
}

// ExitError describes a non-zero ffmpeg exit.
type ExitError struct {
	Args   []string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("ffmpeg exited with status %d", e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap lets errors.Is match services.ErrExternalTool.
func (e *ExitError) Unwrap() error { return services.ErrExternalTool }

func tail(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return "…" + s[len(s)-limit:]
}

// Package runtimecli spawns the external container-runtime CLI and
// captures its output. It is the only component that forks a process —
// every other package depends on the Driver interface, never on os/exec
// directly, so tests can substitute FakeDriver.
package runtimecli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// Result is the full captured output of one CLI invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Driver runs the runtime CLI with an argument list. No shell interpolation
// and no argument quoting — arguments pass through to exec.Command unchanged.
type Driver interface {
	Run(ctx context.Context, args ...string) (Result, error)

	// Stream spawns the CLI and returns its stdout as a lazily-read,
	// restartable stream — used for `logs --follow`, where the caller reads
	// chunks as the child emits them and closing the stream terminates the
	// child. The sequence ends when the child exits.
	Stream(ctx context.Context, args ...string) (io.ReadCloser, error)
}

// Exec is the Driver backed by a real child process.
type Exec struct {
	// Bin is the binary name or path, e.g. "container".
	Bin string
}

// Run spawns Bin with args and waits for completion. A spawn failure (the
// binary can't even start) is reported as ExitCode 1 with empty stdout and
// a non-nil error; a clean non-zero exit is ExitCode != 0 with a nil error.
func (e *Exec) Run(ctx context.Context, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, e.Bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("runtime exec", "bin", e.Bin, "args", args)

	err := cmd.Run()
	if err == nil {
		return Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: 0}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitErr.ExitCode()}, nil
	}

	// Spawn failure: binary missing, permission denied, etc.
	slog.Warn("runtime exec: spawn failed", "bin", e.Bin, "args", args, "err", err)
	return Result{Stdout: "", Stderr: strings.TrimSpace(err.Error()), ExitCode: 1}, err
}

// Stream spawns Bin with args and returns its stdout pipe. Closing the
// returned ReadCloser kills the child process. Stderr is discarded.
func (e *Exec) Stream(ctx context.Context, args ...string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, e.Bin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	slog.Debug("runtime exec stream", "bin", e.Bin, "args", args)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &procStream{ReadCloser: stdout, cmd: cmd}, nil
}

// procStream closes the underlying pipe and kills the child on Close.
type procStream struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (p *procStream) Close() error {
	_ = p.ReadCloser.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	return p.cmd.Wait()
}

// Package apt runs package manager commands and exposes them behind the
// Manager interface used by the upgrade orchestrator.
package apt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

var (
	// ErrCommandFailed indicates a package manager command exited unsuccessfully
	ErrCommandFailed = errors.New("package manager command failed")
)

// CommandError describes a failed command invocation
type CommandError struct {
	Command  string
	ExitCode int // -1 when the process could not be started
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
}

// Unwrap lets errors.Is match both ErrCommandFailed and the underlying cause
func (e *CommandError) Unwrap() []error {
	return []error{ErrCommandFailed, e.Err}
}

// Runner executes external commands. Stdout and Stderr receive mirrored
// output for Stream and the terminal streams for Interactive.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Env is appended to the process environment of captured commands
	Env []string
}

// NewRunner creates a Runner attached to the process terminal
func NewRunner() *Runner {
	return &Runner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Env:    []string{"LC_ALL=C", "LANG=C"},
	}
}

// Output runs a command and returns its combined stdout and stderr without
// echoing it
func (r *Runner) Output(ctx context.Context, name string, args ...string) (string, error) {
	var buf bytes.Buffer
	err := r.run(ctx, &buf, nil, name, args...)
	return buf.String(), err
}

// Stream runs a command, mirrors its combined output to Stdout as it arrives
// and returns everything that was written
func (r *Runner) Stream(ctx context.Context, name string, args ...string) (string, error) {
	var buf bytes.Buffer
	err := r.run(ctx, &buf, r.stdout(), name, args...)
	return buf.String(), err
}

// Interactive runs a command attached to the operator's terminal so the
// package manager can ask its own questions. Nothing is captured.
func (r *Runner) Interactive(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.stdout()
	cmd.Stderr = r.stderr()
	return wrapError(ctx, cmd.Run(), name, args, "")
}

// run executes the command with stdout and stderr sharing one writer so the
// captured text keeps the order apt printed it in. mirror may be nil.
func (r *Runner) run(ctx context.Context, buf *bytes.Buffer, mirror io.Writer, name string, args ...string) error {
	var out io.Writer = buf
	if mirror != nil {
		out = io.MultiWriter(mirror, buf)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	return wrapError(ctx, cmd.Run(), name, args, buf.String())
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout == nil {
		return io.Discard
	}
	return r.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr == nil {
		return io.Discard
	}
	return r.Stderr
}

// wrapError converts an exec error into a CommandError. A cancelled context
// is returned as is so callers can tell an interrupt from a failure.
func wrapError(ctx context.Context, err error, name string, args []string, output string) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	command := strings.TrimSpace(name + " " + strings.Join(args, " "))

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &CommandError{
			Command:  command,
			ExitCode: exitErr.ExitCode(),
			Output:   output,
			Err:      err,
		}
	}

	return &CommandError{Command: command, ExitCode: -1, Output: output, Err: err}
}

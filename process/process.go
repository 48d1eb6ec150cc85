package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// waitDelay bounds how long Wait blocks on the child's I/O after the child
// has been interrupted.
const waitDelay = 5 * time.Second

// Command describes a child process to run.
type Command struct {
	// Name is the program name or path. Names without a separator are looked
	// up in PATH.
	Name string
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, s := range append([]string{c.Name}, c.Args...) {
		if s == "" || strings.ContainsAny(s, " \t\n\"'\\$") {
			s = fmt.Sprintf("%q", s)
		}

		parts = append(parts, s)
	}

	return strings.Join(parts, " ")
}

// Runner starts child processes.
//
// The interface exists so callers can substitute a fake in tests; production
// code uses [ExecRunner].
type Runner interface {
	// Output runs cmd and returns its standard output. Standard error is
	// passed through to the runner's error stream.
	Output(ctx context.Context, cmd Command) ([]byte, error)
	// Run runs cmd with all standard streams inherited and waits for it to
	// exit. A cancelled ctx only prevents the start.
	Run(ctx context.Context, cmd Command) error
	// LookPath resolves a program name like [exec.LookPath].
	LookPath(file string) (string, error)
}

// ExecRunner is a [Runner] backed by [os/exec].
//
// Create instances with [NewExecRunner].
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns an [ExecRunner] wired to the process's own standard
// streams.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Output implements [Runner]. Cancelling ctx interrupts the child.
func (r *ExecRunner) Output(ctx context.Context, c Command) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...) //nolint:gosec // Running user-selected tools is the point.
	setup(cmd, c)

	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = waitDelay
	cmd.Stderr = r.Stderr

	out, err := cmd.Output()

	return out, result(c, cmd, err)
}

// Run implements [Runner]. The child is not tied to ctx once started: an
// interrupt reaches it through the terminal's process group, and Run reports
// however the child chose to exit.
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	err := ctx.Err()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStart, c.Name, err)
	}

	cmd := r.command(c)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	return result(c, cmd, cmd.Run())
}

// LookPath implements [Runner].
func (r *ExecRunner) LookPath(file string) (string, error) {
	path, err := exec.LookPath(file)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return path, nil
}

func (r *ExecRunner) command(c Command) *exec.Cmd {
	cmd := exec.Command(c.Name, c.Args...) //nolint:gosec // Running user-selected tools is the point.
	setup(cmd, c)

	return cmd
}

func setup(cmd *exec.Cmd, c Command) {
	cmd.Dir = c.Dir

	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
}

// result converts the outcome of a finished command. Once the child has
// exited its own status decides, even if the context was cancelled meanwhile.
func result(c Command, cmd *exec.Cmd, err error) error {
	if err == nil {
		return nil
	}

	if ps := cmd.ProcessState; ps != nil {
		code := exitStatus(ps)
		if code == 0 {
			return nil
		}

		return &ExitError{Command: c.Name, Code: code}
	}

	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s: %w", ErrNotFound, c.Name, err)
	}

	return fmt.Errorf("%w: %s: %w", ErrStart, c.Name, err)
}

// exitStatus returns the child's exit code, or 128+signal for a child
// terminated by a signal, as shells report it.
func exitStatus(ps *os.ProcessState) int {
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}

	return ps.ExitCode()
}

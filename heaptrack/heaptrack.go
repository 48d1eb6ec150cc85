package heaptrack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.jacobcolvin.com/cargo-heaptrack/process"
)

var (
	// ErrNotFound indicates the heaptrack executable is not installed.
	ErrNotFound = errors.New("heaptrack not found")
	// ErrLaunch indicates heaptrack could not be started.
	ErrLaunch = errors.New("failed to execute heaptrack")
	// ErrFailed indicates heaptrack exited with a non-zero status.
	ErrFailed = errors.New("heaptrack failed")
)

// Profiler runs an executable under heaptrack.
//
// Create instances with [Config.NewProfiler].
type Profiler struct {
	Config
}

// Args returns heaptrack's argument list for exe. The trailing arguments are
// passed to exe unmodified and in order.
func (p *Profiler) Args(exe string, trailing []string) []string {
	args := make([]string, 0, len(p.Extra)+len(trailing)+4)

	if p.Output != "" {
		args = append(args, "--output", p.Output)
	}

	if p.Raw {
		args = append(args, "--raw")
	}

	args = append(args, p.Extra...)
	args = append(args, exe)

	return append(args, trailing...)
}

// Command returns the heaptrack command for exe.
func (p *Profiler) Command(exe string, trailing []string) process.Command {
	return process.Command{Name: p.ProgramName(), Args: p.Args(exe, trailing)}
}

// Run profiles exe with heaptrack, inheriting the standard streams, and waits
// for heaptrack to exit. A non-zero exit is reported as [ErrFailed] wrapping a
// [*process.ExitError].
func (p *Profiler) Run(ctx context.Context, runner process.Runner, exe string, trailing []string) error {
	program := p.ProgramName()

	_, err := runner.LookPath(program)
	if err != nil {
		return fmt.Errorf("%w: %w (install heaptrack or set $HEAPTRACK)", ErrNotFound, err)
	}

	cmd := p.Command(exe, trailing)

	slog.Debug("profiling", slog.String("command", cmd.String()))

	err = runner.Run(ctx, cmd)
	if err == nil {
		return nil
	}

	var exitErr *process.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: %w", ErrFailed, err)
	}

	return fmt.Errorf("%w: %w", ErrLaunch, err)
}

package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.jacobcolvin.com/cargo-heaptrack/cargo"
	"go.jacobcolvin.com/cargo-heaptrack/heaptrack"
	"go.jacobcolvin.com/cargo-heaptrack/process"
)

// ErrInvalidArgument indicates a malformed command line.
var ErrInvalidArgument = errors.New("invalid argument")

// Plan is the parsed form of one invocation. [Launcher.Run] fills in
// Selection, Kinds and Executable as it goes.
type Plan struct {
	Cargo     *cargo.Config
	Heaptrack *heaptrack.Config

	// Dir is the directory the crate root is searched from.
	Dir string
	// Executable is the resolved path of the built target.
	Executable string

	// Trailing holds the arguments after "--", passed to the profiled
	// executable verbatim.
	Trailing []string
	// Kinds holds the cargo kinds of an automatically selected target.
	Kinds []string

	Selection cargo.Selection
}

// Launcher builds a target with cargo and runs it under heaptrack.
//
// Create instances with [New].
type Launcher struct {
	runner process.Runner
	stderr io.Writer
}

// New creates a [Launcher] that starts processes through runner and writes
// user-facing hints to stderr.
func New(runner process.Runner, stderr io.Writer) *Launcher {
	return &Launcher{
		runner: runner,
		stderr: stderr,
	}
}

// Run builds the planned target and profiles it. Steps run strictly in
// order and stop at the first failure: a failed build never reaches
// heaptrack. Child exit statuses are preserved in the returned error; see
// [process.ExitCode].
func (l *Launcher) Run(ctx context.Context, plan *Plan) error {
	sel, err := plan.Cargo.Selection()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	plan.Selection = sel

	builder := plan.Cargo.NewBuilder(l.runner)

	if sel.IsZero() || sel.Kind == cargo.KindUnitTest {
		err = l.selectTarget(ctx, plan, builder)
		if err != nil {
			return err
		}

		builder = plan.Cargo.NewBuilder(l.runner)
	}

	artifacts, err := builder.Build(ctx, plan.Kinds)
	if err != nil {
		return err
	}

	exe, err := cargo.ResolveExecutable(artifacts, plan.Selection)
	if errors.Is(err, cargo.ErrNoArtifact) {
		exe.Executable = l.outputPath(ctx, plan, builder)
		if exe.Executable == "" {
			return err
		}
	} else if err != nil {
		return err
	}

	plan.Executable = exe.Executable

	slog.Debug("resolved executable",
		slog.String("target", plan.Selection.String()),
		slog.String("path", plan.Executable),
		slog.Bool("fresh", exe.Fresh),
	)

	// Artifacts found by path carry no profile information.
	if !plan.Cargo.Dev && exe.PackageID != "" && exe.Profile.DebugInfo.IsNone() {
		l.warnDebugInfo(plan.Selection)
	}

	// An interrupt during the build must not start the profiler.
	err = ctx.Err()
	if err != nil {
		return err
	}

	return plan.Heaptrack.NewProfiler().Run(ctx, l.runner, plan.Executable, plan.Trailing)
}

// selectTarget picks the only binary target, or the only unit-test target,
// from cargo metadata and records it in plan.
func (l *Launcher) selectTarget(ctx context.Context, plan *Plan, builder *cargo.Builder) error {
	kinds := []cargo.Kind{cargo.KindBin}
	if plan.Selection.Kind == cargo.KindUnitTest {
		kinds = []cargo.Kind{cargo.KindBin, cargo.KindLib}
	}

	crateRoot, err := cargo.FindCrateRoot(plan.Cargo.ManifestPath, plan.Dir)
	if err != nil {
		return err
	}

	meta, err := builder.Metadata(ctx)
	if err != nil {
		return err
	}

	target, err := cargo.FindUniqueTarget(meta, kinds, plan.Cargo.Package, crateRoot, plan.Selection.Name)
	if err != nil {
		return err
	}

	sel := cargo.Selection{Kind: cargo.KindBin, Name: target.Target}
	if plan.Selection.Kind == cargo.KindUnitTest {
		sel.Kind = cargo.KindUnitTest
	}

	plan.Cargo.Select(sel)
	plan.Cargo.Package = target.Package
	plan.Selection = sel
	plan.Kinds = target.Kind

	return nil
}

// outputPath returns the executable of a named bin or example target at
// cargo's conventional location when cargo did not report it, or "" when
// there is none.
func (l *Launcher) outputPath(ctx context.Context, plan *Plan, builder *cargo.Builder) string {
	if plan.Selection.Name == "" {
		return ""
	}

	meta, err := builder.Metadata(ctx)
	if err != nil {
		slog.Debug("skip output path lookup", slog.Any("err", err))

		return ""
	}

	path, ok := cargo.OutputPath(meta.TargetDirectory, plan.Cargo.ProfileName(),
		plan.Selection.Kind, plan.Selection.Name)
	if !ok {
		return ""
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}

	slog.Warn("cargo reported no executable for the target, using its output path",
		slog.String("path", path))

	return path
}

func (l *Launcher) warnDebugInfo(sel cargo.Selection) {
	profile := cargo.DebugInfoProfile(sel)

	slog.Warn("profiling without debuginfo", slog.String("profile", profile))

	if l.stderr != nil {
		fmt.Fprintf(l.stderr, "\nWARNING: profiling without debuginfo. %s\n", cargo.DebugInfoHint(profile))
	}
}

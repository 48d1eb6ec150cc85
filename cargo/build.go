package cargo

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"go.jacobcolvin.com/cargo-heaptrack/process"
)

const messageFormat = "--message-format=json-render-diagnostics"

// Builder runs cargo for one [Config].
//
// Create instances with [Config.NewBuilder].
type Builder struct {
	runner process.Runner
	Config
}

// Metadata runs "cargo metadata" for the configured manifest.
func (b *Builder) Metadata(ctx context.Context) (*Metadata, error) {
	args := []string{"metadata", "--no-deps", "--format-version", "1"}
	if b.ManifestPath != "" {
		args = append(args, "--manifest-path", b.ManifestPath)
	}

	out, err := b.runner.Output(ctx, process.Command{Name: b.Program(), Args: args})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadata, err)
	}

	return ParseMetadata(out)
}

// Args returns the cargo arguments that build the selected target. kinds
// holds the cargo kinds of an automatically selected unit-test target and
// decides between --lib and --bin.
func (b *Builder) Args(kinds []string) []string {
	var args []string

	unitTest := b.UnitTest.IsSet()

	switch {
	case !b.Dev && b.Bench != "":
		// The bench profile is only reachable through "cargo bench".
		args = append(args, "bench", "--no-run")
	case unitTest:
		args = append(args, "test", "--no-run")
	default:
		args = append(args, "build")
	}

	switch {
	case b.Profile != "":
		args = append(args, "--profile", b.Profile)
	case !b.Dev && b.Bench == "":
		args = append(args, "--release")
	}

	if b.Package != "" {
		args = append(args, "--package", b.Package)
	}

	if b.Bin != "" {
		args = append(args, "--bin", b.Bin)
	}

	if b.Example != "" {
		args = append(args, "--example", b.Example)
	}

	if b.Test != "" {
		args = append(args, "--test", b.Test)
	}

	if b.Bench != "" {
		args = append(args, "--bench", b.Bench)
	}

	if name := b.UnitTest.Value(); unitTest && name != "" {
		if slices.Contains(kinds, string(KindLib)) {
			args = append(args, "--lib")
		} else {
			args = append(args, "--bin", name)
		}
	}

	if b.ManifestPath != "" {
		args = append(args, "--manifest-path", b.ManifestPath)
	}

	if b.Features != "" {
		args = append(args, "--features", b.Features)
	}

	if b.NoDefaultFeatures {
		args = append(args, "--no-default-features")
	}

	return append(args, messageFormat)
}

// Build compiles the selected target and returns the compiler artifacts
// cargo reported. Cargo's diagnostics go to the runner's error stream.
func (b *Builder) Build(ctx context.Context, kinds []string) ([]Artifact, error) {
	cmd := process.Command{Name: b.Program(), Args: b.Args(kinds)}

	slog.Debug("building", slog.String("command", cmd.String()))

	out, err := b.runner.Output(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	return ParseMessages(bytes.NewReader(out))
}

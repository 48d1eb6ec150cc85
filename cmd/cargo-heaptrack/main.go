// Command cargo-heaptrack is a cargo subcommand that builds a Rust target
// and profiles the resulting executable with heaptrack.
//
// # Usage
//
//	cargo heaptrack [flags] [BIN] [-- ARGS...]
//
// The process exits with heaptrack's exit status, or with cargo's when the
// build fails.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.jacobcolvin.com/cargo-heaptrack/launcher"
	"go.jacobcolvin.com/cargo-heaptrack/log"
	"go.jacobcolvin.com/cargo-heaptrack/process"
)

func main() {
	os.Exit(run())
}

func run() int {
	// The terminal delivers Ctrl-C to heaptrack directly. Catching it here keeps
	// the wrapper alive to report heaptrack's exit status.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := launcher.NewCommand(launcher.Options{
		Runner:    process.NewExecRunner(),
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		LogFormat: log.DefaultFormat(os.Stderr),
	})
	rootCmd.SetArgs(launcher.CargoArgs(os.Args[1:]))

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	return process.ExitCode(err)
}

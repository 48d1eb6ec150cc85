// Package process runs the external tools the launcher delegates to.
//
// A [Runner] starts a [Command] either with its standard output captured
// ([Runner.Output]) or with every standard stream inherited ([Runner.Run]).
// Children that exit with a non-zero status are reported as [*ExitError], and
// [ExitCode] turns any error into the status the launcher should exit with.
package process

// Package cargo drives cargo to build a single executable target and locates
// the result.
//
// A [Config] holds the cargo-compatible flags of one invocation (profile,
// package, target and feature selection). [Config.NewBuilder] returns a
// [Builder] that runs "cargo metadata" to discover targets and "cargo build"
// (or "cargo bench --no-run" / "cargo test --no-run") with JSON message
// output. [ParseMessages] extracts the compiler-artifact messages and
// [ResolveExecutable] picks the one executable built for the [Selection].
//
//	cfg := cargo.NewConfig()
//	cfg.RegisterFlags(cmd.Flags())
//
//	b := cfg.NewBuilder(process.NewExecRunner())
//	artifacts, err := b.Build(ctx, nil)
//	exe, err := cargo.ResolveExecutable(artifacts, sel)
//
// When no target flag is given, [FindUniqueTarget] selects the only binary of
// the crate, honouring default-run.
package cargo

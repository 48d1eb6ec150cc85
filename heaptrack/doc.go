// Package heaptrack launches executables under the heaptrack heap profiler.
//
// A [Config] carries the heaptrack options exposed on the command line
// (--output, --raw) and the heaptrack executable to use. [Config.NewProfiler]
// returns a [Profiler] whose [Profiler.Run] starts heaptrack with inherited
// standard streams, so heaptrack's interactive output stays visible, and
// waits for it to exit:
//
//	cfg := heaptrack.NewConfig()
//	cfg.RegisterFlags(rootCmd.Flags())
//
//	p := cfg.NewProfiler()
//	err := p.Run(ctx, process.NewExecRunner(), "target/release/app", []string{"--port", "8080"})
//
// heaptrack's exit status is preserved in the returned error; see
// [process.ExitCode].
package heaptrack

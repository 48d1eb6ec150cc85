// Package log provides structured logging handler construction for use with
// [log/slog].
//
// It supports multiple output formats ([FormatText], [FormatLogfmt], and
// [FormatJSON]) and severity levels ([LevelError], [LevelWarn], [LevelInfo],
// and [LevelDebug]). The text format is rendered by [charm.land/log/v2] and
// is meant for interactive terminals; logfmt and JSON are plain [slog]
// handlers.
//
// Typical usage creates a [Config], registers flags, then builds a handler
// once flags are parsed:
//
//	cfg := log.NewConfig()
//	cfg.Format = log.DefaultFormat(os.Stderr)
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//	cfg.RegisterCompletions(rootCmd)
//
//	handler, err := cfg.NewHandler(os.Stderr)
//	slog.SetDefault(slog.New(handler))
package log

package log

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// Flags holds CLI flag names for log configuration, allowing callers to
// customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	Level  string
	Format string
}

// NewConfig creates a [Config] with these flag names, logging at
// [LevelInfo] in [FormatText].
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags:  f,
		Level:  LevelInfo,
		Format: FormatText,
	}
}

// Config holds the log level and format chosen on the command line.
//
// Values are validated while flags are parsed, so a bad --log-level fails
// flag parsing rather than handler construction. Set Level or Format before
// [Config.RegisterFlags] to change the flag defaults.
type Config struct {
	Flags  Flags
	Level  Level
	Format Format
}

// NewConfig returns a [Config] with the flag names --log-level and
// --log-format.
func NewConfig() *Config {
	return Flags{Level: "log-level", Format: "log-format"}.NewConfig()
}

// RegisterFlags adds logging flags to the given [*pflag.FlagSet], using the
// current values as defaults.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.Var(&c.Level, c.Flags.Level, fmt.Sprintf("log level, one of: %s", GetAllLevelStrings()))
	flags.Var(&c.Format, c.Flags.Format, fmt.Sprintf("log format, one of: %s", GetAllFormatStrings()))
}

// RegisterCompletions registers shell completions for log flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	for flag, values := range map[string][]string{
		c.Flags.Level:  GetAllLevelStrings(),
		c.Flags.Format: GetAllFormatStrings(),
	} {
		err := cmd.RegisterFlagCompletionFunc(flag,
			cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
		if err != nil {
			return fmt.Errorf("registering %s completion: %w", flag, err)
		}
	}

	return nil
}

// NewHandler creates a [Handler] writing to w at the configured level and
// format.
func (c *Config) NewHandler(w io.Writer) (Handler, error) {
	return NewHandlerFromStrings(w, string(c.Level), string(c.Format))
}

// DefaultFormat returns [FormatText] when f is a terminal and [FormatLogfmt]
// otherwise.
func DefaultFormat(f interface{ Fd() uintptr }) Format {
	if term.IsTerminal(int(f.Fd())) { //nolint:gosec // File descriptors fit in int.
		return FormatText
	}

	return FormatLogfmt
}

package heaptrack

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags holds CLI flag names for heaptrack configuration, allowing callers to
// customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	Output  string
	Raw     string
	Program string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags: f,
	}
}

// Config holds heaptrack options. A zero-value Config runs "heaptrack" from
// PATH with heaptrack's own defaults.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewProfiler] to create a [Profiler]
// that runs heaptrack.
type Config struct {
	Flags Flags

	// Output is the heaptrack data file (empty = heaptrack's default name).
	Output string
	// Program is the heaptrack executable. Empty means $HEAPTRACK, then
	// "heaptrack".
	Program string

	// Extra holds additional heaptrack options placed before the executable.
	Extra []string

	// Raw records data without interpreting it afterwards.
	Raw bool
}

// NewConfig creates a new [Config] with default flag names.
func NewConfig() *Config {
	f := Flags{
		Output:  "output",
		Raw:     "raw",
		Program: "heaptrack",
	}

	return f.NewConfig()
}

// RegisterFlags adds heaptrack flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&c.Output, c.Flags.Output, "o", "", "heaptrack output file")
	flags.BoolVar(&c.Raw, c.Flags.Raw, false, "only record raw data, do not interpret it")
	flags.StringVar(&c.Program, c.Flags.Program, "", "heaptrack executable (default $HEAPTRACK or heaptrack)")
}

// RegisterCompletions registers shell completions for heaptrack flags on cmd.
// Path flags use default file completion.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.Output,
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{"zst", "gz"}, cobra.ShellCompDirectiveFilterFileExt
		})
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Output, err)
	}

	return nil
}

// ProgramName returns the heaptrack executable to run.
func (c *Config) ProgramName() string {
	if c.Program != "" {
		return c.Program
	}

	if env := os.Getenv("HEAPTRACK"); env != "" {
		return env
	}

	return "heaptrack"
}

// NewProfiler creates a new [Profiler] using this [Config].
func (c *Config) NewProfiler() *Profiler {
	return &Profiler{
		Config: *c,
	}
}

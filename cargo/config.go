package cargo

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.jacobcolvin.com/cargo-heaptrack/process"
)

// anyTarget is the value --unit-test takes when given without a name.
const anyTarget = "*"

// Flags holds CLI flag names for cargo build configuration, allowing callers
// to customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	// Profile selection flag names.
	Dev     string
	Profile string
	Release string

	// Target selection flag names.
	Package  string
	Bin      string
	Example  string
	Test     string
	UnitTest string
	Bench    string

	// Build option flag names.
	ManifestPath      string
	Features          string
	NoDefaultFeatures string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags: f,
	}
}

// Config holds the cargo options of one invocation. A zero-value Config
// builds the only binary target of the current crate with the release
// profile.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewBuilder] to create a [Builder].
type Config struct {
	Flags Flags

	// Cargo is the cargo program. Empty means $CARGO, then "cargo".
	Cargo string

	Profile      string
	Package      string
	Bin          string
	Example      string
	Test         string
	Bench        string
	ManifestPath string
	Features     string

	UnitTest OptionalString

	Dev               bool
	NoDefaultFeatures bool
	// Release is accepted for compatibility with "cargo run --release" and
	// has no effect; release is the default profile.
	Release bool
}

// NewConfig returns a new [Config] with default flag names.
func NewConfig() *Config {
	f := Flags{
		Dev:               "dev",
		Profile:           "profile",
		Release:           "release",
		Package:           "package",
		Bin:               "bin",
		Example:           "example",
		Test:              "test",
		UnitTest:          "unit-test",
		Bench:             "bench",
		ManifestPath:      "manifest-path",
		Features:          "features",
		NoDefaultFeatures: "no-default-features",
	}

	return f.NewConfig()
}

// RegisterFlags adds cargo flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.BoolVar(&c.Dev, c.Flags.Dev, false, "build with the dev profile")
	flags.StringVar(&c.Profile, c.Flags.Profile, "", "build with the specified profile")
	flags.BoolVarP(&c.Release, c.Flags.Release, "r", false,
		"no-op, for compatibility with cargo run --release")

	flags.StringVarP(&c.Package, c.Flags.Package, "p", "", "package with the binary to run")
	flags.StringVarP(&c.Bin, c.Flags.Bin, "b", "", "binary to run")
	flags.StringVar(&c.Example, c.Flags.Example, "", "example to run")
	flags.StringVar(&c.Test, c.Flags.Test, "", "test binary to run")
	flags.Var(&c.UnitTest, c.Flags.UnitTest,
		"crate target to unit test; may be omitted if the crate only has one target")
	flags.Lookup(c.Flags.UnitTest).NoOptDefVal = anyTarget
	flags.StringVar(&c.Bench, c.Flags.Bench, "", "benchmark to run")

	flags.StringVar(&c.ManifestPath, c.Flags.ManifestPath, "", "path to Cargo.toml")
	flags.StringVarP(&c.Features, c.Flags.Features, "F", "", "build features to enable")
	flags.BoolVar(&c.NoDefaultFeatures, c.Flags.NoDefaultFeatures, false, "disable default features")
}

// RegisterCompletions registers shell completions for cargo flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.Profile,
		cobra.FixedCompletions([]string{"dev", "release", "test", "bench"}, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Profile, err)
	}

	err = cmd.RegisterFlagCompletionFunc(c.Flags.ManifestPath,
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{"toml"}, cobra.ShellCompDirectiveFilterFileExt
		})
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.ManifestPath, err)
	}

	noFileComp := func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	for _, flag := range []string{
		c.Flags.Package, c.Flags.Bin, c.Flags.Example, c.Flags.Test,
		c.Flags.UnitTest, c.Flags.Bench, c.Flags.Features,
	} {
		regErr := cmd.RegisterFlagCompletionFunc(flag, noFileComp)
		if regErr != nil {
			return fmt.Errorf("registering %s completion: %w", flag, regErr)
		}
	}

	return nil
}

// Selection returns the target chosen by the target flags. The zero
// [Selection] means no target flag was given.
func (c *Config) Selection() (Selection, error) {
	set := lo.Filter([]Selection{
		{Kind: KindBin, Name: c.Bin},
		{Kind: KindExample, Name: c.Example},
		{Kind: KindTest, Name: c.Test},
		{Kind: KindBench, Name: c.Bench},
	}, func(s Selection, _ int) bool {
		return s.Name != ""
	})

	if c.UnitTest.IsSet() {
		set = append(set, Selection{Kind: KindUnitTest, Name: c.UnitTest.Value()})
	}

	switch len(set) {
	case 0:
		return Selection{}, nil
	case 1:
		return set[0], nil
	}

	names := lo.Map(set, func(s Selection, _ int) string { return "--" + c.FlagName(s.Kind) })

	return Selection{}, fmt.Errorf("%w: %s cannot be used together",
		ErrInvalidOption, strings.Join(names, ", "))
}

// Select stores s in the target flags, replacing any previous target.
func (c *Config) Select(s Selection) {
	c.Bin, c.Example, c.Test, c.Bench = "", "", "", ""
	c.UnitTest = OptionalString{}

	switch s.Kind {
	case KindBin:
		c.Bin = s.Name
	case KindExample:
		c.Example = s.Name
	case KindTest:
		c.Test = s.Name
	case KindBench:
		c.Bench = s.Name
	case KindUnitTest:
		c.UnitTest = NewOptionalString(s.Name)
	}
}

// ProfileName returns the cargo profile the build uses.
func (c *Config) ProfileName() string {
	switch {
	case c.Profile != "":
		return c.Profile
	case c.Dev:
		return "dev"
	case c.Bench != "":
		return "bench"
	}

	return "release"
}

// Program returns the cargo executable to run.
func (c *Config) Program() string {
	if c.Cargo != "" {
		return c.Cargo
	}

	if env := os.Getenv("CARGO"); env != "" {
		return env
	}

	return "cargo"
}

// NewBuilder creates a new [Builder] using this [Config].
func (c *Config) NewBuilder(runner process.Runner) *Builder {
	return &Builder{
		Config: *c,
		runner: runner,
	}
}

// FlagName returns the name of the flag that selects targets of kind k.
func (c *Config) FlagName(k Kind) string {
	switch k {
	case KindBin:
		return c.Flags.Bin
	case KindExample:
		return c.Flags.Example
	case KindTest:
		return c.Flags.Test
	case KindBench:
		return c.Flags.Bench
	case KindUnitTest:
		return c.Flags.UnitTest
	}

	return string(k)
}

// OptionalString is a [pflag.Value] for flags whose value may be omitted.
type OptionalString struct {
	value string
	set   bool
}

// NewOptionalString returns a set [OptionalString] holding v. An empty v
// means the flag was given without a value.
func NewOptionalString(v string) OptionalString {
	return OptionalString{value: v, set: true}
}

// IsSet reports whether the flag was given.
func (o *OptionalString) IsSet() bool { return o.set }

// Value returns the flag's value, or "" when given without one.
func (o *OptionalString) Value() string { return o.value }

// String implements [pflag.Value].
func (o *OptionalString) String() string { return o.value }

// Type implements [pflag.Value].
func (o *OptionalString) Type() string { return "string" }

// Set implements [pflag.Value].
func (o *OptionalString) Set(v string) error {
	o.set = true
	o.value = v

	if v == anyTarget {
		o.value = ""
	}

	return nil
}

package launcher

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"go.jacobcolvin.com/cargo-heaptrack/cargo"
	"go.jacobcolvin.com/cargo-heaptrack/config"
	"go.jacobcolvin.com/cargo-heaptrack/heaptrack"
	"go.jacobcolvin.com/cargo-heaptrack/log"
	"go.jacobcolvin.com/cargo-heaptrack/process"
	"go.jacobcolvin.com/cargo-heaptrack/version"
)

// SubcommandName is the argument cargo inserts when it runs an external
// subcommand: "cargo heaptrack ..." executes "cargo-heaptrack heaptrack ...".
const SubcommandName = "heaptrack"

// Options configures [NewCommand].
type Options struct {
	Runner process.Runner
	Stdout io.Writer
	Stderr io.Writer

	// Dir is the directory the crate root is searched from. Empty means the
	// current working directory.
	Dir string

	// LogFormat is the default --log-format. Empty means text.
	LogFormat log.Format
}

// CargoArgs strips the subcommand name cargo passes to external subcommands.
// args excludes the program name.
func CargoArgs(args []string) []string {
	if len(args) > 0 && args[0] == SubcommandName {
		return args[1:]
	}

	return args
}

// NewCommand returns the root command of cargo-heaptrack.
func NewCommand(opts Options) *cobra.Command {
	if opts.Runner == nil {
		opts.Runner = process.NewExecRunner()
	}

	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	logCfg := log.NewConfig()
	if opts.LogFormat != "" {
		logCfg.Format = opts.LogFormat
	}

	cargoCfg := cargo.NewConfig()
	heaptrackCfg := heaptrack.NewConfig()

	var configPath string

	rootCmd := &cobra.Command{
		Use:   "cargo-heaptrack [flags] [BIN] [-- ARGS...]",
		Short: "Profile a cargo binary target with heaptrack",
		Long: `cargo-heaptrack builds a binary, example, test or benchmark target with cargo
and runs the resulting executable under heaptrack. Arguments after -- are
passed to the executable unchanged.

Without a target flag the only binary target of the current crate is used.
A single BIN argument is shorthand for --bin BIN.`,
		Example: `  cargo heaptrack
  cargo heaptrack my-server --release -- --port 8080
  cargo heaptrack --example demo --features jemalloc -o demo.heaptrack.zst`,
		Version:       version.String(),
		Args:          validateArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			handler, err := logCfg.NewHandler(opts.Stderr)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
			}

			slog.SetDefault(slog.New(handler))

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := newPlan(cmd, args, cargoCfg, heaptrackCfg, opts.Dir)
			if err != nil {
				return err
			}

			err = applyConfigFile(cmd, plan, configPath)
			if err != nil {
				return err
			}

			return New(opts.Runner, opts.Stderr).Run(cmd.Context(), plan)
		},
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	})

	rootCmd.SetOut(opts.Stdout)
	rootCmd.SetErr(opts.Stderr)

	logCfg.RegisterFlags(rootCmd.PersistentFlags())
	cargoCfg.RegisterFlags(rootCmd.Flags())
	heaptrackCfg.RegisterFlags(rootCmd.Flags())
	rootCmd.Flags().StringVar(&configPath, "config", "",
		fmt.Sprintf("settings file (default %s in the crate root)", config.FileNames[0]))

	for _, register := range []func(*cobra.Command) error{
		logCfg.RegisterCompletions,
		cargoCfg.RegisterCompletions,
		heaptrackCfg.RegisterCompletions,
	} {
		err := register(rootCmd)
		if err != nil {
			fmt.Fprintf(opts.Stderr, "register completions: %v\n", err)
		}
	}

	rootCmd.AddCommand(newSchemaCommand(), newVersionCommand())

	return rootCmd
}

// validateArgs allows at most one positional argument before "--".
func validateArgs(cmd *cobra.Command, args []string) error {
	n := len(args)
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		n = dash
	}

	if n > 1 {
		return fmt.Errorf("%w: expected at most one BIN argument before --, got %q",
			ErrInvalidArgument, strings.Join(args[:n], " "))
	}

	return nil
}

func newPlan(
	cmd *cobra.Command,
	args []string,
	cargoCfg *cargo.Config,
	heaptrackCfg *heaptrack.Config,
	dir string,
) (*Plan, error) {
	positional, trailing := args, []string(nil)
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		positional, trailing = args[:dash], args[dash:]
	}

	if len(positional) == 1 {
		sel, err := cargoCfg.Selection()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}

		switch {
		case sel.Kind == cargo.KindUnitTest && sel.Name == "":
			// pflag only binds "--unit-test=NAME"; "--unit-test NAME" leaves
			// the name as the positional argument.
			cargoCfg.Select(cargo.Selection{Kind: cargo.KindUnitTest, Name: positional[0]})
		case !sel.IsZero():
			return nil, fmt.Errorf("%w: BIN argument %q cannot be combined with --%s",
				ErrInvalidArgument, positional[0], cargoCfg.FlagName(sel.Kind))
		default:
			cargoCfg.Select(cargo.Selection{Kind: cargo.KindBin, Name: positional[0]})
		}
	}

	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}

		dir = wd
	}

	return &Plan{
		Cargo:     cargoCfg,
		Heaptrack: heaptrackCfg,
		Dir:       dir,
		Trailing:  trailing,
	}, nil
}

// applyConfigFile merges the settings file into plan. Command-line flags
// take precedence.
func applyConfigFile(cmd *cobra.Command, plan *Plan, path string) error {
	var (
		file *config.File
		err  error
	)

	if path != "" {
		file, err = config.Load(path)
	} else {
		// Without a crate root there is nothing to discover; cargo reports
		// the missing manifest itself.
		root, rootErr := cargo.FindCrateRoot(plan.Cargo.ManifestPath, plan.Dir)
		if rootErr != nil {
			return nil
		}

		file, path, err = config.Discover(root)
	}

	if err != nil {
		return err
	}

	if file == nil {
		return nil
	}

	slog.Debug("loaded settings", slog.String("path", path))

	changed := cmd.Flags().Changed
	file.ApplyCargo(plan.Cargo, changed)
	file.ApplyHeaptrack(plan.Heaptrack, changed)

	return nil
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := config.SchemaJSON()
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(out)

			return err
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), version.Details())

			return err
		},
	}
}

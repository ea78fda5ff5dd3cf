package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "text" | "json" | "yaml"
	ConfigPath string
	Database   string
	Ontology   []string
	Spans      bool

	// Set by the root command before any subcommand runs.
	Config     *Config
	ConfigFile string
	Logger     *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the rdql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rdql",
		Short: "RDQL - RDF query language compiler",
		Long: `Compile RDQL queries against an ontology into SQL over a generic
RDF store, and run them against a SQLite database.

Configuration is read from rdql.yaml (searched upward from the working
directory) and RDQL_* environment variables; flags take precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(opts, cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default: rdql.yaml, searched upward)")
	flags.StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	flags.StringSliceVar(&opts.Ontology, "ontology", nil, "additional CUE ontology file or directory (repeatable)")
	flags.BoolVar(&opts.Spans, "spans", false, "synthesize automatic spans")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewOntologyCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup validates global flags, loads the configuration and installs the
// default logger. Logs go to the command's stderr so structured output on
// stdout stays parseable.
func setup(opts *RootOptions, cmd *cobra.Command) error {
	if !isValidFormat(opts.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
	}

	cfg, path, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": loading config", err)
	}
	opts.Config = cfg
	opts.ConfigFile = path

	level, _ := cfg.Level() // validated by LoadConfig
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	opts.Logger = slog.New(handler)
	slog.SetDefault(opts.Logger)

	if path != "" {
		opts.Logger.Debug("config loaded", "path", path)
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting structured output
		Verbose:   opts.Verbose,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rdql/internal/harness"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	DataFiles []string
}

// LoadSummary is the structured output of the load command.
type LoadSummary struct {
	Database   string   `json:"database" yaml:"database"`
	Files      []string `json:"files,omitempty" yaml:"files,omitempty"`
	Namespaces int      `json:"namespaces" yaml:"namespaces"`
	Concepts   int      `json:"concepts" yaml:"concepts"`
	Predicates int      `json:"predicates" yaml:"predicates"`
	Spans      int      `json:"spans" yaml:"spans"`
	Resources  int      `json:"resources" yaml:"resources"`
	Statements int      `json:"statements" yaml:"statements"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load [ontology-path...]",
		Short: "Store an ontology and RDF data in the database",
		Long: `Compile CUE ontology files and store the resulting ontology in the
database, creating the database if needed.

The ontology is built from the core vocabulary, the configured ontology
files and the paths given as arguments. Elements already stored are left
unchanged, so loading the same ontology twice is a no-op.

Data files use the format of a scenario's data section:

  resources:
    - { uri: "urn:c1", type: "tmp:C" }
  statements:
    - { subject: "urn:c1", predicate: "tmp:P", object: "hello" }

Examples:
  rdql load --db ./data.db ./ontology
  rdql load --db ./data.db --spans ./ontology --data people.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.DataFiles, "data", nil, "YAML data file to load (repeatable)")

	return cmd
}

func runLoad(opts *LoadOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	// Arguments are extra ontology sources.
	envOpts := *opts.RootOptions
	envOpts.Ontology = append(append([]string{}, opts.Ontology...), args...)

	var data []*harness.Data
	for _, path := range opts.DataFiles {
		d, err := harness.LoadDataFile(path)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, "reading data file "+path, err)
		}
		data = append(data, d)
	}

	env, err := openEnvironment(ctx, &envOpts, loadEnv)
	if err != nil {
		return envFailure(formatter, err)
	}
	defer env.Close()

	if err := env.Store.SaveOntology(ctx, env.Registry); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "saving ontology", err)
	}

	summary := LoadSummary{
		Database:   opts.Config.ResolvedDatabase(opts.Database),
		Files:      env.Files,
		Namespaces: len(env.Registry.Namespaces()),
		Concepts:   len(env.Registry.Concepts()),
		Predicates: len(env.Registry.Predicates()),
		Spans:      env.Spans,
	}

	for i, d := range data {
		if err := harness.LoadData(ctx, env.Store, env.Registry, d); err != nil {
			return formatter.Fail(ExitFailure, ErrCodeDatabase, "loading "+opts.DataFiles[i], err)
		}
		summary.Resources += len(d.Resources)
		summary.Statements += len(d.Statements)
	}

	if formatter.Structured() {
		return formatter.Success(summary)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Stored ontology in %s\n", summary.Database)
	fmt.Fprintf(w, "  %d namespace(s), %d concept(s), %d predicate(s)\n",
		summary.Namespaces, summary.Concepts, summary.Predicates)
	if summary.Spans > 0 {
		fmt.Fprintf(w, "  %d span(s) synthesized\n", summary.Spans)
	}
	if len(data) > 0 {
		fmt.Fprintf(w, "  %d resource(s), %d statement(s) loaded\n", summary.Resources, summary.Statements)
	}
	for _, f := range summary.Files {
		formatter.VerboseLog("loaded %s", f)
	}
	return nil
}

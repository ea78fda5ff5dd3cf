package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rdql/internal/query"
	"github.com/roach88/rdql/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	File  string // read the query from a file ("-" for stdin)
	Count bool   // also print the count SQL in text output
}

// CompilationResult is the structured output of a compilation.
type CompilationResult struct {
	ID      string       `json:"id" yaml:"id"`
	Query   string       `json:"query" yaml:"query"`
	Select  string       `json:"select" yaml:"select"`
	Count   string       `json:"count" yaml:"count"`
	Range   string       `json:"range,omitempty" yaml:"range,omitempty"`
	Limit   *int64       `json:"limit,omitempty" yaml:"limit,omitempty"`
	Offset  *int64       `json:"offset,omitempty" yaml:"offset,omitempty"`
	Columns []ColumnInfo `json:"columns" yaml:"columns"`
}

// ColumnInfo describes one output column.
type ColumnInfo struct {
	Key       string `json:"key" yaml:"key"`
	Mangled   string `json:"mangled" yaml:"mangled"`
	Predicate string `json:"predicate" yaml:"predicate"`
	Range     string `json:"range" yaml:"range"`
}

// QueryErrorDetails locates a compilation error.
type QueryErrorDetails struct {
	CompilationID string `json:"compilation_id" yaml:"compilation_id"`
	Phase         string `json:"phase" yaml:"phase"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [query]",
		Short: "Compile an RDQL query to SQL",
		Long: `Compile an RDQL query against the configured ontology and print the
generated SQL. The query is read from the argument, from --file, or from
stdin when neither is given.

Examples:
  rdql compile 'select c.tmp:P from tmp:C c using tmp for "http://tmp/tmp#"'
  rdql compile --file query.rdql --count
  rdql compile --ontology ./ontology --format json < query.rdql`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the query from a file (- for stdin)")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "also print the count SQL")

	return cmd
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	src, err := readQuery(args, opts.File, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNoQuery, "reading query", err)
	}

	env, err := openEnvironment(cmd.Context(), opts.RootOptions, compileEnv)
	if err != nil {
		return envFailure(formatter, err)
	}
	defer env.Close()

	q, err := compileQuery(opts.RootOptions, env, src)
	if err != nil {
		return queryFailure(formatter, err)
	}

	result := newCompilationResult(q)
	if formatter.Structured() {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, result.Select)
	if opts.Count {
		fmt.Fprintln(formatter.Writer, result.Count)
	}
	formatter.VerboseLog("compilation %s: %d column(s)", result.ID, len(result.Columns))
	return nil
}

// readQuery returns the query text from the first argument, from file, or
// from stdin.
func readQuery(args []string, file string, stdin io.Reader) (string, error) {
	var src string
	switch {
	case len(args) > 0 && file != "":
		return "", errors.New("give the query as an argument or with --file, not both")
	case len(args) > 0:
		src = args[0]
	case file != "" && file != "-":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		src = string(data)
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		src = string(data)
	}
	src = strings.TrimSpace(src)
	if src == "" {
		return "", errors.New("empty query")
	}
	return src, nil
}

func compileQuery(opts *RootOptions, env *Environment, src string) (*query.Query, error) {
	var compilerOpts []query.Option
	if opts.Logger != nil {
		compilerOpts = append(compilerOpts, query.WithLogger(opts.Logger))
	}
	return query.NewCompiler(env.Registry, compilerOpts...).Compile(src)
}

func newCompilationResult(q *query.Query) CompilationResult {
	stmt := q.Statement
	return CompilationResult{
		ID:      q.ID,
		Query:   q.Source,
		Select:  stmt.Select,
		Count:   stmt.Count,
		Range:   stmt.Range,
		Limit:   stmt.Limit,
		Offset:  stmt.Offset,
		Columns: columnInfos(stmt.Columns),
	}
}

func columnInfos(columns []querysql.Column) []ColumnInfo {
	out := make([]ColumnInfo, len(columns))
	for i, c := range columns {
		out[i] = ColumnInfo{Key: c.Key, Mangled: c.Mangled}
		if c.Predicate != nil {
			out[i].Predicate = c.Predicate.Code()
			if c.Predicate.Range != nil {
				out[i].Range = c.Predicate.Range.Code()
			}
		}
	}
	return out
}

// queryFailure outputs a compilation error with its error code. A failed
// query is a failure (exit 1), not a command error.
func queryFailure(f *OutputFormatter, err error) error {
	code := ErrorCode(err)
	var details any
	message := err.Error()
	var qerr *query.Error
	if errors.As(err, &qerr) {
		details = &QueryErrorDetails{CompilationID: qerr.CompilationID, Phase: string(qerr.Phase)}
		message = qerr.Err.Error()
	}

	_ = f.Error(code, message, details)
	exitErr := WrapExitError(ExitFailure, code+": compilation failed", err)
	exitErr.Reported = true
	return exitErr
}

package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/spf13/cobra"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	File      string
	CountOnly bool
}

// QueryResult is the structured output of an executed query.
type QueryResult struct {
	ID      string           `json:"id" yaml:"id"`
	Select  string           `json:"select" yaml:"select"`
	Columns []string         `json:"columns" yaml:"columns"`
	Count   int64            `json:"count" yaml:"count"`
	Rows    []map[string]any `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [query]",
		Short: "Compile and run an RDQL query against the database",
		Long: `Compile an RDQL query against the ontology stored in the database and
print the matching rows.

Exit codes:
  0 - Query ran
  1 - Query did not compile or failed to run
  2 - Command error (no database, unreadable ontology, etc.)

Examples:
  rdql query --db ./data.db 'select c.rdf:about from tmp:C c'
  rdql query --count-only --file query.rdql
  rdql query --format json < query.rdql`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the query from a file (- for stdin)")
	cmd.Flags().BoolVar(&opts.CountOnly, "count-only", false, "print only the number of matching rows")

	return cmd
}

func runQuery(opts *QueryOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	src, err := readQuery(args, opts.File, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNoQuery, "reading query", err)
	}

	ctx := cmd.Context()
	env, err := openEnvironment(ctx, opts.RootOptions, queryEnv)
	if err != nil {
		return envFailure(formatter, err)
	}
	defer env.Close()

	q, err := compileQuery(opts.RootOptions, env, src)
	if err != nil {
		return queryFailure(formatter, err)
	}
	stmt := q.Statement

	result := QueryResult{ID: q.ID, Select: stmt.Select}
	for _, c := range stmt.Columns {
		result.Columns = append(result.Columns, c.Key)
	}

	if result.Count, err = env.Store.Count(ctx, stmt); err != nil {
		return formatter.Fail(ExitFailure, ErrCodeDatabase, "counting rows", err)
	}

	if !opts.CountOnly {
		rows, err := env.Store.Collect(ctx, stmt)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeDatabase, "reading rows", err)
		}
		result.Rows = make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			m := row.Map()
			for k, v := range m {
				m[k] = displayValue(v)
			}
			result.Rows = append(result.Rows, m)
		}
	}

	if formatter.Structured() {
		return formatter.Success(result)
	}
	if opts.CountOnly {
		fmt.Fprintln(formatter.Writer, result.Count)
		return nil
	}
	return writeRowsText(formatter, result)
}

// writeRowsText prints rows as an aligned table followed by the row count.
func writeRowsText(f *OutputFormatter, result QueryResult) error {
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(result.Columns))
		for i, key := range result.Columns {
			cells[i] = fmt.Sprint(row[key])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	noun := "rows"
	if result.Count == 1 {
		noun = "row"
	}
	fmt.Fprintf(f.Writer, "(%d %s)\n", result.Count, noun)
	return nil
}

// displayValue converts a decoded column value to its printed form.
func displayValue(v any) any {
	switch x := v.(type) {
	case *apd.Decimal:
		return x.Text('f')
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case time.Duration:
		return x.String()
	default:
		return v
	}
}

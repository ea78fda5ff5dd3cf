// Command rdql compiles RDQL queries into SQL over a generic RDF store.
//
// Usage:
//
//	rdql [flags] <command>
//
// Commands:
//   - compile: print the SQL for a query
//   - query: compile a query and run it against a SQLite database
//   - load: store a CUE ontology and RDF data in a database
//   - ontology: list the namespaces, concepts and predicates in scope
//   - test: run YAML query scenarios
//
// Configuration is read from rdql.yaml and RDQL_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/rdql/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}

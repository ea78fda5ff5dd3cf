package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/rdql/internal/ontology"
	"github.com/roach88/rdql/internal/query"
	"github.com/roach88/rdql/internal/querysql"
	"github.com/roach88/rdql/internal/rdql"
	"github.com/roach88/rdql/internal/resolver"
	"github.com/roach88/rdql/internal/schema"
	"github.com/roach88/rdql/internal/store"
	"github.com/roach88/rdql/internal/testutil"
)

// Compilation phases, as named in scenario files.
const (
	PhaseParse    = string(query.PhaseParse)
	PhaseResolve  = string(query.PhaseResolve)
	PhaseGenerate = string(query.PhaseGenerate)
)

// Error kinds returned by ErrorKind.
const (
	KindLex          = "lex"
	KindParse        = "parse"
	KindConflict     = "conflict"
	KindNoResolution = "no_resolution"
	KindResolver     = "resolver"
	KindGeneration   = "generation"
	KindUnknown      = "unknown"
)

func isKnownKind(k string) bool {
	switch k {
	case KindLex, KindParse, KindConflict, KindNoResolution, KindResolver, KindGeneration:
		return true
	}
	return false
}

// ErrorKind classifies a compilation error.
func ErrorKind(err error) string {
	switch {
	case rdql.IsLexError(err):
		return KindLex
	case rdql.IsParseError(err):
		return KindParse
	case rdql.IsConflict(err):
		return KindConflict
	case resolver.IsNoResolution(err):
		return KindNoResolution
	case resolver.IsResolverError(err):
		return KindResolver
	case querysql.IsGenerationError(err):
		return KindGeneration
	default:
		return KindUnknown
	}
}

// CompilationID is the fixed compilation ID of every harness run.
const CompilationID = "harness"

// Harness runs one scenario. Each run builds its own registry and, when the
// scenario has data, its own in-memory store.
type Harness struct {
	registry *ontology.Registry
	compiler *query.Compiler
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Build a registry from the core vocabulary and the scenario's ontology files
//  2. Synthesize spans if requested
//  3. Compile the query
//  4. If the scenario has data: load it into a fresh in-memory store, count and collect
//  5. Compare everything against the scenario's expectations
//
// An error is returned only when the scenario itself cannot be set up, for
// example a broken ontology file or data that does not fit the ontology. A
// query that fails to compile is a result, checked against expect.error.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with compiler and harness logging sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	registry, err := ontology.NewCore()
	if err != nil {
		return nil, fmt.Errorf("failed to build core vocabulary: %w", err)
	}
	if len(scenario.Ontology) > 0 {
		if _, err := schema.Load(registry, scenario.Ontology...); err != nil {
			return nil, fmt.Errorf("failed to load ontology: %w", err)
		}
	}
	if scenario.Spans {
		spans, err := ontology.SynthesizeSpans(registry)
		if err != nil {
			return nil, fmt.Errorf("failed to synthesize spans: %w", err)
		}
		logger.Debug("spans synthesized", "scenario", scenario.Name, "count", len(spans))
	}

	h := &Harness{
		registry: registry,
		compiler: query.NewCompiler(registry,
			query.WithLogger(logger),
			query.WithIDGenerator(testutil.NewFixedIDGenerator(CompilationID)),
		),
		logger: logger,
	}

	result := NewResult()
	result.CompilationID = CompilationID

	compiled, err := h.compiler.Compile(scenario.Query)
	if err != nil {
		result.Error = errorOutcome(err)
	} else {
		result.Select = compiled.Statement.Select
		result.Count = compiled.Statement.Count
		for _, c := range compiled.Statement.Columns {
			result.Columns = append(result.Columns, c.Key)
		}
	}

	if compiled != nil && scenario.Data != nil {
		if err := h.execute(context.Background(), scenario.Data, compiled.Statement, result); err != nil {
			return nil, err
		}
	}

	for _, msg := range EvaluateExpectations(result, scenario.Expect) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"errors", len(result.Errors),
	)
	return result, nil
}

func errorOutcome(err error) *ErrorOutcome {
	out := &ErrorOutcome{Kind: ErrorKind(err), Message: err.Error()}
	var qerr *query.Error
	if errors.As(err, &qerr) {
		out.Phase = string(qerr.Phase)
		out.Message = qerr.Err.Error()
	}
	return out
}

// execute loads data into a fresh in-memory store and runs stmt against it.
func (h *Harness) execute(ctx context.Context, data *Data, stmt *querysql.Statement, result *Result) error {
	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.SaveOntology(ctx, h.registry); err != nil {
		return fmt.Errorf("failed to save ontology: %w", err)
	}
	if err := LoadData(ctx, st, h.registry, data); err != nil {
		return err
	}

	n, err := st.Count(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to count rows: %w", err)
	}
	result.RowCount = &n

	rows, err := st.Collect(ctx, stmt)
	if err != nil {
		return fmt.Errorf("failed to collect rows: %w", err)
	}
	result.Rows = make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		m := row.Map()
		for k, v := range m {
			m[k] = normalizeValue(v)
		}
		result.Rows = append(result.Rows, m)
	}
	return nil
}

// LoadData writes the resources and then the statements of data into st.
// Concept and predicate codes are resolved against r.
func LoadData(ctx context.Context, st *store.Store, r *ontology.Registry, data *Data) error {
	for i, res := range data.Resources {
		typ, err := conceptByCode(r, res.Type)
		if err != nil {
			return fmt.Errorf("data.resources[%d]: %w", i, err)
		}
		if _, _, err := st.AddResource(ctx, res.URI, typ); err != nil {
			return fmt.Errorf("data.resources[%d]: %w", i, err)
		}
	}

	for i, s := range data.Statements {
		subject, err := st.ResourceID(ctx, s.Subject)
		if err != nil {
			return fmt.Errorf("data.statements[%d]: subject: %w", i, err)
		}
		pred, err := predicateByCode(r, s.Predicate)
		if err != nil {
			return fmt.Errorf("data.statements[%d]: %w", i, err)
		}

		object := s.Object
		if !pred.Literal() {
			uri, ok := s.Object.(string)
			if !ok {
				return fmt.Errorf("data.statements[%d]: object of %s must be a resource uri", i, pred.Code())
			}
			if object, err = st.ResourceID(ctx, uri); err != nil {
				return fmt.Errorf("data.statements[%d]: object: %w", i, err)
			}
		}
		if _, err := st.AddStatement(ctx, subject, pred, object); err != nil {
			return fmt.Errorf("data.statements[%d]: %w", i, err)
		}
	}
	return nil
}

func conceptByCode(r *ontology.Registry, code string) (*ontology.Concept, error) {
	nsCode, name, err := ontology.SplitCode(code)
	if err != nil {
		return nil, err
	}
	ns, err := r.NamespaceByCode(nsCode)
	if err != nil {
		return nil, err
	}
	return r.Concept(ns, name)
}

func predicateByCode(r *ontology.Registry, code string) (*ontology.Predicate, error) {
	nsCode, name, err := ontology.SplitCode(code)
	if err != nil {
		return nil, err
	}
	ns, err := r.NamespaceByCode(nsCode)
	if err != nil {
		return nil, err
	}
	return r.Predicate(ns, name)
}

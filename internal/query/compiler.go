// Package query is the RDQL compile pipeline: lex and parse, resolve
// against an ontology, generate SQL.
package query

import (
	"fmt"
	"log/slog"

	"github.com/roach88/rdql/internal/ontology"
	"github.com/roach88/rdql/internal/querysql"
	"github.com/roach88/rdql/internal/rdql"
	"github.com/roach88/rdql/internal/resolver"
)

// Phase names a stage of the pipeline.
type Phase string

const (
	PhaseParse    Phase = "parse"
	PhaseResolve  Phase = "resolve"
	PhaseGenerate Phase = "generate"
)

// Error wraps the first failure of a compilation with the phase it
// happened in. The underlying LexError, ParseError, ResolverError,
// NoResolution or GenerationError stays reachable through errors.As.
type Error struct {
	CompilationID string
	Phase         Phase
	Err           error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Query is a compiled RDQL query.
type Query struct {
	ID        string              `json:"id"`
	Source    string              `json:"source"`
	AST       *rdql.Query         `json:"-"`
	Statement *querysql.Statement `json:"statement"`
}

// Compiler compiles RDQL text against an ontology.
//
// A Compiler holds no per-query state. Each Compile call gets its own AST
// and its own memo of ontology lookups, so concurrent calls never see each
// other's bindings. It is safe for concurrent use when its Lookup is.
type Compiler struct {
	lookup    ontology.Lookup
	logger    *slog.Logger
	ids       IDGenerator
	generator *querysql.Generator
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIDGenerator sets the compilation ID generator. Default: UUIDv7Generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(c *Compiler) {
		if ids != nil {
			c.ids = ids
		}
	}
}

// NewCompiler creates a compiler reading metadata from lookup.
func NewCompiler(lookup ontology.Lookup, opts ...Option) *Compiler {
	c := &Compiler{
		lookup:    lookup,
		logger:    slog.Default(),
		ids:       UUIDv7Generator{},
		generator: querysql.NewGenerator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile runs the whole pipeline on src. The first error aborts the
// compilation and is returned as an *Error.
func (c *Compiler) Compile(src string) (*Query, error) {
	id := c.ids.Generate()
	log := c.logger.With("compilation_id", id)

	ast, err := rdql.Parse(src)
	if err != nil {
		return nil, c.fail(log, id, PhaseParse, err)
	}
	log.Debug("query parsed",
		"variables", ast.Variables.Len(),
		"projections", len(ast.Projections),
		"constraints", len(ast.Constraints),
	)

	if err := resolver.New(ontology.NewMemo(c.lookup)).Resolve(ast); err != nil {
		return nil, c.fail(log, id, PhaseResolve, err)
	}
	log.Debug("query resolved",
		"variables", ast.Variables.Len(),
		"constraints", len(ast.Constraints),
	)

	stmt, err := c.generator.Generate(ast)
	if err != nil {
		return nil, c.fail(log, id, PhaseGenerate, err)
	}
	log.Debug("sql generated", "sql", stmt.Select)

	return &Query{ID: id, Source: src, AST: ast, Statement: stmt}, nil
}

func (c *Compiler) fail(log *slog.Logger, id string, phase Phase, err error) error {
	log.Warn("compilation failed", "phase", string(phase), "error", err)
	return &Error{CompilationID: id, Phase: phase, Err: err}
}

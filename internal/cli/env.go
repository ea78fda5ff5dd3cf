package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/rdql/internal/ontology"
	"github.com/roach88/rdql/internal/schema"
	"github.com/roach88/rdql/internal/store"
)

// Environment is the ontology and, optionally, the database a command runs
// against.
type Environment struct {
	Registry *ontology.Registry
	Store    *store.Store // nil when no database is configured
	Files    []string     // CUE files loaded
	Spans    int          // automatic spans synthesized
}

// Close releases the database, if any.
func (e *Environment) Close() error {
	if e.Store == nil {
		return nil
	}
	return e.Store.Close()
}

// EnvError is a failure to set up the environment. Code is one of the
// ErrCode constants.
type EnvError struct {
	Code    string
	Message string
	Err     error
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *EnvError) Unwrap() error {
	return e.Err
}

// envMode selects how openEnvironment builds the registry.
type envMode struct {
	requireStore bool // fail when no database is configured
	ignoreStored bool // build from sources even if the database holds an ontology
}

var (
	compileEnv = envMode{}
	queryEnv   = envMode{requireStore: true}
	loadEnv    = envMode{requireStore: true, ignoreStored: true}
)

// openEnvironment builds the registry a command compiles against.
//
// With a database, the ontology stored in it is loaded first. Configured
// ontology files are loaded only when the database holds no ontology yet,
// since a stored ontology already contains them once "rdql load" has run.
// Files given with --ontology are always loaded on top. Without any stored
// ontology the registry starts from the core vocabulary. With ignoreStored
// the stored ontology is not read and the registry is always built from the
// core vocabulary and the files.
func openEnvironment(ctx context.Context, opts *RootOptions, mode envMode) (*Environment, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = &Config{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	env := &Environment{}
	dbPath := cfg.ResolvedDatabase(opts.Database)
	if dbPath == "" && mode.requireStore {
		return nil, &EnvError{Code: ErrCodeDatabase, Message: "no database configured", Err: fmt.Errorf("set database in rdql.yaml, RDQL_DATABASE or --db")}
	}

	var stored *ontology.Registry
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, &EnvError{Code: ErrCodeDatabase, Message: "opening database", Err: err}
		}
		env.Store = st
		logger.Debug("database opened", "path", dbPath)

		if !mode.ignoreStored {
			if stored, err = st.LoadOntology(ctx); err != nil {
				env.Close()
				return nil, &EnvError{Code: ErrCodeDatabase, Message: "loading stored ontology", Err: err}
			}
		}
	}

	var paths []string
	if stored != nil && len(stored.Namespaces()) > 0 {
		env.Registry = stored
		logger.Debug("stored ontology loaded",
			"namespaces", len(stored.Namespaces()),
			"concepts", len(stored.Concepts()),
			"predicates", len(stored.Predicates()),
		)
	} else {
		core, err := ontology.NewCore()
		if err != nil {
			env.Close()
			return nil, &EnvError{Code: ErrCodeOntology, Message: "building core vocabulary", Err: err}
		}
		env.Registry = core
		paths = append(paths, cfg.Ontology...)
	}
	paths = append(paths, opts.Ontology...)

	if len(paths) > 0 {
		for _, p := range paths {
			if _, err := os.Stat(p); err != nil {
				env.Close()
				return nil, &EnvError{Code: ErrCodeNotFound, Message: "ontology source not found", Err: err}
			}
		}
		res, err := schema.Load(env.Registry, paths...)
		if err != nil {
			env.Close()
			return nil, &EnvError{Code: ErrCodeOntology, Message: "loading ontology", Err: err}
		}
		env.Files = res.Files
		logger.Debug("ontology loaded",
			"files", len(res.Files),
			"concepts", len(res.Concepts),
			"predicates", len(res.Predicates),
		)
	}

	if cfg.Spans || opts.Spans {
		spans, err := ontology.SynthesizeSpans(env.Registry)
		if err != nil {
			env.Close()
			return nil, &EnvError{Code: ErrCodeOntology, Message: "synthesizing spans", Err: err}
		}
		env.Spans = len(spans)
		logger.Debug("spans synthesized", "count", len(spans))
	}

	return env, nil
}

// envFailure outputs an environment error and returns the command error.
func envFailure(f *OutputFormatter, err error) error {
	var envErr *EnvError
	if errors.As(err, &envErr) {
		return f.Fail(ExitCommandError, envErr.Code, envErr.Message, envErr.Err)
	}
	return f.Fail(ExitCommandError, ErrCodeGeneric, "setting up", err)
}

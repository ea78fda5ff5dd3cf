package query

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdql/internal/querysql"
	"github.com/roach88/rdql/internal/rdql"
	"github.com/roach88/rdql/internal/resolver"
	"github.com/roach88/rdql/internal/testutil"
)

const scenarioQuery = `select c.tmp:P from tmp:C c using tmp for "http://tmp/tmp#"`

const scenarioSQL = "select c__tmp__P__o.value from rdf_resource c, rdf_statement c__tmp__P__s, rdf_string c__tmp__P__o " +
	"where c.type_id = 1001 and c__tmp__P__s.subject_id = c.id and c__tmp__P__s.predicate_id = 2001 " +
	"and c__tmp__P__s.id = c__tmp__P__o.statement_id"

func newTestCompiler(t *testing.T, logs *bytes.Buffer) *Compiler {
	t.Helper()
	o := testutil.LiteralScenario(t)
	opts := []Option{WithIDGenerator(testutil.NewFixedIDGenerator(""))}
	if logs != nil {
		opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}
	return NewCompiler(o.Registry, opts...)
}

func TestCompile_LiteralProjection(t *testing.T) {
	c := newTestCompiler(t, nil)

	q, err := c.Compile(scenarioQuery)
	require.NoError(t, err)

	assert.Equal(t, "test-compilation", q.ID)
	assert.Equal(t, scenarioQuery, q.Source)
	require.NotNil(t, q.AST)
	require.NotNil(t, q.Statement)
	assert.Equal(t, scenarioSQL, q.Statement.Select)
	assert.Equal(t, "select count(*) from rdf_resource c, rdf_statement c__tmp__P__s, rdf_string c__tmp__P__o "+
		"where c.type_id = 1001 and c__tmp__P__s.subject_id = c.id and c__tmp__P__s.predicate_id = 2001 "+
		"and c__tmp__P__s.id = c__tmp__P__o.statement_id", q.Statement.Count)
}

func TestCompile_Range(t *testing.T) {
	c := newTestCompiler(t, nil)

	q, err := c.Compile(scenarioQuery + " limit 10 offset 20")
	require.NoError(t, err)

	assert.Equal(t, scenarioSQL+" limit 10 offset 20", q.Statement.Select)
	require.NotNil(t, q.Statement.Limit)
	assert.Equal(t, int64(10), *q.Statement.Limit)
	require.NotNil(t, q.Statement.Offset)
	assert.Equal(t, int64(20), *q.Statement.Offset)
}

func TestCompile_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		src   string
		phase Phase
		check func(error) bool
	}{
		{
			name:  "lex",
			src:   `select c.tmp:P from tmp:C c using tmp for "http://tmp/tmp#" #`,
			phase: PhaseParse,
			check: rdql.IsLexError,
		},
		{
			name:  "parse",
			src:   `select from tmp:C c`,
			phase: PhaseParse,
			check: rdql.IsParseError,
		},
		{
			name:  "unknown predicate",
			src:   `select c.tmp:Nope from tmp:C c using tmp for "http://tmp/tmp#"`,
			phase: PhaseResolve,
			check: resolver.IsNoResolution,
		},
		{
			name: "unsupported projection",
			src: `select c.rdf:type from tmp:C c ` +
				`using tmp for "http://tmp/tmp#", rdf for "http://www.w3.org/1999/02/22-rdf-syntax-ns#"`,
			phase: PhaseGenerate,
			check: func(err error) bool { return errors.Is(err, querysql.ErrUnsupportedProjection) },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestCompiler(t, nil)

			q, err := c.Compile(tc.src)
			require.Error(t, err)
			assert.Nil(t, q)

			var qerr *Error
			require.ErrorAs(t, err, &qerr)
			assert.Equal(t, tc.phase, qerr.Phase)
			assert.Equal(t, "test-compilation", qerr.CompilationID)
			assert.True(t, tc.check(err), "unexpected error type: %v", err)
		})
	}
}

func TestCompile_Logging(t *testing.T) {
	var logs bytes.Buffer
	c := newTestCompiler(t, &logs)

	_, err := c.Compile(scenarioQuery)
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, `msg="query parsed"`)
	assert.Contains(t, out, `msg="query resolved"`)
	assert.Contains(t, out, `msg="sql generated"`)
	assert.Contains(t, out, "compilation_id=test-compilation")
}

func TestCompile_LogsFailure(t *testing.T) {
	var logs bytes.Buffer
	c := newTestCompiler(t, &logs)

	_, err := c.Compile(`select from`)
	require.Error(t, err)

	out := logs.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="compilation failed"`)
	assert.Contains(t, out, "phase=parse")
	assert.NotContains(t, out, "query parsed")
}

// Compilations against a shared registry keep their bindings apart.
func TestCompile_Concurrent(t *testing.T) {
	c := newTestCompiler(t, nil)

	const n = 16
	var wg sync.WaitGroup
	results := make([]*Query, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.Compile(scenarioQuery)
		}()
	}
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, scenarioSQL, results[i].Statement.Select)
		if i > 0 {
			assert.NotSame(t, results[0].AST, results[i].AST)
		}
	}
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14], "version nibble")
}

func TestNewCompiler_NilOptionsKeepDefaults(t *testing.T) {
	o := testutil.LiteralScenario(t)
	c := NewCompiler(o.Registry, WithLogger(nil), WithIDGenerator(nil))

	assert.NotNil(t, c.logger)
	assert.IsType(t, UUIDv7Generator{}, c.ids)
}

package querysql

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdql/internal/rdql"
	"github.com/roach88/rdql/internal/resolver"
	"github.com/roach88/rdql/internal/testutil"
)

const (
	scenarioQuery = `select c.tmp:P from tmp:C c using tmp for "http://tmp/tmp#"`
	chainQuery    = `select c.rdf:about, e.rdf:about from tmp:C c, tmp:D d, tmp:E e ` +
		`where c tmp:P d and d tmp:Q e ` +
		`using tmp for "http://tmp/tmp#", rdf for "http://www.w3.org/1999/02/22-rdf-syntax-ns#"`
)

// resolve parses src and runs every resolver phase against o.
func resolve(t *testing.T, o *testutil.Ontology, src string) *rdql.Query {
	t.Helper()
	q, err := rdql.Parse(src)
	require.NoError(t, err)
	require.NoError(t, resolver.New(o.Registry).Resolve(q))
	return q
}

func generate(t *testing.T, o *testutil.Ontology, src string) *Statement {
	t.Helper()
	stmt, err := NewGenerator().Generate(resolve(t, o, src))
	require.NoError(t, err)
	return stmt
}

func TestGenerate_GoldenSQL(t *testing.T) {
	testCases := []struct {
		name     string
		ontology func(testing.TB) *testutil.Ontology
		query    string
	}{
		{"literal_projection", testutil.LiteralScenario, scenarioQuery},
		{"resource_projection", testutil.ResourceScenario, scenarioQuery},
		{"chain", testutil.ChainScenario, chainQuery},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stmt := generate(t, tc.ontology(t), tc.query)
			g.Assert(t, tc.name, []byte(fmt.Sprintf("select: %s\ncount: %s\n", stmt.Select, stmt.Count)))
		})
	}
}

func TestGenerate_LiteralProjection(t *testing.T) {
	stmt := generate(t, testutil.LiteralScenario(t), scenarioQuery)

	assert.Equal(t,
		"select c__tmp__P__o.value from rdf_resource c, rdf_statement c__tmp__P__s, rdf_string c__tmp__P__o "+
			"where c.type_id = 1001 and c__tmp__P__s.subject_id = c.id and c__tmp__P__s.predicate_id = 2001 "+
			"and c__tmp__P__s.id = c__tmp__P__o.statement_id",
		stmt.Select)
	assert.Empty(t, stmt.Range)

	require.Len(t, stmt.Columns, 1)
	col := stmt.Columns[0]
	assert.Equal(t, "c.tmp:P", col.Key)
	assert.Equal(t, "c__tmp__P", col.Mangled)
	assert.Equal(t, "tmp:P", col.Predicate.Code())
	assert.Equal(t, "xs:string", col.Predicate.Range.Code())
	assert.Equal(t, "drdfs:_xsstringvalue", col.Source.Code())
	assert.Equal(t, "rdf_string", col.Source.Range.Table)
}

func TestGenerate_ResourceProjection(t *testing.T) {
	stmt := generate(t, testutil.ResourceScenario(t), scenarioQuery)

	assert.Equal(t,
		"select c__tmp__P__o.name from rdf_resource c, rdf_statement c__tmp__P__s, rdf_resource c__tmp__P__o "+
			"where c.type_id = 1001 and c__tmp__P__s.subject_id = c.id and c__tmp__P__s.predicate_id = 2001 "+
			"and c__tmp__P__s.object_resource_id = c__tmp__P__o.id",
		stmt.Select)

	require.Len(t, stmt.Columns, 1)
	col := stmt.Columns[0]
	assert.Equal(t, "tmp:P", col.Predicate.Code())
	assert.Equal(t, "rdfs:Resource", col.Predicate.Range.Code())
	assert.Equal(t, "rdf:about", col.Source.Code())
	assert.Equal(t, "drdfs:uri", col.Source.Range.Code())
}

func TestGenerate_ChainCountMatchesSelect(t *testing.T) {
	stmt := generate(t, testutil.ChainScenario(t), chainQuery)

	selectBody, ok := strings.CutPrefix(stmt.Select, "select c.name, e.name ")
	require.True(t, ok, stmt.Select)
	countBody, ok := strings.CutPrefix(stmt.Count, "select count(*) ")
	require.True(t, ok, stmt.Count)
	assert.Equal(t, selectBody, countBody)

	// One statement join per hop, no span variables.
	assert.Equal(t, 2, strings.Count(stmt.Select, "rdf_statement"))
	assert.NotContains(t, stmt.Select, "__0")

	keys := []string{}
	for _, c := range stmt.Columns {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{"c.rdf:about", "e.rdf:about"}, keys)
}

func TestGenerate_Range(t *testing.T) {
	tests := []struct {
		name string
		tail string
		want string
	}{
		{"limit", " limit 10", "limit 10"},
		{"limit offset", " limit 10 offset 20", "limit 10 offset 20"},
		{"offset first", " offset 5 limit 2", "limit 2 offset 5"},
		{"none", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := generate(t, testutil.LiteralScenario(t), scenarioQuery+tt.tail)

			assert.Equal(t, tt.want, stmt.Range)
			if tt.want == "" {
				assert.Equal(t, stmt.Count, stmt.CountWithoutRange())
				return
			}
			assert.True(t, strings.HasSuffix(stmt.Select, " "+tt.want))
			assert.True(t, strings.HasSuffix(stmt.Count, " "+tt.want))
			assert.NotContains(t, stmt.CountWithoutRange(), "limit")
		})
	}
}

func TestRangeClause_OffsetOnly(t *testing.T) {
	offset := int64(5)
	assert.Equal(t, "limit -1 offset 5", rangeClause(nil, &offset))
}

func TestGenerate_ConstantConstraints(t *testing.T) {
	t.Run("column predicate", func(t *testing.T) {
		stmt := generate(t, testutil.NewOntology(t),
			`select c.rdf:about from tmp:C c where c rdf:about 'urn:x' using tmp for "http://tmp/tmp#"`)
		assert.Equal(t,
			"select c.name from rdf_resource c where c.name = 'urn:x' and c.type_id = 1001",
			stmt.Select)
	})

	t.Run("generic literal predicate", func(t *testing.T) {
		stmt := generate(t, testutil.LiteralScenario(t),
			`select c.rdf:about from tmp:C c where c tmp:P 'hello' using tmp for "http://tmp/tmp#"`)
		assert.Equal(t,
			"select c.name from rdf_resource c, rdf_statement c__tmp__P__s, rdf_string c__tmp__P__o "+
				"where c__tmp__P__s.subject_id = c.id and c__tmp__P__s.predicate_id = 2001 "+
				"and c__tmp__P__s.id = c__tmp__P__o.statement_id and c__tmp__P__o.value = 'hello' "+
				"and c.type_id = 1001",
			stmt.Select)
	})

	t.Run("resource identifier", func(t *testing.T) {
		stmt := generate(t, testutil.ChainScenario(t),
			`select c.rdf:about from tmp:C c where c tmp:P 42 using tmp for "http://tmp/tmp#"`)
		assert.Contains(t, stmt.Select, "c__tmp__P__s.object_resource_id = 42")
	})
}

func TestGenerate_NoConstraints(t *testing.T) {
	o := testutil.NewOntology(t)
	res, err := o.Registry.WellKnownConcept("rdfs", "Resource")
	require.NoError(t, err)
	require.False(t, res.Generic)

	stmt := generate(t, o, `select r.rdf:about from rdfs:Resource r`)
	assert.Equal(t, "select r.name from rdf_resource r", stmt.Select)
	assert.Equal(t, "select count(*) from rdf_resource r", stmt.Count)
}

func TestGenerate_UnsupportedProjection(t *testing.T) {
	q := resolve(t, testutil.NewOntology(t), `select c.rdf:type from tmp:C c using tmp for "http://tmp/tmp#"`)

	_, err := NewGenerator().Generate(q)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedProjection))
	assert.True(t, IsGenerationError(err))

	var ge *GenerationError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, SelectClause, ge.Clause)
	assert.Equal(t, "c.rdf:type", ge.Subject)
}

func TestGenerate_NilQuery(t *testing.T) {
	_, err := NewGenerator().Generate(nil)
	assert.Error(t, err)
}

func TestClause(t *testing.T) {
	q := resolve(t, testutil.LiteralScenario(t), scenarioQuery+" limit 3")
	g := NewGenerator()

	sel, err := g.Clause(q, SelectClause)
	require.NoError(t, err)
	assert.Equal(t, "c__tmp__P__o.value", sel)

	from, err := g.Clause(q, FromClause)
	require.NoError(t, err)
	assert.Equal(t, "rdf_resource c, rdf_statement c__tmp__P__s, rdf_string c__tmp__P__o", from)

	rng, err := g.Clause(q, RangeClause)
	require.NoError(t, err)
	assert.Equal(t, "limit 3", rng)

	_, err = g.Clause(q, Clause(99))
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
	assert.Contains(t, err.Error(), "clause(99)")
}

package rdql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdql/internal/ontology"
)

func TestNamespaceRef_WriteOnce(t *testing.T) {
	n := &NamespaceRef{Code: "tmp"}
	require.NoError(t, n.SetURI("http://a#"))
	require.NoError(t, n.SetURI("http://a#"))

	err := n.SetURI("http://b#")
	require.Error(t, err)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "uri", conflict.Field)
	assert.Equal(t, "http://a#", n.URI)

	a := &ontology.Namespace{ID: 1, Code: "tmp", URI: "http://a#"}
	b := &ontology.Namespace{ID: 2, Code: "tmp", URI: "http://a#"}
	require.NoError(t, n.Bind(a))
	require.NoError(t, n.Bind(a))
	assert.True(t, IsConflict(n.Bind(b)))
}

func TestVariables_Synthesize(t *testing.T) {
	vars := newVariables()
	vars.Get("c__tmp__P__s")

	v := vars.Synthesize("c__tmp__P__s", nil)
	assert.Equal(t, "c__tmp__P__s__2", v.Name)
	assert.True(t, v.Synthesized)

	w := vars.Synthesize("c__tmp__P__s", nil)
	assert.Equal(t, "c__tmp__P__s__3", w.Name)

	x := vars.Synthesize("fresh", nil)
	assert.Equal(t, "fresh", x.Name)
	assert.Equal(t, 4, vars.Len())
}

func TestPredicateRef_Effective(t *testing.T) {
	orig := &PredicateRef{Name: "S"}
	terminal := &PredicateRef{Name: "P"}
	value := &PredicateRef{Name: "_xsstringvalue"}

	assert.Same(t, orig, orig.Effective())

	require.NoError(t, orig.Replace(Spanned{Ref: terminal}))
	require.NoError(t, terminal.Replace(Generalized{Ref: value}))
	assert.Same(t, value, orig.Effective())

	assert.True(t, IsConflict(orig.Replace(Generalized{Ref: value})))
}

func TestConstraint_Expand(t *testing.T) {
	v := &Variable{Name: "v"}
	leaf := func(name string) *Constraint {
		return &Constraint{Subject: v, Predicate: &PredicateRef{Name: name}, Object: IDConstantOf(1)}
	}
	orig := leaf("span")
	a, b := leaf("a"), leaf("b")
	s, p, o := leaf("s"), leaf("p"), leaf("o")

	assert.Equal(t, []*Constraint{orig}, orig.Expand())

	require.NoError(t, orig.Replace(SpannedConstraints{Chain: []*Constraint{a, b}}))
	require.NoError(t, b.Replace(GeneralizedConstraints{Subject: s, Predicate: p, Object: o}))
	assert.Equal(t, []*Constraint{a, s, p, o}, orig.Expand())
}

func TestConceptRef_Storage(t *testing.T) {
	c := &ConceptRef{Name: "C"}
	bound := &ontology.Concept{Name: "C", Generic: true}
	resource := &ontology.Concept{Name: "Resource", Table: ontology.ResourceTable}

	require.NoError(t, c.Bind(bound))
	assert.Same(t, bound, c.Storage())
	require.NoError(t, c.Generalize(resource))
	assert.Same(t, resource, c.Storage())
}

func TestQuoteString(t *testing.T) {
	assert.Equal(t, "''", QuoteString(""))
	assert.Equal(t, "'it''s'", QuoteString("it's"))
}

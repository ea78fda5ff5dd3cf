package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdql/internal/ontology"
	"github.com/roach88/rdql/internal/testutil"
)

func TestOntology_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	o := testutil.ChainScenario(t)
	p, err := o.Registry.PredicateByID(testutil.PID)
	require.NoError(t, err)
	label := o.AddColumn(t, "label", "label", o.D, o.WellKnown(t, ontology.XS, "string"))
	span := o.AddSpan(t, "PLabel", p, label)

	require.NoError(t, s.SaveOntology(ctx, o.Registry))

	loaded, err := s.LoadOntology(ctx)
	require.NoError(t, err)

	assert.Len(t, loaded.Namespaces(), len(o.Registry.Namespaces()))
	assert.Len(t, loaded.Concepts(), len(o.Registry.Concepts()))
	assert.Len(t, loaded.Predicates(), len(o.Registry.Predicates()))

	c, err := loaded.ConceptByID(testutil.CID)
	require.NoError(t, err)
	assert.Equal(t, "tmp:C", c.Code())
	assert.True(t, c.Generic)
	assert.Equal(t, ontology.ResourceTable, c.Table)

	gotP, err := loaded.PredicateByID(testutil.PID)
	require.NoError(t, err)
	assert.True(t, gotP.Generic)
	assert.Equal(t, ontology.AnyToOne, gotP.Cardinality)
	assert.Same(t, c, gotP.Domain)

	gotSpan, err := loaded.PredicateByID(span.ID)
	require.NoError(t, err)
	require.Len(t, gotSpan.Segments, 2)
	assert.Same(t, gotP, gotSpan.Segments[0].Predicate)
	assert.Equal(t, "label", gotSpan.Segments[1].Predicate.Column)
	assert.Equal(t, span.Cardinality, gotSpan.Cardinality)

	str, err := loaded.WellKnownConcept(ontology.XS, "string")
	require.NoError(t, err)
	assert.True(t, str.Literal)
	assert.Equal(t, "rdf_string", str.Table)

	accessor, err := loaded.WellKnownPredicate(ontology.DRDFS, ontology.ValueAccessorName(str))
	require.NoError(t, err)
	assert.Equal(t, ontology.ValueColumn, accessor.Column)
}

func TestOntology_SaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	o := testutil.LiteralScenario(t)

	require.NoError(t, s.SaveOntology(ctx, o.Registry))
	require.NoError(t, s.SaveOntology(ctx, o.Registry))

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM ontology_predicate`).Scan(&n))
	assert.Equal(t, len(o.Registry.Predicates()), n)
}

func TestOntology_SaveExtendedRegistry(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	o := testutil.NewOntology(t)
	require.NoError(t, s.SaveOntology(ctx, o.Registry))

	o.AddGeneric(t, "P", testutil.PID, o.C, o.D, ontology.AnyToOne)
	require.NoError(t, s.SaveOntology(ctx, o.Registry))

	loaded, err := s.LoadOntology(ctx)
	require.NoError(t, err)
	_, err = loaded.PredicateByID(testutil.PID)
	assert.NoError(t, err)
}

func TestOntology_LoadEmpty(t *testing.T) {
	s := createTestStore(t)

	r, err := s.LoadOntology(context.Background())
	require.NoError(t, err)
	assert.Empty(t, r.Namespaces())
	assert.Empty(t, r.Predicates())
}

func TestOntology_LoadedRegistryContinuesIDs(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.SaveOntology(ctx, testutil.NewOntology(t).Registry))

	r, err := s.LoadOntology(ctx)
	require.NoError(t, err)
	tmp, err := r.NamespaceByCode(testutil.TmpCode)
	require.NoError(t, err)

	fresh := &ontology.Concept{Namespace: tmp, Name: "Fresh", Table: ontology.ResourceTable, Generic: true}
	require.NoError(t, r.AddConcept(fresh))
	assert.Greater(t, fresh.ID, testutil.EID)
}

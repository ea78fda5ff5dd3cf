package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdql/internal/ontology"
)

func TestNewOntology_FixedIDs(t *testing.T) {
	o := NewOntology(t)

	ns, err := o.Registry.Namespace(TmpURI)
	require.NoError(t, err)
	assert.Equal(t, TmpNamespaceID, ns.ID)

	assert.Equal(t, CID, o.C.ID)
	assert.Equal(t, DID, o.D.ID)
	assert.Equal(t, EID, o.E.ID)
	assert.True(t, o.C.Generic)
}

func TestScenarios(t *testing.T) {
	lit := LiteralScenario(t)
	p, err := lit.Registry.Predicate(lit.Tmp, "P")
	require.NoError(t, err)
	assert.Equal(t, PID, p.ID)
	assert.True(t, p.Literal())

	res := ResourceScenario(t)
	p, err = res.Registry.Predicate(res.Tmp, "P")
	require.NoError(t, err)
	assert.False(t, p.Literal())

	chain := ChainScenario(t)
	q, err := chain.Registry.Predicate(chain.Tmp, "Q")
	require.NoError(t, err)
	assert.Equal(t, QID, q.ID)
	assert.Same(t, chain.D, q.Domain)
}

func TestAddSpan(t *testing.T) {
	o := ChainScenario(t)
	label := o.AddGeneric(t, "label", o.Next(), o.E, o.WellKnown(t, ontology.XS, "string"), ontology.OneToOne)
	p, err := o.Registry.Predicate(o.Tmp, "P")
	require.NoError(t, err)
	q, err := o.Registry.Predicate(o.Tmp, "Q")
	require.NoError(t, err)

	span := o.AddSpan(t, "PQlabel", p, q, label)
	assert.True(t, span.IsSpan())
	assert.Same(t, o.C, span.Domain)
	assert.Equal(t, FirstFreeID+1, span.ID)
}

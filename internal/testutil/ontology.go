package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rdql/internal/ontology"
)

// Fixed identifiers of the "tmp" fixture ontology.
const (
	TmpCode = "tmp"
	TmpURI  = "http://tmp/tmp#"

	TmpNamespaceID int64 = 500
	CID            int64 = 1001
	DID            int64 = 1002
	EID            int64 = 1003
	PID            int64 = 2001
	QID            int64 = 2002

	// Identifiers handed out by Ontology.Next start here.
	FirstFreeID int64 = 3000
)

// Ontology is a core registry extended with the "tmp" namespace and the
// generic concepts tmp:C, tmp:D and tmp:E.
type Ontology struct {
	Registry *ontology.Registry
	Tmp      *ontology.Namespace
	C, D, E  *ontology.Concept

	ids *IDSequence
}

// NewOntology builds the fixture. Core vocabulary identifiers are those
// assigned by ontology.Bootstrap.
func NewOntology(t testing.TB) *Ontology {
	t.Helper()

	r, err := ontology.NewCore()
	require.NoError(t, err)
	tmp, err := r.AddNamespace(&ontology.Namespace{ID: TmpNamespaceID, Code: TmpCode, URI: TmpURI})
	require.NoError(t, err)

	o := &Ontology{Registry: r, Tmp: tmp, ids: NewIDSequence(FirstFreeID)}
	o.C = o.AddConcept(t, "C", CID)
	o.D = o.AddConcept(t, "D", DID)
	o.E = o.AddConcept(t, "E", EID)
	return o
}

// Next returns a fresh fixture identifier.
func (o *Ontology) Next() int64 {
	return o.ids.Next()
}

// AddConcept registers a generic concept in tmp.
func (o *Ontology) AddConcept(t testing.TB, name string, id int64) *ontology.Concept {
	t.Helper()
	c := &ontology.Concept{ID: id, Namespace: o.Tmp, Name: name, Table: ontology.ResourceTable, Generic: true}
	require.NoError(t, o.Registry.AddConcept(c))
	return c
}

// WellKnown returns a core concept such as ("xs", "string").
func (o *Ontology) WellKnown(t testing.TB, vocabulary, name string) *ontology.Concept {
	t.Helper()
	c, err := o.Registry.WellKnownConcept(vocabulary, name)
	require.NoError(t, err)
	return c
}

// AddGeneric registers a generic predicate in tmp.
func (o *Ontology) AddGeneric(t testing.TB, name string, id int64, domain, rng *ontology.Concept, card ontology.Cardinality) *ontology.Predicate {
	t.Helper()
	p := &ontology.Predicate{
		ID:          id,
		Namespace:   o.Tmp,
		Name:        name,
		Domain:      domain,
		Range:       rng,
		Cardinality: card,
		Generic:     true,
	}
	require.NoError(t, o.Registry.AddPredicate(p))
	return p
}

// AddColumn registers a predicate backed by a dedicated column.
func (o *Ontology) AddColumn(t testing.TB, name, column string, domain, rng *ontology.Concept) *ontology.Predicate {
	t.Helper()
	p := &ontology.Predicate{
		ID:          o.Next(),
		Namespace:   o.Tmp,
		Name:        name,
		Column:      column,
		Domain:      domain,
		Range:       rng,
		Cardinality: ontology.OneToOne,
	}
	require.NoError(t, o.Registry.AddPredicate(p))
	return p
}

// AddSpan registers a span over segments.
func (o *Ontology) AddSpan(t testing.TB, name string, segments ...*ontology.Predicate) *ontology.Predicate {
	t.Helper()
	require.NotEmpty(t, segments)

	cards := make([]ontology.Cardinality, len(segments))
	segs := make([]ontology.Segment, len(segments))
	for i, p := range segments {
		cards[i] = p.Cardinality
		segs[i] = ontology.Segment{Predicate: p, Ordinal: i}
	}
	span := &ontology.Predicate{
		ID:          o.Next(),
		Namespace:   o.Tmp,
		Name:        name,
		Domain:      segments[0].Domain,
		Range:       segments[len(segments)-1].Range,
		Cardinality: ontology.MergeSpan(cards...),
	}
	span.SetSegments(segs)
	require.NoError(t, o.Registry.AddPredicate(span))
	return span
}

// LiteralScenario: tmp:P is a generic one-to-one predicate from tmp:C to
// xs:string.
func LiteralScenario(t testing.TB) *Ontology {
	t.Helper()
	o := NewOntology(t)
	o.AddGeneric(t, "P", PID, o.C, o.WellKnown(t, ontology.XS, "string"), ontology.OneToOne)
	return o
}

// ResourceScenario: tmp:P is a generic one-to-one predicate from tmp:C to
// rdfs:Resource.
func ResourceScenario(t testing.TB) *Ontology {
	t.Helper()
	o := NewOntology(t)
	o.AddGeneric(t, "P", PID, o.C, o.WellKnown(t, ontology.RDFS, ontology.Resource), ontology.OneToOne)
	return o
}

// ChainScenario: generic predicates tmp:P from tmp:C to tmp:D and tmp:Q
// from tmp:D to tmp:E.
func ChainScenario(t testing.TB) *Ontology {
	t.Helper()
	o := NewOntology(t)
	o.AddGeneric(t, "P", PID, o.C, o.D, ontology.AnyToOne)
	o.AddGeneric(t, "Q", QID, o.D, o.E, ontology.AnyToOne)
	return o
}

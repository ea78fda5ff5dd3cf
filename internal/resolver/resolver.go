package resolver

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/rdql/internal/ontology"
	"github.com/roach88/rdql/internal/rdql"
)

// Resolver runs the Bind, Span and Generalize phases against an ontology.
//
// A Resolver holds no per-query state and may be shared between
// goroutines when its Lookup is safe for concurrent use.
type Resolver struct {
	lookup ontology.Lookup
}

// New creates a resolver reading metadata from lookup.
func New(lookup ontology.Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve runs all three phases. The first error aborts resolution.
func (r *Resolver) Resolve(q *rdql.Query) error {
	if err := r.Bind(q); err != nil {
		return err
	}
	if err := r.Span(q); err != nil {
		return err
	}
	return r.Generalize(q)
}

// synthName builds "<var>__<ns>__<name>__<suffix>" from name parts that
// may contain characters not valid in an SQL alias.
func synthName(parts ...string) string {
	mangled := make([]string, len(parts))
	for i, p := range parts {
		mangled[i] = strings.Map(func(r rune) rune {
			if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return '_'
		}, p)
	}
	return strings.Join(mangled, rdql.Separator)
}

// conceptRef builds an already-bound reference to c.
func conceptRef(c *ontology.Concept) *rdql.ConceptRef {
	return &rdql.ConceptRef{Namespace: namespaceRef(c.Namespace), Name: c.Name, Binding: c}
}

// predicateRef builds an already-bound reference to p on v.
func predicateRef(p *ontology.Predicate, v *rdql.Variable) *rdql.PredicateRef {
	return &rdql.PredicateRef{Namespace: namespaceRef(p.Namespace), Name: p.Name, Variable: v, Binding: p}
}

func namespaceRef(ns *ontology.Namespace) *rdql.NamespaceRef {
	if ns == nil {
		return nil
	}
	return &rdql.NamespaceRef{Code: ns.Code, URI: ns.URI, Binding: ns}
}

func wellKnown(l ontology.Lookup, vocabulary, name string) (*ontology.Predicate, error) {
	p, err := l.WellKnownPredicate(vocabulary, name)
	if err != nil {
		return nil, &NoResolution{Kind: "predicate", Ref: vocabulary + ":" + name, Err: err}
	}
	return p, nil
}

func wellKnownConcept(l ontology.Lookup, vocabulary, name string) (*ontology.Concept, error) {
	c, err := l.WellKnownConcept(vocabulary, name)
	if err != nil {
		return nil, &NoResolution{Kind: "concept", Ref: vocabulary + ":" + name, Err: err}
	}
	return c, nil
}

func describe(v *rdql.Variable) string {
	if v.Concept == nil {
		return v.Name
	}
	return fmt.Sprintf("%s (%s)", v.Name, v.Concept.Code())
}

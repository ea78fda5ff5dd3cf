package ontology

import (
	"fmt"
	"strings"
)

// SpanNamespaceSuffix is appended to a namespace code to form the code of
// the namespace holding its synthesized spans.
const SpanNamespaceSuffix = "-spans"

// SynthesizeSpans creates span predicates for every two- and three-hop
// chain of predicates that starts at a non-literal concept and ends in a
// literal. It returns the spans created; spans that already exist are not
// recreated.
//
// A chain never passes through a span or through a predicate whose range is
// one of the core table concepts (rdfs:Resource, rdfs:Class, rdf:Property).
func SynthesizeSpans(r *Registry) ([]*Predicate, error) {
	var created []*Predicate

	add := func(chain ...*Predicate) error {
		p, ok, err := addSpan(r, chain)
		if err != nil {
			return err
		}
		if ok {
			created = append(created, p)
		}
		return nil
	}

	for _, c := range r.Concepts() {
		if c.Literal {
			continue
		}
		for _, p := range r.PredicatesWithDomain(c) {
			if invalidSegment(p) || p.Literal() {
				continue
			}
			for _, q := range r.PredicatesWithDomain(p.Range) {
				if invalidSegment(q) {
					continue
				}
				if q.Literal() {
					if err := add(p, q); err != nil {
						return created, err
					}
					continue
				}
				for _, s := range r.PredicatesWithDomain(q.Range) {
					if invalidSegment(s) || !s.Literal() {
						continue
					}
					if err := add(p, q, s); err != nil {
						return created, err
					}
				}
			}
		}
	}
	return created, nil
}

func invalidSegment(p *Predicate) bool {
	return p.IsSpan() || isCoreTableConcept(p.Range)
}

func isCoreTableConcept(c *Concept) bool {
	if c == nil || c.Namespace == nil {
		return false
	}
	switch c.Namespace.Code {
	case RDFS:
		return c.Name == Resource || c.Name == Class
	case RDF:
		return c.Name == Property
	}
	return false
}

func addSpan(r *Registry, chain []*Predicate) (*Predicate, bool, error) {
	domain := chain[0].Domain
	ns, err := r.AddNamespace(&Namespace{
		Code: domain.Namespace.Code + SpanNamespaceSuffix,
		URI:  spanNamespaceURI(domain.Namespace.URI),
	})
	if err != nil {
		return nil, false, fmt.Errorf("span namespace for %s: %w", domain, err)
	}

	name := SpanName(chain...)
	if existing, err := r.Predicate(ns, name); err == nil {
		return existing, false, nil
	}

	cards := make([]Cardinality, len(chain))
	segments := make([]Segment, len(chain))
	for i, p := range chain {
		cards[i] = p.Cardinality
		segments[i] = Segment{Predicate: p, Ordinal: i}
	}
	span := &Predicate{
		Namespace:   ns,
		Name:        name,
		Domain:      domain,
		Range:       chain[len(chain)-1].Range,
		Cardinality: MergeSpan(cards...),
	}
	span.SetSegments(segments)
	if err := r.AddPredicate(span); err != nil {
		return nil, false, fmt.Errorf("span %s: %w", name, err)
	}
	return span, true, nil
}

// SpanName names a span after its segments: "ns_name" pairs joined by "-".
func SpanName(chain ...*Predicate) string {
	parts := make([]string, len(chain))
	for i, p := range chain {
		parts[i] = p.Namespace.Code + "_" + p.Name
	}
	return strings.Join(parts, "-")
}

func spanNamespaceURI(uri string) string {
	if strings.HasSuffix(uri, "#") || strings.HasSuffix(uri, "/") {
		return uri[:len(uri)-1] + SpanNamespaceSuffix + uri[len(uri)-1:]
	}
	return uri + SpanNamespaceSuffix
}

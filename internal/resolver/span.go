package resolver

import (
	"strconv"

	"github.com/roach88/rdql/internal/ontology"
	"github.com/roach88/rdql/internal/rdql"
)

// Span expands every projected or constrained span predicate into its
// segments.
//
// A projection of v.S, where S spans P1..Pn, gets variables
// v__ns__S__0 .. v__ns__S__{n-2} joined by constraints on P1..P(n-1), and
// its replacement reads Pn from the last of them. A constraint v S o is
// replaced by the chain v P1 v__ns__S__0, ..., v__ns__S__{n-2} Pn o.
// Nested spans are flattened first. A span of one segment introduces no
// variables.
func (r *Resolver) Span(q *rdql.Query) error {
	for _, p := range q.Projections {
		if !p.Binding.IsSpan() {
			continue
		}
		if err := spanProjection(q, p); err != nil {
			return err
		}
	}
	for _, c := range q.Constraints {
		if !c.Predicate.Binding.IsSpan() {
			continue
		}
		if err := spanConstraint(q, c); err != nil {
			return err
		}
	}
	return nil
}

func spanProjection(q *rdql.Query, p *rdql.PredicateRef) error {
	segments, err := flatten(p.Binding, p.Pos)
	if err != nil {
		return err
	}

	last, links := chain(q, p.Variable, p.Binding, segments[:len(segments)-1])
	q.Constraints = append(q.Constraints, links...)
	terminal := predicateRef(segments[len(segments)-1], last)
	terminal.Pos = p.Pos
	if err := p.Replace(rdql.Spanned{Ref: terminal}); err != nil {
		return conflict(p.Pos, err)
	}
	return nil
}

func spanConstraint(q *rdql.Query, c *rdql.Constraint) error {
	segments, err := flatten(c.Predicate.Binding, c.Pos)
	if err != nil {
		return err
	}

	last, links := chain(q, c.Subject, c.Predicate.Binding, segments[:len(segments)-1])
	links = append(links, &rdql.Constraint{
		Subject:     last,
		Predicate:   predicateRef(segments[len(segments)-1], last),
		Object:      c.Object,
		Pos:         c.Pos,
		Synthesized: true,
	})
	if err := c.Replace(rdql.SpannedConstraints{Chain: links}); err != nil {
		return conflict(c.Pos, err)
	}
	return nil
}

// chain synthesizes one variable per inner segment, linked from origin.
// It returns the last variable of the chain (origin when inner is empty)
// and the linking constraints.
func chain(q *rdql.Query, origin *rdql.Variable, span *ontology.Predicate, inner []*ontology.Predicate) (*rdql.Variable, []*rdql.Constraint) {
	prev := origin
	var links []*rdql.Constraint
	for i, seg := range inner {
		name := synthName(origin.Name, span.Namespace.Code, span.Name, strconv.Itoa(i))
		next := q.Variables.Synthesize(name, conceptRef(seg.Range))
		links = append(links, &rdql.Constraint{
			Subject:     prev,
			Predicate:   predicateRef(seg, prev),
			Object:      next,
			Synthesized: true,
		})
		prev = next
	}
	return prev, links
}

// flatten returns the non-span predicates p is composed of, in order.
// Every segment but the last must have a non-literal range.
func flatten(p *ontology.Predicate, pos rdql.Pos) ([]*ontology.Predicate, error) {
	var out []*ontology.Predicate
	var walk func(p *ontology.Predicate, depth int) error
	walk = func(p *ontology.Predicate, depth int) error {
		if depth > maxSpanDepth {
			return &ResolverError{Pos: pos, Message: "span " + p.Code() + " nests too deeply"}
		}
		if !p.IsSpan() {
			out = append(out, p)
			return nil
		}
		for _, s := range p.Segments {
			if err := walk(s.Predicate, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(p, 0); err != nil {
		return nil, err
	}

	for _, seg := range out[:len(out)-1] {
		if seg.Literal() {
			return nil, &ResolverError{
				Pos:     pos,
				Message: "span " + p.Code() + " has literal segment " + seg.Code() + " before its end",
			}
		}
	}
	return out, nil
}

// maxSpanDepth bounds span nesting.
const maxSpanDepth = 16

package resolver

import (
	"github.com/roach88/rdql/internal/ontology"
	"github.com/roach88/rdql/internal/rdql"
)

// Generalize rewrites generic concepts and predicates onto the resource
// and statement tables.
//
// Every variable with a generic concept gets a "v rdf:type <id>"
// constraint and is stored as rdfs:Resource. Every projection whose
// effective predicate P is generic is read through a statement row: the
// variables v__ns__P__s (the statement) and v__ns__P__o (the value) are
// synthesized and linked with rdf:subject, rdf:predicate and rdf:object.
// The projection then reads the literal value accessor of P's range, or
// rdf:about of the object resource. Every constraint on a generic predicate
// is replaced by the same three links, ending at the constraint's object.
//
// Variables synthesized here receive no type constraint.
func (r *Resolver) Generalize(q *rdql.Query) error {
	g, err := r.newGeneralizer(q)
	if err != nil {
		return err
	}

	for _, v := range q.Variables.All() {
		if err := g.variable(v); err != nil {
			return err
		}
	}
	for _, p := range q.Projections {
		if err := g.projection(p.Effective()); err != nil {
			return err
		}
	}
	for _, c := range q.Constraints {
		for _, leaf := range c.Expand() {
			if err := g.constraint(leaf); err != nil {
				return err
			}
		}
	}
	return nil
}

type generalizer struct {
	r *Resolver
	q *rdql.Query

	typ       *ontology.Predicate
	subject   *ontology.Predicate
	predicate *ontology.Predicate
	object    *ontology.Predicate
	about     *ontology.Predicate

	resourceConcept  *ontology.Concept
	statementConcept *ontology.Concept
}

func (r *Resolver) newGeneralizer(q *rdql.Query) (*generalizer, error) {
	g := &generalizer{r: r, q: q}
	var err error
	for _, wk := range []struct {
		target **ontology.Predicate
		name   string
	}{
		{&g.typ, ontology.Type},
		{&g.subject, ontology.Subject},
		{&g.predicate, ontology.PredicateName},
		{&g.object, ontology.Object},
		{&g.about, ontology.About},
	} {
		if *wk.target, err = wellKnown(r.lookup, ontology.RDF, wk.name); err != nil {
			return nil, err
		}
	}
	if g.resourceConcept, err = wellKnownConcept(r.lookup, ontology.RDFS, ontology.Resource); err != nil {
		return nil, err
	}
	if g.statementConcept, err = wellKnownConcept(r.lookup, ontology.RDF, ontology.Statement); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *generalizer) variable(v *rdql.Variable) error {
	concept := v.Concept.Binding
	if !concept.Generic {
		return nil
	}
	g.q.Constraints = append(g.q.Constraints, &rdql.Constraint{
		Subject:     v,
		Predicate:   predicateRef(g.typ, v),
		Object:      rdql.IDConstantOf(concept.ID),
		Pos:         v.Pos,
		Synthesized: true,
	})
	if err := v.Concept.Generalize(g.resourceConcept); err != nil {
		return conflict(v.Pos, err)
	}
	return nil
}

func (g *generalizer) projection(p *rdql.PredicateRef) error {
	pred := p.Binding
	if !pred.Generic {
		return nil
	}

	stmt, links := g.statement(p.Variable, pred)
	value := g.q.Variables.Synthesize(
		synthName(p.Variable.Name, pred.Namespace.Code, pred.Name, "o"),
		g.valueConcept(pred.Range),
	)
	links = append(links, g.link(stmt, g.object, value))
	g.q.Constraints = append(g.q.Constraints, links...)

	var column *ontology.Predicate
	switch {
	case pred == g.about:
		column = pred
	case pred.Literal():
		accessor, err := g.valueAccessor(pred.Range)
		if err != nil {
			return err
		}
		column = accessor
	default:
		column = g.about
	}

	ref := predicateRef(column, value)
	ref.Pos = p.Pos
	if err := p.Replace(rdql.Generalized{Ref: ref}); err != nil {
		return conflict(p.Pos, err)
	}
	return nil
}

func (g *generalizer) constraint(c *rdql.Constraint) error {
	pred := c.Predicate.Binding
	if !pred.Generic {
		return nil
	}

	stmt, links := g.statement(c.Subject, pred)
	repl := rdql.GeneralizedConstraints{Subject: links[0], Predicate: links[1]}

	if constant, ok := c.Object.(rdql.Constant); ok && pred.Literal() {
		// The value of a literal statement lives in its literal table row.
		value := g.q.Variables.Synthesize(
			synthName(c.Subject.Name, pred.Namespace.Code, pred.Name, "o"),
			g.valueConcept(pred.Range),
		)
		accessor, err := g.valueAccessor(pred.Range)
		if err != nil {
			return err
		}
		repl.Object = g.link(stmt, g.object, value)
		repl.Value = &rdql.Constraint{
			Subject:     value,
			Predicate:   predicateRef(accessor, value),
			Object:      constant,
			Pos:         c.Pos,
			Synthesized: true,
		}
	} else {
		repl.Object = g.link(stmt, g.object, c.Object)
	}

	if err := c.Replace(repl); err != nil {
		return conflict(c.Pos, err)
	}
	return nil
}

// statement synthesizes the statement variable for subject's value of pred
// and its subject and predicate links.
func (g *generalizer) statement(subject *rdql.Variable, pred *ontology.Predicate) (*rdql.Variable, []*rdql.Constraint) {
	stmt := g.q.Variables.Synthesize(
		synthName(subject.Name, pred.Namespace.Code, pred.Name, "s"),
		conceptRef(g.statementConcept),
	)
	return stmt, []*rdql.Constraint{
		g.link(stmt, g.subject, subject),
		g.link(stmt, g.predicate, rdql.IDConstantOf(pred.ID)),
	}
}

func (g *generalizer) link(subject *rdql.Variable, pred *ontology.Predicate, object rdql.Term) *rdql.Constraint {
	return &rdql.Constraint{
		Subject:     subject,
		Predicate:   predicateRef(pred, subject),
		Object:      object,
		Synthesized: true,
	}
}

// valueConcept returns a reference to c for a synthesized value variable.
// Generic concepts are stored as resources.
func (g *generalizer) valueConcept(c *ontology.Concept) *rdql.ConceptRef {
	ref := conceptRef(c)
	if c.Generic {
		ref.Generalized = g.resourceConcept
	}
	return ref
}

func (g *generalizer) valueAccessor(c *ontology.Concept) (*ontology.Predicate, error) {
	return wellKnown(g.r.lookup, ontology.DRDFS, ontology.ValueAccessorName(c))
}

package resolver

import (
	"errors"

	"github.com/roach88/rdql/internal/ontology"
	"github.com/roach88/rdql/internal/rdql"
)

// Bind attaches ontology bindings to every reference in q.
//
// Namespaces bind first, then the concepts of declared variables (a
// variable declared twice under different codes must name one concept), then
// constraints (an undeclared object variable takes the predicate's range
// as its concept), then projections. A predicate is looked up first as
// "<concept>_<name>" in its namespace, where concept is the name of its
// variable's concept, and then as "<name>".
func (r *Resolver) Bind(q *rdql.Query) error {
	for _, n := range q.Namespaces.All() {
		if err := r.bindNamespace(n); err != nil {
			return err
		}
	}
	for _, v := range q.Variables.All() {
		if v.Concept == nil {
			continue
		}
		if err := r.bindConcept(v.Concept); err != nil {
			return err
		}
		for _, c := range v.Restated() {
			if err := r.bindConcept(c); err != nil {
				return err
			}
		}
		if err := v.CheckConcept(); err != nil {
			return conflict(v.Pos, err)
		}
	}
	for _, c := range q.Constraints {
		if err := r.bindConstraint(c); err != nil {
			return err
		}
	}
	for _, p := range q.Projections {
		if err := r.bindPredicate(p); err != nil {
			return err
		}
	}
	for _, v := range q.Variables.All() {
		if v.Concept == nil || v.Concept.Binding == nil {
			return &NoResolution{Kind: "variable", Ref: v.Name, Pos: v.Pos, Err: ErrUndeclaredVariable}
		}
	}
	return nil
}

func (r *Resolver) bindNamespace(n *rdql.NamespaceRef) error {
	if n.Binding != nil {
		return nil
	}

	var (
		ns  *ontology.Namespace
		err error
	)
	if n.URI != "" {
		ns, err = r.lookup.Namespace(n.URI)
	} else {
		ns, err = r.lookup.NamespaceByCode(n.Code)
	}
	if err != nil {
		ref := n.Code
		if n.URI != "" {
			ref += " (" + n.URI + ")"
		}
		return &NoResolution{Kind: "namespace", Ref: ref, Pos: n.Pos, Err: err}
	}
	if err := n.Bind(ns); err != nil {
		return conflict(n.Pos, err)
	}
	return nil
}

func (r *Resolver) bindConcept(c *rdql.ConceptRef) error {
	if c.Binding != nil {
		return nil
	}
	concept, err := r.lookup.Concept(c.Namespace.Binding, c.Name)
	if err != nil {
		return &NoResolution{Kind: "concept", Ref: c.Code(), Pos: c.Pos, Err: err}
	}
	if err := c.Bind(concept); err != nil {
		return conflict(c.Pos, err)
	}
	return nil
}

func (r *Resolver) bindPredicate(p *rdql.PredicateRef) error {
	if p.Binding != nil {
		return nil
	}
	v := p.Variable
	if v == nil || v.Concept == nil || v.Concept.Binding == nil {
		name := rdql.DefaultVariable
		pos := p.Pos
		if v != nil {
			name = v.Name
		}
		return &NoResolution{Kind: "variable", Ref: name, Pos: pos, Err: ErrUndeclaredVariable}
	}

	ns := p.Namespace.Binding
	pred, err := r.lookup.Predicate(ns, v.Concept.Name+"_"+p.Name)
	if ontology.IsNotFound(err) {
		pred, err = r.lookup.Predicate(ns, p.Name)
	}
	if err != nil {
		return &NoResolution{Kind: "predicate", Ref: p.Key(), Pos: p.Pos, Err: err}
	}
	if err := p.Bind(pred); err != nil {
		return conflict(p.Pos, err)
	}
	return nil
}

func (r *Resolver) bindConstraint(c *rdql.Constraint) error {
	if c.Subject.Concept == nil {
		return &NoResolution{Kind: "variable", Ref: c.Subject.Name, Pos: c.Pos, Err: ErrUndeclaredVariable}
	}
	if err := r.bindConcept(c.Subject.Concept); err != nil {
		return err
	}
	if err := r.bindPredicate(c.Predicate); err != nil {
		return err
	}
	pred := c.Predicate.Binding

	switch obj := c.Object.(type) {
	case *rdql.Variable:
		if obj.Concept == nil {
			if err := obj.SetConcept(conceptRef(pred.Range)); err != nil {
				return conflict(c.Pos, err)
			}
		}
		if err := r.bindConcept(obj.Concept); err != nil {
			return err
		}
		if obj.Literal() != pred.Literal() {
			return &ResolverError{
				Pos:     c.Pos,
				Message: "object " + describe(obj) + " does not match the range " + pred.Range.Code() + " of " + pred.Code(),
			}
		}
	case rdql.Constant:
		if !pred.Literal() && obj.Kind != rdql.IntegerConstant {
			return &ResolverError{
				Pos:     obj.Pos,
				Message: "object of " + pred.Code() + " must be a variable or a resource identifier, got " + obj.SQL,
			}
		}
	default:
		return &ResolverError{Pos: c.Pos, Message: "unsupported constraint object", Err: errors.ErrUnsupported}
	}
	return nil
}

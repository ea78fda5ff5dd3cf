package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/rdql/internal/ontology"
)

//go:embed ontology.cue
var schemaSource string

// CompileError represents an ontology compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Result summarizes what a compilation added to the registry.
type Result struct {
	Namespaces []*ontology.Namespace
	Concepts   []*ontology.Concept
	Predicates []*ontology.Predicate
}

// Validate checks v against the ontology schema.
func Validate(v cue.Value) error {
	if err := v.Err(); err != nil {
		return formatCUEError(err)
	}
	def := v.Context().CompileString(schemaSource, cue.Filename("ontology.cue")).
		LookupPath(cue.ParsePath("#Ontology"))
	if err := def.Err(); err != nil {
		return formatCUEError(err)
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// Compile adds the namespaces, concepts and predicates declared in v to r.
//
// Declarations are registered in three passes: namespaces, then concepts,
// then predicates, so references may point forward within a fragment. Span
// predicates are registered after the predicates they are composed of.
func Compile(v cue.Value, r *ontology.Registry) (*Result, error) {
	if err := Validate(v); err != nil {
		return nil, err
	}

	nsVal := v.LookupPath(cue.ParsePath("namespace"))
	if !nsVal.Exists() {
		return &Result{}, nil
	}

	c := &compilation{registry: r, result: &Result{}}
	decls, err := c.namespaces(nsVal)
	if err != nil {
		return nil, err
	}
	for _, d := range decls {
		if err := c.concepts(d); err != nil {
			return nil, err
		}
	}
	var spans []predicateDecl
	for _, d := range decls {
		pending, err := c.predicates(d)
		if err != nil {
			return nil, err
		}
		spans = append(spans, pending...)
	}
	if err := c.spans(spans); err != nil {
		return nil, err
	}

	if err := ontology.SynthesizeValueAccessors(r); err != nil {
		return nil, err
	}
	return c.result, nil
}

type compilation struct {
	registry *ontology.Registry
	result   *Result
}

type namespaceDecl struct {
	ns    *ontology.Namespace
	value cue.Value
}

type predicateDecl struct {
	ns    *ontology.Namespace
	name  string
	value cue.Value
}

func (c *compilation) namespaces(v cue.Value) ([]namespaceDecl, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var decls []namespaceDecl
	for iter.Next() {
		code := iter.Label()
		val := iter.Value()

		uriVal := val.LookupPath(cue.ParsePath("uri"))
		if !uriVal.Exists() {
			// Extends a namespace registered earlier, e.g. the core vocabulary.
			ns, err := c.registry.NamespaceByCode(code)
			if err != nil {
				return nil, &CompileError{
					Field:   "namespace." + code + ".uri",
					Message: "uri is required for a new namespace",
					Pos:     val.Pos(),
				}
			}
			decls = append(decls, namespaceDecl{ns: ns, value: val})
			continue
		}

		uri, err := uriVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		id, err := optionalID(val)
		if err != nil {
			return nil, err
		}
		ns, err := c.registry.AddNamespace(&ontology.Namespace{ID: id, Code: code, URI: uri})
		if err != nil {
			return nil, &CompileError{Field: "namespace." + code, Message: err.Error(), Pos: val.Pos()}
		}
		c.result.Namespaces = append(c.result.Namespaces, ns)
		decls = append(decls, namespaceDecl{ns: ns, value: val})
	}
	return decls, nil
}

func (c *compilation) concepts(d namespaceDecl) error {
	conceptsVal := d.value.LookupPath(cue.ParsePath("concept"))
	if !conceptsVal.Exists() {
		return nil
	}
	iter, err := conceptsVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}

	for iter.Next() {
		name := iter.Label()
		val := iter.Value()
		field := fmt.Sprintf("namespace.%s.concept.%s", d.ns.Code, name)

		id, err := optionalID(val)
		if err != nil {
			return err
		}
		concept := &ontology.Concept{ID: id, Namespace: d.ns, Name: name}

		table, err := optionalString(val, "table")
		if err != nil {
			return err
		}
		if table == "" {
			concept.Table = ontology.ResourceTable
			concept.Generic = true
		} else {
			concept.Table = table
			concept.Literal = ontology.IsLiteralTable(table)
		}
		if concept.PKColumn, err = optionalString(val, "pk"); err != nil {
			return err
		}
		if litVal := val.LookupPath(cue.ParsePath("literal")); litVal.Exists() {
			lit, err := litVal.Bool()
			if err != nil {
				return formatCUEError(err)
			}
			if lit && table == "" {
				return &CompileError{Field: field, Message: "literal concept requires a table", Pos: val.Pos()}
			}
			concept.Literal = lit
		}

		if err := c.registry.AddConcept(concept); err != nil {
			return &CompileError{Field: field, Message: err.Error(), Pos: val.Pos()}
		}
		c.result.Concepts = append(c.result.Concepts, concept)
	}
	return nil
}

// predicates registers the plain predicates of d and returns its spans.
func (c *compilation) predicates(d namespaceDecl) ([]predicateDecl, error) {
	predsVal := d.value.LookupPath(cue.ParsePath("predicate"))
	if !predsVal.Exists() {
		return nil, nil
	}
	iter, err := predsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var spans []predicateDecl
	for iter.Next() {
		decl := predicateDecl{ns: d.ns, name: iter.Label(), value: iter.Value()}
		if decl.value.LookupPath(cue.ParsePath("span")).Exists() {
			spans = append(spans, decl)
			continue
		}
		if err := c.predicate(decl); err != nil {
			return nil, err
		}
	}
	return spans, nil
}

func (c *compilation) predicate(d predicateDecl) error {
	val := d.value
	field := d.field()

	id, err := optionalID(val)
	if err != nil {
		return err
	}
	p := &ontology.Predicate{ID: id, Namespace: d.ns, Name: d.name}

	for _, ref := range []struct {
		key    string
		target **ontology.Concept
	}{
		{"domain", &p.Domain},
		{"range", &p.Range},
	} {
		code, err := optionalString(val, ref.key)
		if err != nil {
			return err
		}
		if code == "" {
			return &CompileError{Field: field + "." + ref.key, Message: ref.key + " is required", Pos: val.Pos()}
		}
		concept, err := c.concept(d.ns, code)
		if err != nil {
			return &CompileError{Field: field + "." + ref.key, Message: err.Error(), Pos: val.LookupPath(cue.ParsePath(ref.key)).Pos()}
		}
		*ref.target = concept
	}

	if p.Cardinality, err = cardinality(val, field); err != nil {
		return err
	}
	if p.Column, err = optionalString(val, "column"); err != nil {
		return err
	}
	p.Generic = p.Column == ""

	if err := c.registry.AddPredicate(p); err != nil {
		return &CompileError{Field: field, Message: err.Error(), Pos: val.Pos()}
	}
	c.result.Predicates = append(c.result.Predicates, p)
	return nil
}

// spans registers span predicates, deferring any span whose segments are
// themselves spans not yet registered.
func (c *compilation) spans(pending []predicateDecl) error {
	for len(pending) > 0 {
		var deferred []predicateDecl
		var firstErr error
		for _, d := range pending {
			segments, err := c.segments(d)
			if err != nil {
				if ontology.IsNotFound(err) {
					if firstErr == nil {
						firstErr = &CompileError{Field: d.field() + ".span", Message: err.Error(), Pos: d.value.Pos()}
					}
					deferred = append(deferred, d)
					continue
				}
				return err
			}
			if err := c.span(d, segments); err != nil {
				return err
			}
		}
		if len(deferred) == len(pending) {
			return firstErr
		}
		pending = deferred
	}
	return nil
}

func (c *compilation) segments(d predicateDecl) ([]*ontology.Predicate, error) {
	iter, err := d.value.LookupPath(cue.ParsePath("span")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var chain []*ontology.Predicate
	for iter.Next() {
		code, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		seg, err := c.predicateRef(d.ns, code)
		if err != nil {
			return nil, err
		}
		chain = append(chain, seg)
	}
	return chain, nil
}

func (c *compilation) span(d predicateDecl, chain []*ontology.Predicate) error {
	field := d.field()
	for i := 0; i+1 < len(chain); i++ {
		if chain[i].Literal() {
			return &CompileError{
				Field:   field + ".span",
				Message: fmt.Sprintf("segment %s has a literal range and must be last", chain[i].Code()),
				Pos:     d.value.Pos(),
			}
		}
	}

	id, err := optionalID(d.value)
	if err != nil {
		return err
	}
	cards := make([]ontology.Cardinality, len(chain))
	segments := make([]ontology.Segment, len(chain))
	for i, p := range chain {
		cards[i] = p.Cardinality
		segments[i] = ontology.Segment{Predicate: p, Ordinal: i}
	}
	p := &ontology.Predicate{
		ID:          id,
		Namespace:   d.ns,
		Name:        d.name,
		Domain:      chain[0].Domain,
		Range:       chain[len(chain)-1].Range,
		Cardinality: ontology.MergeSpan(cards...),
	}
	p.SetSegments(segments)

	if err := c.registry.AddPredicate(p); err != nil {
		return &CompileError{Field: field, Message: err.Error(), Pos: d.value.Pos()}
	}
	c.result.Predicates = append(c.result.Predicates, p)
	return nil
}

func (d predicateDecl) field() string {
	return fmt.Sprintf("namespace.%s.predicate.%s", d.ns.Code, d.name)
}

func (c *compilation) concept(home *ontology.Namespace, code string) (*ontology.Concept, error) {
	ns, name, err := c.resolve(home, code)
	if err != nil {
		return nil, err
	}
	return c.registry.Concept(ns, name)
}

func (c *compilation) predicateRef(home *ontology.Namespace, code string) (*ontology.Predicate, error) {
	ns, name, err := c.resolve(home, code)
	if err != nil {
		return nil, err
	}
	return c.registry.Predicate(ns, name)
}

// resolve splits a reference, treating an unqualified name as local to home.
func (c *compilation) resolve(home *ontology.Namespace, code string) (*ontology.Namespace, string, error) {
	nsCode, name, err := ontology.SplitCode(code)
	if err != nil {
		return home, code, nil
	}
	ns, err := c.registry.NamespaceByCode(nsCode)
	if err != nil {
		return nil, "", err
	}
	return ns, name, nil
}

func cardinality(v cue.Value, field string) (ontology.Cardinality, error) {
	s, err := optionalString(v, "cardinality")
	if err != nil || s == "" {
		return ontology.OneToOne, err
	}
	card, err := ontology.ParseCardinality(s)
	if err != nil {
		return ontology.Cardinality{}, &CompileError{Field: field + ".cardinality", Message: err.Error(), Pos: v.Pos()}
	}
	return card, nil
}

func optionalString(v cue.Value, key string) (string, error) {
	f := v.LookupPath(cue.ParsePath(key))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalID(v cue.Value) (int64, error) {
	f := v.LookupPath(cue.ParsePath("id"))
	if !f.Exists() {
		return 0, nil
	}
	id, err := f.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return id, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: "cue", Message: err.Error()}
	}

	firstErr := errs[0]
	compileErr := &CompileError{Field: "cue", Message: firstErr.Error()}
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		compileErr.Pos = positions[0]
	}
	return compileErr
}

package rdql

import (
	"fmt"
	"strings"

	"github.com/roach88/rdql/internal/ontology"
)

// DefaultCode names the default namespace: the one unqualified names
// resolve against, declared with a bare string in the USING clause.
const DefaultCode = "_"

// DefaultVariable names the variable a projection without an explicit
// variable is selected against.
const DefaultVariable = "_"

// Separator joins the parts of synthesized names. User symbols may not
// contain it, so synthesized names never collide with user names.
const Separator = "__"

// Query is the AST of one RDQL query.
//
// A Query owns its symbol tables; nothing is shared between queries, so
// separate compilations never observe each other's bindings.
//
// The resolver only adds to a Query: it appends variables and constraints
// and annotates existing nodes with bindings and replacements. Nodes are
// never removed, so the original query stays visible for diagnostics.
type Query struct {
	Namespaces  *Namespaces
	Variables   *Variables
	Projections []*PredicateRef
	Constraints []*Constraint
	Limit       *int64
	Offset      *int64
}

// NewQuery creates an empty query with fresh symbol tables.
func NewQuery() *Query {
	return &Query{
		Namespaces: newNamespaces(),
		Variables:  newVariables(),
	}
}

// Namespaces is the namespaces-by-code symbol table of one query.
// Enumeration follows first-mention order.
type Namespaces struct {
	byCode map[string]*NamespaceRef
	order  []*NamespaceRef
}

func newNamespaces() *Namespaces {
	return &Namespaces{byCode: make(map[string]*NamespaceRef)}
}

// Get returns the entry for code, creating it on first mention.
func (t *Namespaces) Get(code string) *NamespaceRef {
	if n, ok := t.byCode[code]; ok {
		return n
	}
	n := &NamespaceRef{Code: code}
	t.byCode[code] = n
	t.order = append(t.order, n)
	return n
}

// Lookup returns the entry for code if it has been mentioned.
func (t *Namespaces) Lookup(code string) (*NamespaceRef, bool) {
	n, ok := t.byCode[code]
	return n, ok
}

// Default returns the default namespace entry, creating it on first use.
func (t *Namespaces) Default() *NamespaceRef {
	return t.Get(DefaultCode)
}

// All returns the entries in first-mention order.
func (t *Namespaces) All() []*NamespaceRef {
	return append([]*NamespaceRef(nil), t.order...)
}

// Len returns the number of entries.
func (t *Namespaces) Len() int {
	return len(t.order)
}

// Variables is the variables-by-name symbol table of one query.
//
// Enumeration lists the variables declared in the from clause in
// declaration order, then every other variable in first-mention order.
// That order fixes the order of the generated from clause.
type Variables struct {
	byName   map[string]*Variable
	order    []*Variable
	declared []*Variable
}

func newVariables() *Variables {
	return &Variables{byName: make(map[string]*Variable)}
}

// Get returns the variable named name, creating it on first mention.
func (t *Variables) Get(name string) *Variable {
	if v, ok := t.byName[name]; ok {
		return v
	}
	v := &Variable{Name: name}
	t.byName[name] = v
	t.order = append(t.order, v)
	return v
}

// Declare returns the variable named name and records its declaration.
func (t *Variables) Declare(name string) *Variable {
	v := t.Get(name)
	if !v.declared {
		v.declared = true
		t.declared = append(t.declared, v)
	}
	return v
}

// Lookup returns the variable named name if it has been mentioned.
func (t *Variables) Lookup(name string) (*Variable, bool) {
	v, ok := t.byName[name]
	return v, ok
}

// Default returns the default variable, creating it on first use.
func (t *Variables) Default() *Variable {
	return t.Get(DefaultVariable)
}

// Synthesize adds a resolver-generated variable. When name is taken, a
// numeric suffix ("__2", "__3", ...) is appended until it is unique.
func (t *Variables) Synthesize(name string, concept *ConceptRef) *Variable {
	unique := name
	for i := 2; ; i++ {
		if _, taken := t.byName[unique]; !taken {
			break
		}
		unique = fmt.Sprintf("%s%s%d", name, Separator, i)
	}
	v := t.Get(unique)
	v.Concept = concept
	v.Synthesized = true
	return v
}

// All returns the declared variables, then the rest.
func (t *Variables) All() []*Variable {
	out := make([]*Variable, 0, len(t.order))
	out = append(out, t.declared...)
	for _, v := range t.order {
		if !v.declared {
			out = append(out, v)
		}
	}
	return out
}

// Len returns the number of variables.
func (t *Variables) Len() int {
	return len(t.order)
}

// NamespaceRef is a namespace mention. URI is set by a USING declaration;
// Binding is set by the resolver. Both are write-once.
type NamespaceRef struct {
	Code    string
	URI     string
	Pos     Pos
	Binding *ontology.Namespace
}

// SetURI records the declared URI.
func (n *NamespaceRef) SetURI(uri string) error {
	return bindOnce(&n.URI, uri, "uri", n.Code)
}

// Bind attaches the resolved ontology namespace.
func (n *NamespaceRef) Bind(ns *ontology.Namespace) error {
	return bindOnce(&n.Binding, ns, "binding", n.Code)
}

func (n *NamespaceRef) String() string {
	return n.Code
}

// ConceptRef is a concept mention.
//
// Generalized is set by the resolver when the bound concept is generic: it
// names the concept whose table actually stores the instances. Generator
// code should call Storage rather than reading Binding directly.
type ConceptRef struct {
	Namespace   *NamespaceRef
	Name        string
	Pos         Pos
	Binding     *ontology.Concept
	Generalized *ontology.Concept
}

// Bind attaches the resolved ontology concept.
func (c *ConceptRef) Bind(concept *ontology.Concept) error {
	return bindOnce(&c.Binding, concept, "binding", c.Code())
}

// Generalize records the concept whose table stores this concept's
// instances.
func (c *ConceptRef) Generalize(target *ontology.Concept) error {
	return bindOnce(&c.Generalized, target, "generalized", c.Code())
}

// Storage returns the concept that determines the backing table: the
// generalized target if there is one, otherwise the binding.
func (c *ConceptRef) Storage() *ontology.Concept {
	if c.Generalized != nil {
		return c.Generalized
	}
	return c.Binding
}

// Code returns "ns:name".
func (c *ConceptRef) Code() string {
	if c.Namespace == nil {
		return c.Name
	}
	return c.Namespace.Code + ":" + c.Name
}

func (c *ConceptRef) String() string {
	return c.Code()
}

// Variable is a query variable. Concept is write-once.
type Variable struct {
	Name        string
	Concept     *ConceptRef
	Pos         Pos
	Synthesized bool // created by the resolver

	declared bool
	restated []*ConceptRef
}

// SetConcept assigns the variable's concept. Assigning a concept with the
// same code again is a no-op.
//
// Two different codes may still name the same ontology concept, so a
// restatement under another code is only compared once both references
// are bound. Until then it is kept for CheckConcept.
func (v *Variable) SetConcept(c *ConceptRef) error {
	switch {
	case v.Concept == nil:
		v.Concept = c
		return nil
	case v.Concept == c || v.Concept.Code() == c.Code():
		return nil
	case v.Concept.Binding != nil && c.Binding != nil:
		if v.Concept.Binding == c.Binding {
			return nil
		}
		return v.conceptConflict(c)
	default:
		v.restated = append(v.restated, c)
		return nil
	}
}

// Restated returns the references that named the variable's concept under
// a different code and are not yet checked.
func (v *Variable) Restated() []*ConceptRef {
	return v.restated
}

// CheckConcept compares the bindings of restated references with the
// binding of Concept. Every reference must be bound.
func (v *Variable) CheckConcept() error {
	for _, c := range v.restated {
		if c.Binding == nil || v.Concept.Binding == nil {
			return fmt.Errorf("variable %s: concept %s is not bound", v.Name, c.Code())
		}
		if c.Binding != v.Concept.Binding {
			return v.conceptConflict(c)
		}
	}
	v.restated = nil
	return nil
}

func (v *Variable) conceptConflict(c *ConceptRef) error {
	return &ConflictError{Field: "concept", Owner: "variable " + v.Name, Old: v.Concept.Code(), New: c.Code()}
}

// Literal reports whether the variable's bound concept is a literal.
func (v *Variable) Literal() bool {
	return v.Concept != nil && v.Concept.Binding != nil && v.Concept.Binding.Literal
}

func (v *Variable) String() string {
	return v.Name
}

func (*Variable) termNode() {}

// PredicateRef is a predicate mention, either a projection or the predicate
// of a constraint. Variable is the variable it is selected or constrained
// against.
type PredicateRef struct {
	Namespace   *NamespaceRef
	Name        string
	Variable    *Variable
	Pos         Pos
	Binding     *ontology.Predicate
	Replacement PredicateReplacement
}

// Bind attaches the resolved ontology predicate.
func (p *PredicateRef) Bind(pred *ontology.Predicate) error {
	return bindOnce(&p.Binding, pred, "binding", p.Code())
}

// Replace annotates the reference with its replacement.
func (p *PredicateRef) Replace(r PredicateReplacement) error {
	if p.Replacement != nil {
		return &ConflictError{Field: "replacement", Owner: p.Code(), Old: fmt.Sprint(p.Replacement), New: fmt.Sprint(r)}
	}
	p.Replacement = r
	return nil
}

// Effective follows replacements to the reference that is actually read.
func (p *PredicateRef) Effective() *PredicateRef {
	ref := p
	for ref.Replacement != nil {
		switch r := ref.Replacement.(type) {
		case Spanned:
			ref = r.Ref
		case Generalized:
			ref = r.Ref
		default:
			return ref
		}
	}
	return ref
}

// Code returns "ns:name".
func (p *PredicateRef) Code() string {
	if p.Namespace == nil {
		return p.Name
	}
	return p.Namespace.Code + ":" + p.Name
}

// Key returns "var.ns:name", the label of a projected column.
func (p *PredicateRef) Key() string {
	if p.Variable == nil {
		return p.Code()
	}
	return p.Variable.Name + "." + p.Code()
}

func (p *PredicateRef) String() string {
	return p.Key()
}

// PredicateReplacement is the annotation left on a PredicateRef that has
// been rewritten.
//
// This is a sealed interface - only types in this package implement it.
//
// Replacement types:
//   - Spanned: the terminal segment of an expanded span
//   - Generalized: a value column read through the statement table
type PredicateReplacement interface {
	predicateReplacement()
}

// Spanned replaces a span predicate with its terminal segment, selected
// against the last synthesized variable of the chain.
type Spanned struct {
	Ref *PredicateRef
}

func (Spanned) predicateReplacement() {}

// Generalized replaces a generic predicate with a dedicated-column
// predicate on the synthesized object variable.
type Generalized struct {
	Ref *PredicateRef
}

func (Generalized) predicateReplacement() {}

// Term is the object of a constraint.
//
// This is a sealed interface - only *Variable and Constant implement it.
type Term interface {
	termNode()
}

// ConstantKind classifies constants.
type ConstantKind int

const (
	StringConstant ConstantKind = iota
	IntegerConstant
	DecimalConstant
	IDConstant // an ontology identifier inserted by the resolver
)

// Constant is a literal constraint object.
type Constant struct {
	Kind ConstantKind
	Text string // value as written, string contents without quotes
	SQL  string // SQL literal
	Pos  Pos
}

func (Constant) termNode() {}

func (c Constant) String() string {
	return c.SQL
}

// IDConstantOf builds the constant for an ontology identifier.
func IDConstantOf(id int64) Constant {
	s := fmt.Sprintf("%d", id)
	return Constant{Kind: IDConstant, Text: s, SQL: s}
}

// QuoteString renders s as a single-quoted SQL string literal.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Constraint is one where-clause triple.
type Constraint struct {
	Subject     *Variable
	Predicate   *PredicateRef
	Object      Term
	Pos         Pos
	Synthesized bool
	Replacement ConstraintReplacement
}

// Replace annotates the constraint with its replacement.
func (c *Constraint) Replace(r ConstraintReplacement) error {
	if c.Replacement != nil {
		return &ConflictError{Field: "replacement", Owner: c.String(), Old: fmt.Sprint(c.Replacement), New: fmt.Sprint(r)}
	}
	c.Replacement = r
	return nil
}

// Expand follows replacements and returns the constraints that are actually
// emitted for c, in order.
func (c *Constraint) Expand() []*Constraint {
	switch r := c.Replacement.(type) {
	case SpannedConstraints:
		var out []*Constraint
		for _, link := range r.Chain {
			out = append(out, link.Expand()...)
		}
		return out
	case GeneralizedConstraints:
		var out []*Constraint
		for _, link := range []*Constraint{r.Subject, r.Predicate, r.Object, r.Value} {
			if link != nil {
				out = append(out, link.Expand()...)
			}
		}
		return out
	default:
		return []*Constraint{c}
	}
}

func (c *Constraint) String() string {
	return fmt.Sprintf("%s %s %s", c.Subject, c.Predicate.Code(), c.Object)
}

// ConstraintReplacement is the annotation left on a Constraint that has
// been rewritten.
//
// This is a sealed interface - only types in this package implement it.
type ConstraintReplacement interface {
	constraintReplacement()
}

// SpannedConstraints replaces a constraint on a span predicate with one
// constraint per segment.
type SpannedConstraints struct {
	Chain []*Constraint
}

func (SpannedConstraints) constraintReplacement() {}

// GeneralizedConstraints replaces a constraint on a generic predicate with
// the subject, predicate and object links through a statement row.
//
// Value is set only when a literal-valued generic predicate is compared
// with a constant: Object then links the statement to a synthesized literal
// variable and Value compares that variable's value with the constant.
type GeneralizedConstraints struct {
	Subject   *Constraint
	Predicate *Constraint
	Object    *Constraint
	Value     *Constraint
}

func (GeneralizedConstraints) constraintReplacement() {}

// bindOnce implements write-once fields: unset takes the value, an equal
// value is a no-op, a different value is a ConflictError.
func bindOnce[T comparable](field *T, v T, name, owner string) error {
	var zero T
	switch *field {
	case zero:
		*field = v
		return nil
	case v:
		return nil
	default:
		return &ConflictError{Field: name, Owner: owner, Old: fmt.Sprint(*field), New: fmt.Sprint(v)}
	}
}

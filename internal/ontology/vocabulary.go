package ontology

import (
	"fmt"
	"strings"
)

// Canonical URIs of the core vocabularies.
const (
	RDFURI   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSURI  = "http://www.w3.org/2000/01/rdf-schema#"
	OWLURI   = "http://www.w3.org/2002/07/owl#"
	XSURI    = "http://www.w3.org/2001/XMLSchema#"
	DCURI    = "http://purl.org/dc/elements/1.1/"
	DRDFSURI = "urn:rdql:schema#"
)

// Codes of the core vocabularies.
const (
	RDF   = "rdf"
	RDFS  = "rdfs"
	OWL   = "owl"
	XS    = "xs"
	DC    = "dc"
	DRDFS = "drdfs"
)

// Tables and columns of the generic storage layout.
const (
	ResourceTable  = "rdf_resource"
	StatementTable = "rdf_statement"

	// IDColumn is the primary key of every core and literal table.
	IDColumn = "id"
	// StatementIDColumn links a literal row to the statement that owns it.
	StatementIDColumn = "statement_id"
	// ValueColumn holds the value of a literal row.
	ValueColumn = "value"
)

// Local names of the well-known predicates and concepts.
const (
	Type          = "type"
	Subject       = "subject"
	PredicateName = "predicate"
	Object        = "object"
	About         = "about"
	Resource      = "Resource"
	Statement     = "Statement"
	Class         = "Class"
	Property      = "Property"
)

// LiteralTable describes one of the literal value tables.
type LiteralTable struct {
	Table string
	Types []string // xs local names stored in Table
}

// LiteralTables lists the literal storage tables in creation order.
var LiteralTables = []LiteralTable{
	{Table: "rdf_string", Types: []string{"string"}},
	{Table: "rdf_boolean", Types: []string{"boolean"}},
	{Table: "rdf_date", Types: []string{"date"}},
	{Table: "rdf_time", Types: []string{"time", "dateTime"}},
	{Table: "rdf_duration", Types: []string{"duration"}},
	{Table: "rdf_decimal", Types: []string{"decimal"}},
	{Table: "rdf_float", Types: []string{"double", "float"}},
}

// IsLiteralTable reports whether table is one of LiteralTables.
func IsLiteralTable(table string) bool {
	for _, lt := range LiteralTables {
		if lt.Table == table {
			return true
		}
	}
	return false
}

// ValueAccessorName returns the drdfs local name of the predicate that
// reads the value column of a literal concept, e.g. "_xsstringvalue".
func ValueAccessorName(c *Concept) string {
	return valueConceptName(c) + ValueColumn
}

func valueConceptName(c *Concept) string {
	code := ""
	if c.Namespace != nil {
		code = c.Namespace.Code
	}
	return strings.ReplaceAll("_"+code+c.Name, "-", "_")
}

// NewCore returns a registry holding the core vocabulary and the value
// accessors of its literal types.
func NewCore() (*Registry, error) {
	r := NewRegistry()
	if err := Bootstrap(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Bootstrap installs the core namespaces, concepts and predicates into r.
// Identifiers are assigned in a fixed order, so two bootstrapped registries
// agree on every core identifier.
func Bootstrap(r *Registry) error {
	ns := make(map[string]*Namespace)
	for _, n := range []struct{ code, uri string }{
		{RDF, RDFURI},
		{RDFS, RDFSURI},
		{OWL, OWLURI},
		{XS, XSURI},
		{DC, DCURI},
		{DRDFS, DRDFSURI},
	} {
		added, err := r.AddNamespace(&Namespace{Code: n.code, URI: n.uri})
		if err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		ns[n.code] = added
	}

	resource := &Concept{Namespace: ns[RDFS], Name: Resource, Table: ResourceTable}
	statement := &Concept{Namespace: ns[RDF], Name: Statement, Table: StatementTable}
	class := &Concept{Namespace: ns[RDFS], Name: Class, Table: ResourceTable, Generic: true}
	property := &Concept{Namespace: ns[RDF], Name: Property, Table: ResourceTable, Generic: true}
	uri := &Concept{Namespace: ns[DRDFS], Name: "uri", Table: ResourceTable, Literal: true}

	concepts := []*Concept{resource, statement, class, property, uri}
	var xsString *Concept
	for _, lt := range LiteralTables {
		for _, name := range lt.Types {
			c := &Concept{Namespace: ns[XS], Name: name, Table: lt.Table, Literal: true}
			if name == "string" {
				xsString = c
			}
			concepts = append(concepts, c)
		}
	}
	for _, c := range concepts {
		if err := r.AddConcept(c); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}

	predicates := []*Predicate{
		{Namespace: ns[RDF], Name: Type, Column: "type_id", Domain: resource, Range: class, Cardinality: OneToOne},
		{Namespace: ns[RDF], Name: Subject, Column: "subject_id", Domain: statement, Range: resource, Cardinality: AnyToOne},
		{Namespace: ns[RDF], Name: PredicateName, Column: "predicate_id", Domain: statement, Range: property, Cardinality: AnyToOne},
		{Namespace: ns[RDF], Name: Object, Column: "object_resource_id", Domain: statement, Range: resource, Cardinality: AnyToOne},
		{Namespace: ns[RDF], Name: About, Column: "name", Domain: resource, Range: uri, Cardinality: OneToOne},
		{Namespace: ns[DC], Name: "title", Domain: resource, Range: xsString, Cardinality: Cardinality{Domain: ZeroOrMore, Range: ZeroOrOne}, Generic: true},
		{Namespace: ns[DC], Name: "description", Domain: resource, Range: xsString, Cardinality: Cardinality{Domain: ZeroOrMore, Range: ZeroOrOne}, Generic: true},
	}
	for _, p := range predicates {
		if err := r.AddPredicate(p); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}

	return SynthesizeValueAccessors(r)
}

// SynthesizeValueAccessors adds, for every literal concept stored in a
// literal table, the drdfs concept "_<code><name>" and the predicate
// "_<code><name>value" reading its value column. Existing accessors are
// left alone, so the function may be called again after loading more
// ontology.
func SynthesizeValueAccessors(r *Registry) error {
	drdfs, err := r.NamespaceByCode(DRDFS)
	if err != nil {
		return fmt.Errorf("value accessors: %w", err)
	}

	for _, c := range r.Concepts() {
		if !c.Literal || !IsLiteralTable(c.Table) || c.Namespace == drdfs {
			continue
		}
		if _, err := r.Predicate(drdfs, ValueAccessorName(c)); err == nil {
			continue
		}

		target, err := r.Concept(drdfs, valueConceptName(c))
		if err != nil {
			target = &Concept{Namespace: drdfs, Name: valueConceptName(c), Table: c.Table, Literal: true}
			if err := r.AddConcept(target); err != nil {
				return fmt.Errorf("value accessors: %w", err)
			}
		}
		accessor := &Predicate{
			Namespace:   drdfs,
			Name:        ValueAccessorName(c),
			Column:      ValueColumn,
			Domain:      c,
			Range:       target,
			Cardinality: OneToOne,
		}
		if err := r.AddPredicate(accessor); err != nil {
			return fmt.Errorf("value accessors: %w", err)
		}
	}
	return nil
}

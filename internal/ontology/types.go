package ontology

import (
	"fmt"
	"sort"
	"strings"
)

// Namespace is an ontology namespace with a short code and a canonical URI.
type Namespace struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	URI  string `json:"uri"`
}

func (n *Namespace) String() string {
	return n.Code
}

// Concept is an ontology type.
//
// Generic concepts have no dedicated table; their instances are rows of the
// generic resource table distinguished by type_id.
type Concept struct {
	ID        int64      `json:"id"`
	Namespace *Namespace `json:"namespace"`
	Name      string     `json:"name"`
	Table     string     `json:"table"`     // backing table
	PKColumn  string     `json:"pk_column"` // primary key column of Table
	Literal   bool       `json:"literal"`   // values are stored in a literal table
	Generic   bool       `json:"generic"`   // instances live in the generic resource table
}

// Code returns the qualified "ns:name" form.
func (c *Concept) Code() string {
	return qualify(c.Namespace, c.Name)
}

func (c *Concept) String() string {
	return c.Code()
}

// Segment is one ordered component of a span predicate.
type Segment struct {
	Predicate *Predicate `json:"predicate"`
	Ordinal   int        `json:"ordinal"`
}

// Predicate is an ontology attribute or relation.
//
// A predicate is backed by a dedicated column (Column set, Generic false),
// by the generic statement table (Generic true), or is a span composed of
// ordered Segments.
type Predicate struct {
	ID          int64       `json:"id"`
	Namespace   *Namespace  `json:"namespace"`
	Name        string      `json:"name"`
	Column      string      `json:"column,omitempty"`
	Domain      *Concept    `json:"domain"`
	Range       *Concept    `json:"range"`
	Cardinality Cardinality `json:"cardinality"`
	Generic     bool        `json:"generic"`
	Segments    []Segment   `json:"segments,omitempty"` // ascending Ordinal
}

// Literal reports whether the predicate's range is a literal concept.
func (p *Predicate) Literal() bool {
	return p.Range != nil && p.Range.Literal
}

// IsSpan reports whether the predicate is composed of segments.
func (p *Predicate) IsSpan() bool {
	return len(p.Segments) > 0
}

// Code returns the qualified "ns:name" form.
func (p *Predicate) Code() string {
	return qualify(p.Namespace, p.Name)
}

func (p *Predicate) String() string {
	return p.Code()
}

// SetSegments installs the span segments sorted by ordinal.
func (p *Predicate) SetSegments(segments []Segment) {
	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Ordinal < sorted[j].Ordinal
	})
	p.Segments = sorted
}

func qualify(ns *Namespace, name string) string {
	if ns == nil {
		return name
	}
	return ns.Code + ":" + name
}

// SplitCode splits "ns:name" into its namespace code and local name.
func SplitCode(code string) (string, string, error) {
	ns, name, ok := strings.Cut(code, ":")
	if !ok || ns == "" || name == "" || strings.Contains(name, ":") {
		return "", "", fmt.Errorf("malformed qualified name %q: want ns:name", code)
	}
	return ns, name, nil
}

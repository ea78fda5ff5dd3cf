// Package querysql generates SQL text from resolved RDQL queries.
package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/rdql/internal/ontology"
	"github.com/roach88/rdql/internal/rdql"
)

// ErrUnsupportedProjection is wrapped when a projection does not resolve to
// a literal-valued column.
var ErrUnsupportedProjection = errors.New("projection of non-literal predicate not supported")

// GenerationError reports a resolved query the generator cannot emit.
type GenerationError struct {
	Clause  Clause
	Subject string // offending reference, e.g. "c.tmp:P"
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("generate %s: %v", e.Clause, e.Err)
	}
	return fmt.Sprintf("generate %s: %s: %v", e.Clause, e.Subject, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsGenerationError reports whether err is a GenerationError.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

// Clause identifies one clause of the generated SQL.
type Clause int

const (
	SelectClause Clause = iota
	FromClause
	WhereClause
	RangeClause
)

func (c Clause) String() string {
	switch c {
	case SelectClause:
		return "select"
	case FromClause:
		return "from"
	case WhereClause:
		return "where"
	case RangeClause:
		return "range"
	default:
		return fmt.Sprintf("clause(%d)", int(c))
	}
}

// Column labels one projected column of the generated select.
//
// Predicate is the predicate the query names. Source is the predicate whose
// column is selected after the resolver rewrote the projection, and its
// range decides how stored values decode.
type Column struct {
	Key       string              `json:"key"`     // "c.tmp:P"
	Mangled   string              `json:"mangled"` // "c__tmp__P"
	Predicate *ontology.Predicate `json:"predicate"`
	Source    *ontology.Predicate `json:"source"`
}

// Statement is the SQL generated for one resolved query.
//
// Select and Count both end with the range clause when the query has one.
// Range holds that clause alone so callers can strip it from Count.
type Statement struct {
	Select  string   `json:"select"`
	Count   string   `json:"count"`
	Range   string   `json:"range,omitempty"`
	Limit   *int64   `json:"limit,omitempty"`
	Offset  *int64   `json:"offset,omitempty"`
	Columns []Column `json:"columns"`
}

// CountWithoutRange returns the count SQL with the range clause removed.
func (s *Statement) CountWithoutRange() string {
	if s.Range == "" {
		return s.Count
	}
	return strings.TrimSuffix(s.Count, " "+s.Range)
}

// Generator emits SQL for queries that have been through every resolver
// phase. It keeps no state between calls.
type Generator struct{}

// NewGenerator creates a Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate converts a resolved query to a Statement.
func (g *Generator) Generate(q *rdql.Query) (*Statement, error) {
	if q == nil {
		return nil, fmt.Errorf("cannot generate nil query")
	}

	sel, columns, err := g.selectList(q)
	if err != nil {
		return nil, err
	}
	rest, err := g.body(q)
	if err != nil {
		return nil, err
	}
	rng := rangeClause(q.Limit, q.Offset)

	return &Statement{
		Select:  assemble("select "+sel, rest, rng),
		Count:   assemble("select count(*)", rest, rng),
		Range:   rng,
		Limit:   q.Limit,
		Offset:  q.Offset,
		Columns: columns,
	}, nil
}

// Clause renders a single clause of q. The select clause is returned
// without its keyword; an empty where or range clause is "".
func (g *Generator) Clause(q *rdql.Query, kind Clause) (string, error) {
	switch kind {
	case SelectClause:
		sel, _, err := g.selectList(q)
		return sel, err
	case FromClause:
		return g.fromList(q)
	case WhereClause:
		return g.whereList(q)
	case RangeClause:
		return rangeClause(q.Limit, q.Offset), nil
	default:
		return "", &GenerationError{Clause: kind, Err: fmt.Errorf("unrecognized clause kind")}
	}
}

func assemble(head, body, rng string) string {
	sql := head + " " + body
	if rng != "" {
		sql += " " + rng
	}
	return sql
}

// body renders "from ...[ where ...]".
func (g *Generator) body(q *rdql.Query) (string, error) {
	from, err := g.fromList(q)
	if err != nil {
		return "", err
	}
	where, err := g.whereList(q)
	if err != nil {
		return "", err
	}
	if where == "" {
		return "from " + from, nil
	}
	return "from " + from + " where " + where, nil
}

func (g *Generator) selectList(q *rdql.Query) (string, []Column, error) {
	if len(q.Projections) == 0 {
		return "", nil, &GenerationError{Clause: SelectClause, Err: fmt.Errorf("no projections")}
	}
	exprs := make([]string, 0, len(q.Projections))
	columns := make([]Column, 0, len(q.Projections))
	for _, p := range q.Projections {
		eff := p.Effective()
		pred := eff.Binding
		if pred == nil || eff.Variable == nil || p.Binding == nil {
			return "", nil, &GenerationError{Clause: SelectClause, Subject: p.Key(), Err: fmt.Errorf("unresolved projection")}
		}
		if !pred.Literal() || pred.Column == "" {
			return "", nil, &GenerationError{Clause: SelectClause, Subject: p.Key(), Err: ErrUnsupportedProjection}
		}
		exprs = append(exprs, eff.Variable.Name+"."+pred.Column)
		columns = append(columns, Column{
			Key:       p.Key(),
			Mangled:   mangle(p),
			Predicate: p.Binding,
			Source:    pred,
		})
	}
	return strings.Join(exprs, ", "), columns, nil
}

func (g *Generator) fromList(q *rdql.Query) (string, error) {
	vars := q.Variables.All()
	tables := make([]string, 0, len(vars))
	for _, v := range vars {
		storage, err := storageOf(v)
		if err != nil {
			return "", &GenerationError{Clause: FromClause, Subject: v.Name, Err: err}
		}
		tables = append(tables, storage.Table+" "+v.Name)
	}
	return strings.Join(tables, ", "), nil
}

func (g *Generator) whereList(q *rdql.Query) (string, error) {
	var terms []string
	for _, c := range q.Constraints {
		for _, leaf := range c.Expand() {
			term, err := g.term(leaf)
			if err != nil {
				return "", &GenerationError{Clause: WhereClause, Subject: leaf.String(), Err: err}
			}
			terms = append(terms, term)
		}
	}
	return strings.Join(terms, " and "), nil
}

// term renders one constraint as "<subject>.<column> = <object>".
func (g *Generator) term(c *rdql.Constraint) (string, error) {
	pred := c.Predicate.Binding
	if pred == nil {
		return "", fmt.Errorf("unresolved predicate %s", c.Predicate.Code())
	}

	switch obj := c.Object.(type) {
	case rdql.Constant:
		if pred.Column == "" {
			return "", fmt.Errorf("predicate %s has no column", pred.Code())
		}
		return fmt.Sprintf("%s.%s = %s", c.Subject.Name, pred.Column, obj.SQL), nil

	case *rdql.Variable:
		storage, err := storageOf(obj)
		if err != nil {
			return "", err
		}
		if obj.Literal() {
			return fmt.Sprintf("%s.%s = %s.%s", c.Subject.Name, ontology.IDColumn, obj.Name, ontology.StatementIDColumn), nil
		}
		if pred.Column == "" {
			return "", fmt.Errorf("predicate %s has no column", pred.Code())
		}
		return fmt.Sprintf("%s.%s = %s.%s", c.Subject.Name, pred.Column, obj.Name, storage.PKColumn), nil

	default:
		return "", fmt.Errorf("unsupported object %T", c.Object)
	}
}

func storageOf(v *rdql.Variable) (*ontology.Concept, error) {
	if v.Concept == nil || v.Concept.Storage() == nil {
		return nil, fmt.Errorf("variable %s has no concept", v.Name)
	}
	return v.Concept.Storage(), nil
}

// rangeClause renders "limit N[ offset M]". SQLite only accepts offset
// after a limit, so a bare offset is written with limit -1.
func rangeClause(limit, offset *int64) string {
	switch {
	case limit == nil && offset == nil:
		return ""
	case offset == nil:
		return fmt.Sprintf("limit %d", *limit)
	case limit == nil:
		return fmt.Sprintf("limit -1 offset %d", *offset)
	default:
		return fmt.Sprintf("limit %d offset %d", *limit, *offset)
	}
}

// mangle turns "c.tmp:P" into "c__tmp__P", a form usable as a SQL alias or
// map key.
func mangle(p *rdql.PredicateRef) string {
	parts := []string{}
	if p.Variable != nil {
		parts = append(parts, p.Variable.Name)
	}
	if p.Namespace != nil {
		parts = append(parts, p.Namespace.Code)
	}
	parts = append(parts, p.Name)
	return strings.Join(parts, rdql.Separator)
}

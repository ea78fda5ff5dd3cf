package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/roach88/rdql/internal/ontology"
)

// SaveOntology writes every element of r in a single transaction.
// Uses ON CONFLICT DO NOTHING, so saving the same registry twice is a
// no-op and saving an extended registry adds only the new elements.
func (s *Store) SaveOntology(ctx context.Context, r *ontology.Registry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save ontology: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, ns := range r.Namespaces() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ontology_namespace (id, code, uri)
			VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
		`, ns.ID, ns.Code, ns.URI); err != nil {
			return fmt.Errorf("save namespace %s: %w", ns.Code, err)
		}
	}

	for _, c := range r.Concepts() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ontology_concept (id, namespace_id, name, table_name, pk_column, literal, generic)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, c.ID, c.Namespace.ID, c.Name, c.Table, c.PKColumn, c.Literal, c.Generic); err != nil {
			return fmt.Errorf("save concept %s: %w", c.Code(), err)
		}
	}

	predicates := r.Predicates()
	for _, p := range predicates {
		var domainID sql.NullInt64
		if p.Domain != nil {
			domainID = sql.NullInt64{Int64: p.Domain.ID, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ontology_predicate (id, namespace_id, name, column_name, domain_id, range_id, cardinality, generic)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, p.ID, p.Namespace.ID, p.Name, p.Column, domainID, p.Range.ID, p.Cardinality.String(), p.Generic); err != nil {
			return fmt.Errorf("save predicate %s: %w", p.Code(), err)
		}
	}
	for _, p := range predicates {
		for _, seg := range p.Segments {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO ontology_segment (span_id, ordinal, predicate_id)
				VALUES (?, ?, ?)
				ON CONFLICT DO NOTHING
			`, p.ID, seg.Ordinal, seg.Predicate.ID); err != nil {
				return fmt.Errorf("save segment %d of %s: %w", seg.Ordinal, p.Code(), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save ontology: commit: %w", err)
	}
	return nil
}

// LoadOntology reads the stored ontology into a new Registry.
// An empty database yields an empty registry.
//
// Elements are registered in identifier order; a span whose segments have
// not been registered yet is retried after the rest.
func (s *Store) LoadOntology(ctx context.Context) (*ontology.Registry, error) {
	r := ontology.NewRegistry()

	namespaces, err := s.loadNamespaces(ctx, r)
	if err != nil {
		return nil, err
	}
	concepts, err := s.loadConcepts(ctx, r, namespaces)
	if err != nil {
		return nil, err
	}
	if err := s.loadPredicates(ctx, r, namespaces, concepts); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) loadNamespaces(ctx context.Context, r *ontology.Registry) (map[int64]*ontology.Namespace, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, uri FROM ontology_namespace ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query namespaces: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*ontology.Namespace)
	for rows.Next() {
		ns := &ontology.Namespace{}
		if err := rows.Scan(&ns.ID, &ns.Code, &ns.URI); err != nil {
			return nil, fmt.Errorf("scan namespace: %w", err)
		}
		if _, err := r.AddNamespace(ns); err != nil {
			return nil, fmt.Errorf("load namespace: %w", err)
		}
		byID[ns.ID] = ns
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate namespaces: %w", err)
	}
	return byID, nil
}

func (s *Store) loadConcepts(ctx context.Context, r *ontology.Registry, namespaces map[int64]*ontology.Namespace) (map[int64]*ontology.Concept, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, namespace_id, name, table_name, pk_column, literal, generic
		FROM ontology_concept ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query concepts: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*ontology.Concept)
	for rows.Next() {
		var nsID int64
		c := &ontology.Concept{}
		if err := rows.Scan(&c.ID, &nsID, &c.Name, &c.Table, &c.PKColumn, &c.Literal, &c.Generic); err != nil {
			return nil, fmt.Errorf("scan concept: %w", err)
		}
		c.Namespace = namespaces[nsID]
		if err := r.AddConcept(c); err != nil {
			return nil, fmt.Errorf("load concept: %w", err)
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate concepts: %w", err)
	}
	return byID, nil
}

type storedPredicate struct {
	p        *ontology.Predicate
	segments []storedSegment
}

type storedSegment struct {
	ordinal     int
	predicateID int64
}

func (s *Store) loadPredicates(ctx context.Context, r *ontology.Registry, namespaces map[int64]*ontology.Namespace, concepts map[int64]*ontology.Concept) error {
	segments, err := s.loadSegments(ctx)
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, namespace_id, name, column_name, domain_id, range_id, cardinality, generic
		FROM ontology_predicate ORDER BY id ASC
	`)
	if err != nil {
		return fmt.Errorf("query predicates: %w", err)
	}
	defer rows.Close()

	var pending []storedPredicate
	for rows.Next() {
		var (
			nsID, rangeID int64
			domainID      sql.NullInt64
			card          string
		)
		p := &ontology.Predicate{}
		if err := rows.Scan(&p.ID, &nsID, &p.Name, &p.Column, &domainID, &rangeID, &card, &p.Generic); err != nil {
			return fmt.Errorf("scan predicate: %w", err)
		}
		p.Namespace = namespaces[nsID]
		p.Range = concepts[rangeID]
		if domainID.Valid {
			p.Domain = concepts[domainID.Int64]
		}
		if p.Cardinality, err = ontology.ParseCardinality(card); err != nil {
			return fmt.Errorf("predicate %d: %w", p.ID, err)
		}
		pending = append(pending, storedPredicate{p: p, segments: segments[p.ID]})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate predicates: %w", err)
	}
	rows.Close()

	registered := make(map[int64]*ontology.Predicate)
	for len(pending) > 0 {
		var deferred []storedPredicate
		for _, sp := range pending {
			segs, ok := resolveSegments(sp.segments, registered)
			if !ok {
				deferred = append(deferred, sp)
				continue
			}
			sp.p.SetSegments(segs)
			if err := r.AddPredicate(sp.p); err != nil {
				return fmt.Errorf("load predicate: %w", err)
			}
			registered[sp.p.ID] = sp.p
		}
		if len(deferred) == len(pending) {
			return fmt.Errorf("load predicates: span %s has unresolvable segments", deferred[0].p.Code())
		}
		pending = deferred
	}
	return nil
}

func resolveSegments(stored []storedSegment, registered map[int64]*ontology.Predicate) ([]ontology.Segment, bool) {
	segs := make([]ontology.Segment, 0, len(stored))
	for _, s := range stored {
		p, ok := registered[s.predicateID]
		if !ok {
			return nil, false
		}
		segs = append(segs, ontology.Segment{Predicate: p, Ordinal: s.ordinal})
	}
	return segs, true
}

func (s *Store) loadSegments(ctx context.Context) (map[int64][]storedSegment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT span_id, ordinal, predicate_id FROM ontology_segment
		ORDER BY span_id ASC, ordinal ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]storedSegment)
	for rows.Next() {
		var spanID int64
		var seg storedSegment
		if err := rows.Scan(&spanID, &seg.ordinal, &seg.predicateID); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		out[spanID] = append(out[spanID], seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segments: %w", err)
	}
	for _, segs := range out {
		sort.Slice(segs, func(i, j int) bool { return segs[i].ordinal < segs[j].ordinal })
	}
	return out, nil
}

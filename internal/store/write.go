package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/rdql/internal/ontology"
)

// AddResource inserts a resource named uri with the given type.
// Returns the ID and whether a new record was inserted.
//
// Uses ON CONFLICT(name) DO NOTHING for idempotency: adding an existing
// resource returns its ID and inserted=false. The type of an existing
// resource is not changed.
func (s *Store) AddResource(ctx context.Context, uri string, typ *ontology.Concept) (id int64, inserted bool, err error) {
	if typ == nil || typ.ID == 0 {
		return 0, false, fmt.Errorf("add resource %s: type is required", uri)
	}
	if typ.Table != ontology.ResourceTable {
		return 0, false, fmt.Errorf("add resource %s: %s is stored in %s, not %s", uri, typ.Code(), typ.Table, ontology.ResourceTable)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("add resource: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO rdf_resource (name, type_id)
		VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, uri, typ.ID)
	if err != nil {
		return 0, false, fmt.Errorf("add resource %s: %w", uri, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("add resource: rows affected: %w", err)
	}

	if affected > 0 {
		id, err = result.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("add resource: last insert id: %w", err)
		}
		inserted = true
	} else {
		err = tx.QueryRowContext(ctx, `SELECT id FROM rdf_resource WHERE name = ?`, uri).Scan(&id)
		if err != nil {
			return 0, false, fmt.Errorf("add resource: select existing: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("add resource: commit: %w", err)
	}
	return id, inserted, nil
}

// ResourceID returns the ID of the resource named uri.
// Returns sql.ErrNoRows (wrapped) if there is none.
func (s *Store) ResourceID(ctx context.Context, uri string) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM rdf_resource WHERE name = ?`, uri).Scan(&id); err != nil {
		return 0, fmt.Errorf("resource %s: %w", uri, err)
	}
	return id, nil
}

// AddStatement records the value of a generic predicate for subject.
//
// For a literal predicate, object is a Go value matching the literal table
// of the predicate's range (string, bool, time.Time, time.Duration,
// *apd.Decimal, float64, or the string form of any of them); it is stored
// in that table linked to the new statement. Otherwise object is the ID of
// the object resource.
func (s *Store) AddStatement(ctx context.Context, subject int64, pred *ontology.Predicate, object any) (int64, error) {
	if pred == nil {
		return 0, fmt.Errorf("add statement: predicate is required")
	}
	if !pred.Generic || pred.IsSpan() {
		return 0, fmt.Errorf("add statement: %s is not stored as statements", pred.Code())
	}

	var (
		value    any
		objectID sql.NullInt64
		table    string
	)
	if pred.Literal() {
		table = pred.Range.Table
		if !ontology.IsLiteralTable(table) {
			return 0, fmt.Errorf("add statement: range %s of %s has no literal table", pred.Range.Code(), pred.Code())
		}
		v, err := marshalLiteral(table, object)
		if err != nil {
			return 0, fmt.Errorf("add statement %s: %w", pred.Code(), err)
		}
		value = v
	} else {
		id, ok := object.(int64)
		if !ok {
			return 0, fmt.Errorf("add statement %s: object must be a resource id, got %T", pred.Code(), object)
		}
		objectID = sql.NullInt64{Int64: id, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("add statement: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO rdf_statement (subject_id, predicate_id, object_resource_id)
		VALUES (?, ?, ?)
	`, subject, pred.ID, objectID)
	if err != nil {
		return 0, fmt.Errorf("add statement %s: %w", pred.Code(), err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add statement: last insert id: %w", err)
	}

	if table != "" {
		// table is one of ontology.LiteralTables.
		query := fmt.Sprintf(`INSERT INTO %s (statement_id, value) VALUES (?, ?)`, table)
		if _, err := tx.ExecContext(ctx, query, id, value); err != nil {
			return 0, fmt.Errorf("add statement %s: value: %w", pred.Code(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("add statement: commit: %w", err)
	}
	return id, nil
}

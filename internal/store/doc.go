// Package store provides SQLite-backed storage for an RDQL ontology and the
// RDF data it describes, and executes compiled queries against it.
//
// # Tables
//
//   - ontology_*: namespaces, concepts, predicates and span segments of a
//     Registry, keyed by their registry identifiers
//   - rdf_resource: instances of generic concepts, one row per resource,
//     typed by type_id and named by the rdf:about URI
//   - rdf_statement: values of generic predicates (subject, predicate,
//     object resource)
//   - rdf_string, rdf_boolean, ...: literal statement objects, one table per
//     literal storage type, linked by statement_id
//
// Tables of non-generic concepts with their own storage are owned by the
// application and are not created here.
//
// # Execution
//
// Count runs a statement's count SQL without its range clause and applies
// the offset and limit to the total. Rows returns a restartable sequence:
// every iteration runs the select again.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

// Package ontology provides the metadata model the RDQL compiler resolves
// queries against.
//
// This package contains the ontology types, the Lookup interface consumed by
// the resolver, and Registry, an in-memory typed registry populated when an
// ontology is loaded (from CUE fragments or from the SQLite store).
// ontology imports nothing internal.
//
// Key constraints:
//   - Metadata is immutable once registered. Query compilation never writes
//     to a Concept or Predicate; per-query annotations live on AST nodes.
//   - Registry is safe for concurrent reads, so compilations may run in
//     parallel against one registry.
//   - Identifiers are int64 and stable for the lifetime of a registry.
package ontology

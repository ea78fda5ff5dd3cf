// Package resolver binds a parsed RDQL query to the ontology and rewrites
// it into a form the SQL generator can translate directly.
//
// Resolution runs three phases, in order:
//
//   - Bind attaches ontology metadata to every namespace, concept and
//     predicate reference.
//   - Span expands span predicates into chains of their segments, joined
//     through synthesized variables.
//   - Generalize rewrites references to generic concepts and predicates,
//     which live in the shared resource and statement tables, into explicit
//     type, subject, predicate and object constraints.
//
// Each phase only adds to the query. Rewritten nodes keep their original
// content and point to their replacement.
package resolver

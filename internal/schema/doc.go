// Package schema loads ontology fragments written in CUE into an
// ontology.Registry.
//
// A fragment declares namespaces, and inside each namespace its concepts and
// predicates:
//
//	namespace: tmp: {
//		uri: "http://tmp/tmp#"
//		concept: C: {}
//		concept: Person: {table: "people"}
//		predicate: P: {domain: "C", range: "xs:string", cardinality: "*:1"}
//		predicate: Name: {span: ["tmp:P", "tmp:Q"]}
//	}
//
// A concept without a table is generic: its instances are rows of the
// resource table. A predicate without a column or span is generic: its
// values are rows of the statement table. Fragments from several files are
// unified before compilation, so a namespace may be spread across files.
package schema

// Package rdql implements the front end of the RDQL compiler: tokens, the
// lexer, the query AST and the parser.
//
// An RDQL query selects predicates of typed variables:
//
//	select c.tmp:P, e.rdf:about
//	from tmp:C c, tmp:E e
//	where c tmp:R e and c tmp:N 42
//	using tmp for "http://tmp/tmp#"
//	limit 10 offset 20
//
// The parser is purely syntactic. Binding names to the ontology and the
// rewrites that follow belong to package resolver; the AST types here carry
// the write-once binding fields and replacement annotations those phases
// fill in.
package rdql

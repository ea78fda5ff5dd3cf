// Package harness runs RDQL conformance scenarios.
//
// A scenario names the ontology to compile against, a query, optional RDF
// data, and what compiling and executing the query must produce.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: literal_projection
//	description: "A generic literal predicate reads from its literal table"
//	ontology:
//	  - ontology/tmp.cue
//	spans: false
//	query: select c.tmp:P from tmp:C c using tmp for "http://tmp/tmp#"
//	data:
//	  resources:
//	    - { uri: "urn:c1", type: "tmp:C" }
//	  statements:
//	    - { subject: "urn:c1", predicate: "tmp:P", object: "hello" }
//	expect:
//	  select: "select c__tmp__P__o.value from ..."
//	  columns: [c.tmp:P]
//	  row_count: 1
//	  rows:
//	    - { c.tmp:P: hello }
//
// A failing compilation is expected with:
//
//	expect:
//	  error: { phase: resolve, kind: no_resolution, contains: "tmp:Nope" }
//
// # Determinism
//
// Every run uses a fresh registry, a fresh in-memory SQLite database and
// the fixed compilation ID "harness", so snapshots are identical across
// runs and can be compared against golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/chain.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness

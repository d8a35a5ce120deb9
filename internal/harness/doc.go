// Package harness runs YAML document scenarios against the sofer engine.
//
// A scenario imports a document, applies a list of steps to it and checks
// the final tree and its evaluated sofer output. Scenarios double as
// regression tests: the output can be compared against a golden file.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	from: sofer                     # optional import format
//	shared_context: false           # optional
//	document: |
//	  00000000-0000-0000-0000-000000000001 00000000-0000-0000-0000-000000000000  Total @ 1+1
//	steps:
//	  - eval_all: true
//	  - insert:
//	      parent: 00000000-0000-0000-0000-000000000001
//	      content: "Child @ 2*3"
//	  - save: totals
//	  - load: { name: totals, revision: 1 }
//	assertions:
//	  - type: evaled
//	    node: 00000000-0000-0000-0000-000000000001
//	    equals: "Total 2"
//	  - type: node_count
//	    count: 2
//
// document_file may replace document; it is resolved relative to the
// scenario file.
//
// # Determinism
//
// Inserted nodes without an explicit id receive sequential identifiers
// starting at 00000000-0000-0000-0000-000000001000. Save and load steps use
// a fresh in-memory snapshot store with a deterministic clock, so revisions
// and timestamps are the same on every run.
package harness

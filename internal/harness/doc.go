// Package harness provides conformance testing for queries.
//
// A scenario pairs a graph with a query and states what resolving the query
// must produce. Scenarios run with a fixed request ID and stubbed mutations,
// so the same scenario always yields the same result and golden snapshot.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: friends_cycle
//	description: "Unbounded recursion stops at a revisited user"
//	graph: ../graphs/people.yaml      # or an inline {root: ..., tables: ...}
//	query: "[{:current-user [:name {:friends ...}]}]"
//	tag_attr: kind                    # optional union discriminator
//	max_depth: 8                      # optional nesting guard
//	mutations:
//	  launch!: { result: { ok: true } }
//	  explode!: { error: "boom" }
//	expect:                           # exact result, or
//	  current-user: { name: Sam }
//	expect_error: DEPTH_EXCEEDED      # expected error code
//	assertions:
//	  - type: equals
//	    path: [current-user, name]
//	    value: Sam
//
// # Assertion Types
//
//   - present: a value exists at path
//   - absent: nothing exists at path
//   - equals: the value at path equals value
//   - count: the list at path has count items
//
// Paths are lists of result keys; list items are addressed by index strings
// such as "0". Keys like app/title may contain slashes, which is why paths
// are lists.
//
// # Error Codes
//
// expect_error matches a resolve.ResolutionError code (INVALID_QUERY,
// READ_FAILED, CANCELLED, DEPTH_EXCEEDED), PARSE_ERROR for query text that
// does not parse, or MUTATION_FAILED.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/friends.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness

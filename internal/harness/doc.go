// Package harness provides conformance testing for report schemas and
// queries.
//
// The harness loads a CUE schema, runs a flow of queries against it and
// checks each planned fragment and each emitted row against the scenario's
// expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schema: people.cue
//	setup: people.sql
//	request_id: r1
//	flow:
//	  - query: "select firstname, salary where company = 'Acme'"
//	    expect:
//	      required: [firstname, salary, company]
//	      where: "companies.name = ?"
//	      args: [Acme]
//	      columns: [First name, Salary]
//	      rows:
//	        - [Ada, "1,200.5"]
//	  - query: "select firstname lastname"
//	    expect:
//	      error: syntax
//
// Instead of a setup script a scenario may list literal rows, which stand
// in for the fetch result of every query. A scenario with neither only
// plans its queries.
//
// # Expectations
//
// Only the fields an expect clause sets are checked:
//
//   - error: the error kind (syntax, unsupported, circular, no_statement, fetch)
//   - selection, required, unmapped: column lists of the plan
//   - select, joins, where, args, group_by, order_by, sql: SQL fragments
//   - columns: output column labels
//   - rows: output rows, formatted cells compared by their text
//
// # Deterministic Testing
//
// Every scenario runs against its own in-memory SQLite database with a
// fixed request id, so golden snapshots are identical across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/people.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        fmt.Println(e)
//	    }
//	}
//
// In tests, RunWithGolden also compares the run against
// testdata/golden/{name}.golden.
package harness

package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/reportql/internal/engine"
	"github.com/roach88/reportql/internal/output"
)

// Snapshot captures what every step of a scenario produced.
// It serializes as canonical JSON for deterministic comparison.
type Snapshot struct {
	ScenarioName string
	RequestID    string
	Steps        []StepResult
}

// toCanonicalMap converts a Snapshot to plain values for canonical JSON.
// Empty plan parts are left out so golden files only show what a query
// actually uses.
func (s *Snapshot) toCanonicalMap() map[string]any {
	steps := make([]any, len(s.Steps))
	for i, sr := range s.Steps {
		step := map[string]any{"query": sr.Query}
		if sr.Err != nil {
			step["error"] = map[string]any{
				"kind":    ErrorKind(sr.Err),
				"message": sr.Err.Error(),
			}
			steps[i] = step
			continue
		}
		if sr.Plan != nil {
			step["plan"] = planMap(sr.Plan)
		}
		if sr.Result != nil {
			step["table"] = output.NewDataTable(sr.Result.Table)
		}
		steps[i] = step
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"steps":         steps,
	}
	if s.RequestID != "" {
		result["request_id"] = s.RequestID
	}
	return result
}

func planMap(p *engine.Plan) map[string]any {
	m := map[string]any{}
	putStrings := func(key string, v []string) {
		if len(v) > 0 {
			m[key] = v
		}
	}
	putString := func(key, v string) {
		if v != "" {
			m[key] = v
		}
	}
	putStrings("selection", p.Selection)
	putStrings("required", p.Required)
	putStrings("unmapped", p.Unmapped)
	putString("select", p.Fragments.Select)
	putString("joins", p.Fragments.Joins)
	putString("where", p.Fragments.Where)
	putString("group_by", p.Fragments.GroupBy)
	putString("order_by", p.Fragments.OrderBy)
	if len(p.Fragments.Args) > 0 {
		m["args"] = p.Fragments.Args
	}
	if p.Statement != nil {
		m["sql"] = p.Statement.SQL
		if p.Statement.Grouped {
			m["grouped"] = true
		}
		if p.Statement.Ordered {
			m["ordered"] = true
		}
		if p.Statement.Paged {
			m["paged"] = true
		}
	}
	return m
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot run. A snapshot mismatch fails t
// through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	reqID := scenario.RequestID
	if reqID == "" {
		reqID = DefaultRequestID
	}
	return assertSnapshot(t, scenario.Name, &Snapshot{
		ScenarioName: scenario.Name,
		RequestID:    reqID,
		Steps:        result.Steps,
	})
}

// AssertGolden compares an existing result against the golden file for
// scenarioName without running anything again.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()
	return assertSnapshot(t, scenarioName, &Snapshot{
		ScenarioName: scenarioName,
		Steps:        result.Steps,
	})
}

func assertSnapshot(t *testing.T, name string, snapshot *Snapshot) error {
	t.Helper()

	data, err := output.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

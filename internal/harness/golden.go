package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/pullgraph/internal/canonical"
)

// Snapshot captures the observable outcome of a scenario execution.
// Serialized as canonical JSON for deterministic comparison.
type Snapshot struct {
	ScenarioName string
	Output       map[string]any
	ErrorCode    string
	Mutations    []MutationTrace
}

// CanonicalValue implements canonical.Valuer.
func (s *Snapshot) CanonicalValue() any {
	out := map[string]any{
		"scenario_name": s.ScenarioName,
	}
	if s.Output != nil {
		out["result"] = s.Output
	}
	if s.ErrorCode != "" {
		out["error"] = s.ErrorCode
	}
	if len(s.Mutations) > 0 {
		mutations := make([]any, len(s.Mutations))
		for i, m := range s.Mutations {
			entry := map[string]any{"name": m.Name}
			if len(m.Params) > 0 {
				entry["params"] = map[string]any(m.Params)
			}
			mutations[i] = entry
		}
		out["mutations"] = mutations
	}
	return out
}

// SnapshotOf builds the snapshot of a result.
func SnapshotOf(name string, result *Result) *Snapshot {
	return &Snapshot{
		ScenarioName: name,
		Output:       result.Output,
		ErrorCode:    result.ErrorCode,
		Mutations:    result.Mutations,
	}
}

// MarshalSnapshot returns the canonical JSON of a result's snapshot. This is
// the golden file content.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	return canonical.Marshal(SnapshotOf(name, result))
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}

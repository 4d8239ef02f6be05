package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot captures the complete trace of a scenario execution for
// golden comparison. Fields marshal in a fixed order and every optional
// trace value is a pointer, so serialization is deterministic.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	RunToken     string       `json:"run_token"`
	Trace        []TraceEvent `json:"trace"`
}

// RunWithGolden executes a scenario and compares its trace against a golden
// file at testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Scenarios used with golden comparison must set a fixed run_token;
// otherwise the generated UUID changes the snapshot on every run.
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		RunToken:     result.RunToken,
		Trace:        result.Trace,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, append(data, '\n'))

	return result
}

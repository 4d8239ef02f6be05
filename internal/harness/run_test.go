package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", name+".yaml"))
	require.NoError(t, err)
	return s
}

// TestRun_LifecycleScenario runs the canonical lifecycle scenario and
// compares its trace against the golden file.
func TestRun_LifecycleScenario(t *testing.T) {
	s := loadTestScenario(t, "lifecycle-commit")
	result := RunWithGolden(t, s)
	assert.True(t, result.Passed, "failures: %v", result.Failures)
	assert.Len(t, result.Trace, 7)
}

// TestRun_DriftScenario exercises mutation, drift detection, and witness
// generation over a seeded conserved buffer.
func TestRun_DriftScenario(t *testing.T) {
	s := loadTestScenario(t, "drift-detected")
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Passed, "failures: %v", result.Failures)
}

// TestRun_WindowScenario pins the harmonic window trace, including the
// aligned-now full-cycle edge case.
func TestRun_WindowScenario(t *testing.T) {
	s := loadTestScenario(t, "harmonic-windows")
	result := RunWithGolden(t, s)
	assert.True(t, result.Passed, "failures: %v", result.Failures)
}

// TestRun_ReportsDivergence verifies an unexpected status marks the run
// failed but execution continues to the end of the step list.
func TestRun_ReportsDivergence(t *testing.T) {
	fill := uint8(1)
	s := &Scenario{
		Name:   "diverges",
		Domain: DomainSpec{Capacity: 4, BudgetClass: 0},
		Buffer: BufferSpec{Fill: &fill},
		Steps: []Step{
			{Op: "commit", Expect: "ok"}, // actually invalid state
			{Op: "attach"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err, "divergence is a failure, not an error")
	assert.False(t, result.Passed)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0], "invalid state")
	assert.Len(t, result.Trace, 2, "execution continues past divergence")
	assert.Equal(t, "ok", result.Trace[1].Status)
}

// TestRun_GeneratesRunToken produces a fresh UUID token when the scenario
// leaves run_token empty.
func TestRun_GeneratesRunToken(t *testing.T) {
	fill := uint8(0)
	s := &Scenario{
		Name:   "token-gen",
		Domain: DomainSpec{Capacity: 4, BudgetClass: 0},
		Buffer: BufferSpec{Fill: &fill},
		Steps:  []Step{{Op: "attach"}},
	}

	r1, err := Run(s)
	require.NoError(t, err)
	r2, err := Run(s)
	require.NoError(t, err)

	assert.NotEmpty(t, r1.RunToken)
	assert.NotEqual(t, r1.RunToken, r2.RunToken)
}

// TestRunWithTokens_DrawsFromGenerator runs the same token-less scenario
// twice through a FixedGenerator and gets the predetermined tokens in order,
// while an explicit run_token still takes precedence over the generator.
func TestRunWithTokens_DrawsFromGenerator(t *testing.T) {
	fill := uint8(0)
	s := &Scenario{
		Name:   "fixed-tokens",
		Domain: DomainSpec{Capacity: 4, BudgetClass: 0},
		Buffer: BufferSpec{Fill: &fill},
		Steps:  []Step{{Op: "attach"}},
	}

	gen := NewFixedGenerator("run-first", "run-second")

	r1, err := RunWithTokens(s, gen)
	require.NoError(t, err)
	assert.Equal(t, "run-first", r1.RunToken)

	r2, err := RunWithTokens(s, gen)
	require.NoError(t, err)
	assert.Equal(t, "run-second", r2.RunToken)

	s.RunToken = "run-pinned"
	r3, err := RunWithTokens(s, NewFixedGenerator())
	require.NoError(t, err)
	assert.Equal(t, "run-pinned", r3.RunToken, "explicit token bypasses the generator")
}

// TestRun_DefaultCapacity falls back to the full 12,288-byte domain when
// the scenario omits capacity.
func TestRun_DefaultCapacity(t *testing.T) {
	fill := uint8(96) // residue contribution 0 per byte
	s := &Scenario{
		Name:     "default-capacity",
		RunToken: "run-default-cap",
		Domain:   DomainSpec{BudgetClass: 1},
		Buffer:   BufferSpec{Fill: &fill},
		Steps: []Step{
			{Op: "attach"},
			{Op: "verify", ExpectVerified: boolPtr(true)},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Passed, "failures: %v", result.Failures)
	require.NotNil(t, result.Trace[0].Residue)
	assert.Equal(t, uint8(0), *result.Trace[0].Residue)
}

// TestValidateScenario_RejectsBadInput exercises the CUE schema: unknown
// ops, out-of-range classes, and empty step lists are all rejected.
func TestValidateScenario_RejectsBadInput(t *testing.T) {
	base := func() *Scenario {
		return &Scenario{
			Name:   "v",
			Domain: DomainSpec{Capacity: 4, BudgetClass: 0},
			Steps:  []Step{{Op: "attach"}},
		}
	}

	require.NoError(t, ValidateScenario(base()))

	s := base()
	s.Steps[0].Op = "detach"
	assert.Error(t, ValidateScenario(s), "unknown op")

	s = base()
	s.Steps[0] = Step{Op: "window", Class: 96}
	assert.Error(t, ValidateScenario(s), "class out of range")

	s = base()
	s.Domain.BudgetClass = 200
	assert.Error(t, ValidateScenario(s), "budget class out of range")

	s = base()
	s.Steps = nil
	assert.Error(t, ValidateScenario(s), "empty step list")

	s = base()
	s.Name = ""
	assert.Error(t, ValidateScenario(s), "empty name")

	s = base()
	s.Assertions = []Assertion{{Type: "final_state"}}
	assert.Error(t, ValidateScenario(s), "unknown assertion type")
}

// TestLoadScenario_MissingFile surfaces a read error.
func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "does-not-exist.yaml"))
	assert.Error(t, err)
}

// TestFixedGenerator_ReturnsInOrder covers the test token double.
func TestFixedGenerator_ReturnsInOrder(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

// TestUUIDv7Generator_UniqueTokens sanity-checks token uniqueness.
func TestUUIDv7Generator_UniqueTokens(t *testing.T) {
	g := UUIDv7Generator{}
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		tok := g.Generate()
		_, dup := seen[tok]
		require.False(t, dup)
		seen[tok] = struct{}{}
	}
}

func boolPtr(b bool) *bool { return &b }

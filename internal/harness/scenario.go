package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: one conservation domain,
// one buffer, a sequence of operations against them, and assertions over
// the final state and the recorded trace.
type Scenario struct {
	// Name uniquely identifies this scenario; it is also the domain label
	// recorded in the audit ledger.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// RunToken is an optional fixed run token for deterministic golden
	// file comparison. If empty, a UUIDv7 is generated.
	RunToken string `yaml:"run_token,omitempty" json:"run_token,omitempty"`

	// Domain configures the conservation domain under test.
	Domain DomainSpec `yaml:"domain" json:"domain"`

	// Buffer describes how to construct the buffer to attach.
	Buffer BufferSpec `yaml:"buffer" json:"buffer"`

	// Steps is the operation sequence. Each step names an op and its
	// expected outcome; execution continues past expected failures.
	Steps []Step `yaml:"steps" json:"steps"`

	// Assertions validate the final domain state after all steps ran.
	Assertions []Assertion `yaml:"assertions,omitempty" json:"assertions,omitempty"`
}

// DomainSpec configures the domain under test.
type DomainSpec struct {
	// Capacity is the domain's byte length. Defaults to 12288 when 0.
	Capacity int `yaml:"capacity,omitempty" json:"capacity,omitempty"`

	// BudgetClass is the initial mod-96 budget value.
	BudgetClass uint8 `yaml:"budget_class" json:"budget_class"`
}

// BufferSpec describes buffer construction. Exactly one of Fill or Seed is
// meaningful; Fill wins when both are set.
type BufferSpec struct {
	// Fill repeats a single byte value across the buffer.
	Fill *uint8 `yaml:"fill,omitempty" json:"fill,omitempty"`

	// Seed fills the buffer from a seeded deterministic generator.
	Seed *int64 `yaml:"seed,omitempty" json:"seed,omitempty"`

	// Conserve adjusts the final byte so the buffer's residue is 0.
	Conserve bool `yaml:"conserve,omitempty" json:"conserve,omitempty"`
}

// Step is one operation against the domain or buffer.
type Step struct {
	// Op is the operation: attach, verify, commit, alloc, release,
	// witness, mutate, or window.
	Op string `yaml:"op" json:"op"`

	// Amount is the budget amount for alloc and release.
	Amount uint8 `yaml:"amount,omitempty" json:"amount,omitempty"`

	// Offset and Add describe a buffer mutation (wrapping byte add).
	Offset int   `yaml:"offset,omitempty" json:"offset,omitempty"`
	Add    uint8 `yaml:"add,omitempty" json:"add,omitempty"`

	// Now and Class feed the window op.
	Now   int64 `yaml:"now,omitempty" json:"now,omitempty"`
	Class uint8 `yaml:"class,omitempty" json:"class,omitempty"`

	// Expect is the expected status string ("ok", "invalid state",
	// "budget error", ...). Empty means "ok".
	Expect string `yaml:"expect,omitempty" json:"expect,omitempty"`

	// ExpectVerified is the expected result of a verify op.
	ExpectVerified *bool `yaml:"expect_verified,omitempty" json:"expect_verified,omitempty"`
}

// Assertion validates final state after all steps executed.
type Assertion struct {
	// Type is "state", "budget", or "trace_count".
	Type string `yaml:"type" json:"type"`

	// State is the expected lifecycle state name (type=state).
	State string `yaml:"state,omitempty" json:"state,omitempty"`

	// Budget is the expected final budget value (type=budget).
	Budget *uint8 `yaml:"budget,omitempty" json:"budget,omitempty"`

	// Op and Count check how often an op appears in the trace
	// (type=trace_count).
	Op    string `yaml:"op,omitempty" json:"op,omitempty"`
	Count int    `yaml:"count,omitempty" json:"count,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file, then validates it
// against the CUE schema before returning it.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if err := ValidateScenario(&s); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}

	return &s, nil
}

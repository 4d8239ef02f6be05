package harness

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// scenarioSchema is the CUE schema every scenario must satisfy before the
// harness will run it. Validating up front gives field-level error messages
// instead of a confusing mid-run failure.
const scenarioSchema = `
#Scenario: {
	name:         string & !=""
	description?: string
	run_token?:   string
	domain: {
		capacity?:    int & >=0 & <=1073741824
		budget_class: int & >=0 & <=95
	}
	buffer: {
		fill?:     int & >=0 & <=255
		seed?:     int
		conserve?: bool
	}
	steps: [...#Step] & [_, ...]
	assertions?: [...#Assertion]
}

#Step: {
	op: "attach" | "verify" | "commit" | "alloc" | "release" | "witness" | "mutate" | "window"
	amount?:          int & >=0 & <=255
	offset?:          int & >=0
	add?:             int & >=0 & <=255
	now?:             int
	class?:           int & >=0 & <=95
	expect?:          string
	expect_verified?: bool
}

#Assertion: {
	type:    "state" | "budget" | "trace_count"
	state?:  "CREATED" | "ATTACHED" | "COMMITTED"
	budget?: int & >=0 & <=95
	op?:     string
	count?:  int & >=0
}
`

// ValidateScenario checks a parsed scenario against the CUE schema.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
func ValidateScenario(s *Scenario) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(scenarioSchema)
	if err := schema.Err(); err != nil {
		// The schema is a compile-time constant; failing to compile it
		// is a programming error, but we still return it cleanly.
		return fmt.Errorf("compile scenario schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup #Scenario: %w", err)
	}

	val := ctx.Encode(s)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}

	if err := def.Unify(val).Validate(); err != nil {
		return fmt.Errorf("invalid scenario: %s", cueerrors.Details(err, nil))
	}

	return nil
}

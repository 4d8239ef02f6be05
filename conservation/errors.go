package conservation

import (
	"errors"
	"fmt"
)

// Code categorizes every failure the conservation core can report. The
// numeric values are stable: external callers (CLI tools, FFI shims, higher
// layers) key off them and they must never be renumbered.
type Code int

const (
	// CodeOK indicates success. Never carried by an error value; defined
	// so the full status table is representable.
	CodeOK Code = 0

	// CodeConservationViolation indicates a buffer's mod-96 residue
	// drifted from the value recorded at attach time.
	CodeConservationViolation Code = 1

	// CodeWitnessFailed indicates a buffer does not reproduce a witness.
	CodeWitnessFailed Code = 2

	// CodeBudget indicates an alloc would overdraw the budget or a
	// release would push it past its bound.
	CodeBudget Code = 3

	// CodeMemory indicates an allocation failure while constructing a
	// domain, witness, or cluster view.
	CodeMemory Code = 4

	// CodeInvalidState indicates a lifecycle violation: attaching twice,
	// committing twice, or committing before attach.
	CodeInvalidState Code = 5

	// CodeInvalidArgument indicates rejected input: nil buffers, zero or
	// mismatched lengths, out-of-range budget or resonance classes.
	CodeInvalidArgument Code = 6
)

// codeStrings is the stable string table exposed to callers; the CLI prints
// these verbatim.
var codeStrings = map[Code]string{
	CodeOK:                    "ok",
	CodeConservationViolation: "conservation violation",
	CodeWitnessFailed:         "witness verification failed",
	CodeBudget:                "budget error",
	CodeMemory:                "memory error",
	CodeInvalidState:          "invalid state",
	CodeInvalidArgument:       "invalid argument",
}

// String returns the stable human-readable name for a code.
// Unknown codes format as "unknown code N" rather than panicking.
func (c Code) String() string {
	if s, ok := codeStrings[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown code %d", int(c))
}

// Error is the structured error returned by every fallible operation in
// this package. There is no shared "last error" slot anywhere: each call
// reports its own failure explicitly, so concurrent callers never observe
// each other's errors.
type Error struct {
	// Code identifies the failure category (stable numeric value).
	Code Code

	// Op names the operation that failed, e.g. "attach" or "commit".
	Op string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf constructs a coded error. Exported for sibling packages that share
// the status table (cluster), so callers can branch on codes uniformly
// across the whole library surface.
func Errorf(code Code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

func newError(code Code, op, format string, args ...any) *Error {
	return Errorf(code, op, format, args...)
}

// CodeOf extracts the status code from an error, unwrapping as needed.
// A nil error maps to CodeOK; a non-nil error that is not a conservation
// Error maps to CodeMemory as the generic resource failure.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeMemory
}

// IsInvalidState returns true if the error is a lifecycle violation.
// Uses errors.As to handle wrapped errors.
func IsInvalidState(err error) bool {
	return CodeOf(err) == CodeInvalidState
}

// IsInvalidArgument returns true if the error is an input validation failure.
func IsInvalidArgument(err error) bool {
	return CodeOf(err) == CodeInvalidArgument
}

// IsBudgetError returns true if the error is a budget bound violation.
func IsBudgetError(err error) bool {
	return CodeOf(err) == CodeBudget
}

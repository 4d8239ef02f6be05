package conservation

import "github.com/atlas12288/atlas/modring"

// Delta returns the mod-96 difference between two equal-length buffers'
// residues: (sum(after) - sum(before)) mod 96, with correct wraparound for
// negative differences. A delta of 0 means the edit preserved conservation.
//
// Nil buffers and length mismatches fail with CodeInvalidArgument; auditing
// an edit only makes sense over the same extent.
func Delta(before, after []byte) (uint8, error) {
	if before == nil || after == nil {
		return 0, newError(CodeInvalidArgument, "delta", "nil buffer")
	}
	if len(before) != len(after) {
		return 0, newError(CodeInvalidArgument, "delta", "length mismatch: before=%d after=%d", len(before), len(after))
	}
	return modring.Delta(before, after), nil
}

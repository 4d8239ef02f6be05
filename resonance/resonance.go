// Package resonance classifies bytes into the 96 resonance classes of the
// Atlas-12288 domain and provides the harmonic predicates built on them.
//
// A resonance class is simply byte_value mod 96. Classification is pure and
// read-only: it never touches conservation state, so classifying a buffer is
// always safe regardless of what a conservation.Domain is doing with it.
package resonance

import "github.com/atlas12288/atlas/modring"

// Geometry of the fixed 12,288-byte data domain.
const (
	Classes    = 96   // resonance classes, one per mod-96 residue
	PageSize   = 256  // bytes per page
	Pages      = 48   // pages in a full domain
	DomainSize = Pages * PageSize
)

// ClassifyByte returns the resonance class of a single byte: b mod 96.
func ClassifyByte(b uint8) uint8 {
	return b % Classes
}

// ClassifyPage classifies all 256 bytes of one page elementwise.
func ClassifyPage(page *[PageSize]byte) [PageSize]uint8 {
	var out [PageSize]uint8
	for i, b := range page {
		out[i] = b % Classes
	}
	return out
}

// HistogramPage counts class occurrences across one page. The entries of
// the returned histogram always sum to 256.
func HistogramPage(page *[PageSize]byte) [Classes]uint16 {
	var hist [Classes]uint16
	for _, b := range page {
		hist[b%Classes]++
	}
	return hist
}

// Harmonizes reports whether two classes are additive inverses mod 96.
// Class 0 harmonizes with itself; every other class r harmonizes with 96-r.
// The predicate is symmetric.
func Harmonizes(r1, r2 uint8) bool {
	return modring.IsZero(modring.Add(r1, r2))
}

// Conjugate returns the unique class that harmonizes with r.
func Conjugate(r uint8) uint8 {
	r %= Classes
	if r == 0 {
		return 0
	}
	return Classes - r
}

// Package modring implements scalar arithmetic over Z/96Z, the ring that
// underlies conservation checking and budget tracking.
//
// 96 = 2^5 * 3 is not prime, so Z/96Z is a ring, not a field: only elements
// coprime to 96 have multiplicative inverses. Inv therefore reports whether
// an inverse exists instead of treating "no inverse" as a program error.
package modring

// Modulus is the size of the ring. Every value handled by this package is
// reduced into [0, Modulus).
const Modulus = 96

// Add returns (a + b) mod 96. Inputs are unconstrained bytes.
func Add(a, b uint8) uint8 {
	return uint8((uint16(a) + uint16(b)) % Modulus)
}

// Mul returns (a * b) mod 96. Inputs are unconstrained bytes.
func Mul(a, b uint8) uint8 {
	return uint8((uint16(a) * uint16(b)) % Modulus)
}

// Inv returns the multiplicative inverse of a mod 96 and true if one exists.
// Only residues coprime to 96 are invertible; for all others (every even
// value and every multiple of 3) Inv returns (0, false).
//
// The search space is 96 values, so a linear scan is exact and O(1).
func Inv(a uint8) (uint8, bool) {
	r := a % Modulus
	if r == 0 {
		return 0, false
	}
	for x := uint16(1); x < Modulus; x++ {
		if (uint16(r)*x)%Modulus == 1 {
			return uint8(x), true
		}
	}
	return 0, false
}

// IsZero reports whether a reduces to the ring's zero element.
func IsZero(a uint8) bool {
	return a%Modulus == 0
}

// Sum returns the sum of all bytes in buf, reduced mod 96. A nil or empty
// buffer sums to 0. This is the conservation residue of a buffer.
func Sum(buf []byte) uint8 {
	var acc uint32
	for _, b := range buf {
		acc += uint32(b)
		// Fold periodically so acc never approaches overflow even for
		// buffers in the multi-gigabyte range.
		if acc >= 1<<31 {
			acc %= Modulus
		}
	}
	return uint8(acc % Modulus)
}

// Delta returns (Sum(after) - Sum(before)) mod 96 with correct wraparound
// for negative differences. A delta of 0 means the edit preserved
// conservation.
func Delta(before, after []byte) uint8 {
	b := Sum(before)
	a := Sum(after)
	return uint8((uint16(a) + Modulus - uint16(b)) % Modulus)
}

package conservation

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/atlas12288/atlas/modring"
)

// witnessDomain is the domain-separation prefix mixed into every witness
// digest. The version suffix enables future algorithm migration without
// ambiguity between old and new witnesses.
const witnessDomain = "atlas/witness/v1"

// Witness is an immutable integrity token over a buffer's bytes and length.
//
// The digest is SHA-256 over (domain prefix + 0x00 + big-endian length +
// bytes); the null separator prevents prefix/payload boundary ambiguity.
// The buffer's mod-96 residue is carried alongside so a conservation audit
// can read it from the witness without rescanning the buffer.
//
// Witnesses are checksums, not cryptographic commitments: they reliably
// detect accidental mutation but make no claim against an adversary.
// A Witness holds no reference to the buffer that produced it and is safe
// for concurrent Verify calls.
type Witness struct {
	digest  [sha256.Size]byte
	residue uint8
	length  int
}

// GenerateWitness derives a witness from buf. Deterministic: the same bytes
// always produce the same witness. A nil or zero-length buffer is invalid
// input and fails with CodeInvalidArgument.
func GenerateWitness(buf []byte) (*Witness, error) {
	if buf == nil {
		return nil, newError(CodeInvalidArgument, "witness_generate", "nil buffer")
	}
	if len(buf) == 0 {
		return nil, newError(CodeInvalidArgument, "witness_generate", "empty buffer")
	}
	return &Witness{
		digest:  witnessDigest(buf),
		residue: modring.Sum(buf),
		length:  len(buf),
	}, nil
}

func witnessDigest(buf []byte) [sha256.Size]byte {
	var lenBytes [8]byte
	binary.BigEndian.PutUint64(lenBytes[:], uint64(len(buf)))

	h := sha256.New()
	h.Write([]byte(witnessDomain))
	h.Write([]byte{0x00})
	h.Write(lenBytes[:])
	h.Write(buf)

	var d [sha256.Size]byte
	copy(d[:], h.Sum(nil))
	return d
}

// Verify reports whether buf reproduces this witness. Pure and
// side-effect-free: neither the witness nor the buffer is mutated. A buffer
// differing in any byte or in length fails verification.
func (w *Witness) Verify(buf []byte) bool {
	if len(buf) != w.length {
		return false
	}
	return witnessDigest(buf) == w.digest
}

// Residue returns the mod-96 conservation residue recorded at generation.
func (w *Witness) Residue() uint8 {
	return w.residue
}

// Length returns the byte length of the buffer the witness was taken over.
func (w *Witness) Length() int {
	return w.length
}

// Digest returns the hex-encoded SHA-256 digest, suitable for storing in
// the audit ledger or printing from the CLI.
func (w *Witness) Digest() string {
	return hex.EncodeToString(w.digest[:])
}

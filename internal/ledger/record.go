package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"
)

// recordDomain is the domain-separation prefix for record identity.
// The version suffix enables future algorithm migration.
const recordDomain = "atlas/audit/v1"

// Kind names the audited operation.
type Kind string

const (
	KindAttach  Kind = "attach"
	KindVerify  Kind = "verify"
	KindCommit  Kind = "commit"
	KindWitness Kind = "witness"
	KindDelta   Kind = "delta"
)

// Record is one conservation audit event. Records are immutable once
// written; identity is content-addressed over the logical fields, so the
// same event replayed produces the same ID and the write is idempotent.
type Record struct {
	// ID is the content-addressed identity (SHA-256 hex). Computed by
	// RecordID; zero value means "not yet addressed".
	ID string

	// RunToken groups the records of one run (UUIDv7 in production,
	// fixed strings in tests).
	RunToken string

	// Label identifies the domain or buffer being audited. Normalized to
	// NFC before hashing and storage so visually identical labels hash
	// identically regardless of the caller's Unicode encoding.
	Label string

	// Kind is the audited operation.
	Kind Kind

	// Seq is the logical clock stamp. All ordering uses seq, never wall
	// time, so read-back order is replay-stable.
	Seq int64

	// Residue is the mod-96 residue observed by the operation.
	Residue uint8

	// Digest carries the witness digest for KindWitness records.
	Digest string

	// Status is the stable status string of the operation's outcome
	// ("ok", "invalid state", "conservation violation", ...).
	Status string
}

// RecordID computes the content-addressed ID for a record from its logical
// fields. The ID is stable across restarts and replays given the same
// inputs. Field boundaries are made unambiguous with null separators and a
// fixed-width seq encoding.
func RecordID(r Record) string {
	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], uint64(r.Seq))

	h := sha256.New()
	h.Write([]byte(recordDomain))
	h.Write([]byte{0x00})
	h.Write([]byte(r.RunToken))
	h.Write([]byte{0x00})
	h.Write([]byte(NormalizeLabel(r.Label)))
	h.Write([]byte{0x00})
	h.Write([]byte(r.Kind))
	h.Write([]byte{0x00})
	h.Write(seqBytes[:])
	h.Write([]byte{r.Residue})
	h.Write([]byte(r.Digest))
	h.Write([]byte{0x00})
	h.Write([]byte(r.Status))
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeLabel returns the NFC normalization of a label. Labels reach the
// ledger from YAML scenarios and CLI arguments, where the same visible text
// can arrive composed or decomposed; hashing the normalized form keeps
// record identity independent of that.
func NormalizeLabel(label string) string {
	return norm.NFC.String(label)
}

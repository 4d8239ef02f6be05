// Package conservation implements the Atlas-12288 conservation domain: a
// handle over a caller-owned byte buffer whose mod-96 byte-sum residue must
// stay invariant for the domain's lifetime, plus the budget counter, witness
// tokens, and batch facades built on the same residue arithmetic.
//
// A Domain moves through a one-way lifecycle, CREATED -> ATTACHED ->
// COMMITTED, driven by atomic compare-and-swap so that under concurrent
// callers each transition happens exactly once. The attached buffer is
// borrowed, never copied and never freed: the caller must keep it alive and
// stable while the domain reads it.
package conservation

import (
	"sync/atomic"

	"github.com/atlas12288/atlas/modring"
)

// State is a position in the domain lifecycle. Transitions are monotonic:
// a domain never un-attaches or un-commits.
type State int32

const (
	// StateCreated is the initial state: no buffer attached yet.
	StateCreated State = iota

	// stateAttaching is an internal transition marker. The attach winner
	// holds it while publishing the buffer; externally it reads as
	// StateCreated because the attach has not completed.
	stateAttaching

	// StateAttached means a buffer is attached and its residue recorded.
	StateAttached

	// StateCommitted is terminal. Conservation was fixed at attach time;
	// commit only finalizes the lifecycle.
	StateCommitted
)

// String returns the lifecycle state name.
func (s State) String() string {
	switch s {
	case StateCreated, stateAttaching:
		return "CREATED"
	case StateAttached:
		return "ATTACHED"
	case StateCommitted:
		return "COMMITTED"
	default:
		return "UNKNOWN"
	}
}

// MaxCapacity bounds domain capacity. The conventional Atlas domain is
// 12,288 bytes; the bound exists so a corrupted capacity can't drive
// pathological allocations downstream.
const MaxCapacity = 1 << 30

// attachment is the immutable record published by a successful Attach: the
// borrowed buffer and its residue at attach time. Publishing both through a
// single atomic pointer keeps Verify race-free against Attach and Close.
type attachment struct {
	buf      []byte
	checksum uint8
}

// Domain tracks conservation over one borrowed buffer.
//
// Thread-safety model:
//   - state and budget are atomics; Attach, Commit, AllocBudget and
//     ReleaseBudget are safe from any goroutine, with exactly-once
//     semantics for the state transitions.
//   - The buffer contents are NOT synchronized by the domain. Verify
//     reads the buffer; callers must not mutate it concurrently with
//     Verify or the residue comparison is meaningless.
type Domain struct {
	capacity    int
	budgetClass uint8

	state  atomic.Int32
	budget atomic.Int32
	attach atomic.Pointer[attachment]
}

// New creates a domain with the given capacity and initial budget class.
// capacity must be in (0, MaxCapacity] and budgetClass in [0, 95].
// The conventional capacity is resonance.DomainSize (12,288 bytes), but any
// valid capacity is accepted.
func New(capacity int, budgetClass uint8) (*Domain, error) {
	if capacity <= 0 || capacity > MaxCapacity {
		return nil, newError(CodeInvalidArgument, "create", "capacity %d out of range (0, %d]", capacity, MaxCapacity)
	}
	if budgetClass >= modring.Modulus {
		return nil, newError(CodeInvalidArgument, "create", "budget class %d exceeds %d", budgetClass, modring.Modulus-1)
	}
	d := &Domain{capacity: capacity, budgetClass: budgetClass}
	d.budget.Store(int32(budgetClass))
	return d, nil
}

// Capacity returns the byte length fixed at creation.
func (d *Domain) Capacity() int {
	return d.capacity
}

// BudgetClass returns the initial budget value the domain was created with.
func (d *Domain) BudgetClass() uint8 {
	return d.budgetClass
}

// State returns the current lifecycle state.
func (d *Domain) State() State {
	return State(d.state.Load())
}

// Attach borrows buf and records its mod-96 residue as the conservation
// checksum. It transitions CREATED -> ATTACHED exactly once: a second call,
// or a call racing a concurrent winner, fails with CodeInvalidState.
//
// buf must be non-nil and exactly capacity bytes long; the domain holds a
// reference (no copy), so the caller must keep buf alive and must not
// mutate it while Verify or Commit may be reading it.
func (d *Domain) Attach(buf []byte) error {
	if buf == nil {
		return newError(CodeInvalidArgument, "attach", "nil buffer")
	}
	if len(buf) == 0 {
		return newError(CodeInvalidArgument, "attach", "empty buffer")
	}
	if len(buf) != d.capacity {
		return newError(CodeInvalidArgument, "attach", "buffer length %d does not match capacity %d", len(buf), d.capacity)
	}

	// Claim the transition before touching shared fields so concurrent
	// attachers never publish competing buffers. Losers see either the
	// claim marker or the final ATTACHED state.
	if !d.state.CompareAndSwap(int32(StateCreated), int32(stateAttaching)) {
		return newError(CodeInvalidState, "attach", "domain is %s, attach requires CREATED", d.State())
	}

	d.attach.Store(&attachment{buf: buf, checksum: modring.Sum(buf)})
	d.state.Store(int32(StateAttached))
	return nil
}

// Verify recomputes the attached buffer's residue and compares it to the
// checksum recorded at attach time. A mismatch is an expected, representable
// outcome: Verify returns false, never an error. Before a buffer is
// attached (or after Close) there is nothing to check and Verify returns
// false.
func (d *Domain) Verify() bool {
	att := d.attach.Load()
	if att == nil {
		return false
	}
	return modring.Sum(att.buf) == att.checksum
}

// Checksum returns the residue recorded at attach time. ok is false before
// attach completes.
func (d *Domain) Checksum() (sum uint8, ok bool) {
	att := d.attach.Load()
	if att == nil {
		return 0, false
	}
	return att.checksum, true
}

// Commit finalizes the domain with a single compare-and-swap from ATTACHED
// to COMMITTED. Under concurrent commit attempts exactly one caller
// succeeds; every other caller gets CodeInvalidState. Commit has no other
// side effect: conservation was fixed at attach time.
func (d *Domain) Commit() error {
	if d.state.CompareAndSwap(int32(StateAttached), int32(StateCommitted)) {
		return nil
	}
	return newError(CodeInvalidState, "commit", "domain is %s, commit requires ATTACHED", d.State())
}

// Close releases the domain's reference to the attached buffer so the
// caller's buffer is no longer pinned. It never frees or zeroes the buffer
// itself (caller-owned) and is safe on a nil domain. After Close, Verify
// returns false. The lifecycle state is unaffected: Close is resource
// disposal, not a transition.
func (d *Domain) Close() {
	if d == nil {
		return
	}
	d.attach.Store(nil)
}

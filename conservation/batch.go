package conservation

import (
	"runtime"
	"sync"
)

// Batch facades apply the single-object operations across many independent
// inputs. They parallelize across inputs when the batch is large enough to
// pay for goroutine startup; per-domain atomicity guarantees are unaffected
// because each element is independent and the underlying operations are the
// same ones documented on Domain and Witness.

// parallelThreshold is the batch size below which the facades run
// sequentially. Small batches are dominated by goroutine startup cost.
const parallelThreshold = 32

// forEach runs fn(i) for every index in [0, n), fanning out across
// workers when n crosses the threshold.
func forEach(n int, fn func(i int)) {
	if n < parallelThreshold {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				fn(i)
			}
		}(lo, hi)
	}
	wg.Wait()
}

// VerifyAll runs Verify on every domain and returns the per-domain results
// in input order. A nil domain verifies as false.
func VerifyAll(domains []*Domain) []bool {
	results := make([]bool, len(domains))
	forEach(len(domains), func(i int) {
		if domains[i] != nil {
			results[i] = domains[i].Verify()
		}
	})
	return results
}

// GenerateWitnesses derives a witness for every buffer, in input order.
// Any invalid buffer (nil or empty) fails the whole batch; partial results
// are discarded so callers never see a half-witnessed batch.
func GenerateWitnesses(bufs [][]byte) ([]*Witness, error) {
	for i, buf := range bufs {
		if len(buf) == 0 {
			return nil, newError(CodeInvalidArgument, "witness_batch", "buffer %d is nil or empty", i)
		}
	}
	witnesses := make([]*Witness, len(bufs))
	var failed sync.Once
	var firstErr error
	forEach(len(bufs), func(i int) {
		w, err := GenerateWitness(bufs[i])
		if err != nil {
			failed.Do(func() { firstErr = err })
			return
		}
		witnesses[i] = w
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return witnesses, nil
}

// DeltaAll computes the conservation delta for every before/after pair.
// The slices must be the same length and each pair must be equal-length
// non-nil buffers; any invalid pair fails the whole batch.
func DeltaAll(befores, afters [][]byte) ([]uint8, error) {
	if len(befores) != len(afters) {
		return nil, newError(CodeInvalidArgument, "delta_batch", "batch size mismatch: before=%d after=%d", len(befores), len(afters))
	}
	for i := range befores {
		if befores[i] == nil || afters[i] == nil || len(befores[i]) != len(afters[i]) {
			return nil, newError(CodeInvalidArgument, "delta_batch", "pair %d invalid", i)
		}
	}
	deltas := make([]uint8, len(befores))
	forEach(len(befores), func(i int) {
		// Inputs validated above; modring.Delta cannot fail.
		d, _ := Delta(befores[i], afters[i])
		deltas[i] = d
	})
	return deltas, nil
}

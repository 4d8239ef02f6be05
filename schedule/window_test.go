package schedule

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNextWindowFrom_Alignment verifies the returned slot satisfies
// (t + r) mod 96 == 0 and lies strictly in the future.
func TestNextWindowFrom_Alignment(t *testing.T) {
	for r := 0; r < 96; r++ {
		for now := int64(0); now < 300; now++ {
			got := NextWindowFrom(now, uint8(r))
			require.Greater(t, got, now, "now=%d r=%d", now, r)
			assert.Zero(t, (got+int64(r))%96, "now=%d r=%d got=%d", now, r, got)
			// The slot is the nearest aligned one: never more than a
			// full cycle away.
			assert.LessOrEqual(t, got-now, int64(96))
		}
	}
}

// TestNextWindowFrom_ZeroOffsetBecomesFullCycle pins the edge case where now
// is already aligned: the window must be a full cycle ahead, not now itself.
func TestNextWindowFrom_ZeroOffsetBecomesFullCycle(t *testing.T) {
	// now=96, r=0: (96+0)%96 == 0, so the raw offset would be 0.
	assert.Equal(t, int64(192), NextWindowFrom(96, 0))
	// now=90, r=6: (90+6)%96 == 0 as well.
	assert.Equal(t, int64(186), NextWindowFrom(90, 6))
	assert.Equal(t, int64(96), NextWindowFrom(0, 0))
}

// TestNextWindowFrom_MonotonicPerClass feeds the output back as now and
// requires strictly increasing results.
func TestNextWindowFrom_MonotonicPerClass(t *testing.T) {
	for r := 0; r < 96; r += 7 {
		now := int64(12345)
		for i := 0; i < 1000; i++ {
			next := NextWindowFrom(now, uint8(r))
			require.Greater(t, next, now, "iteration %d, r=%d", i, r)
			now = next
		}
	}
}

// TestNextWindowFrom_Deterministic checks identical inputs give identical
// outputs, including under concurrent callers.
func TestNextWindowFrom_Deterministic(t *testing.T) {
	want := NextWindowFrom(987654321, 42)
	assert.Equal(t, want, NextWindowFrom(987654321, 42))

	var wg sync.WaitGroup
	results := make([]int64, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = NextWindowFrom(987654321, 42)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

// TestNextWindowFrom_SaturatesNearMax verifies the time axis never wraps
// below now at the top of the representable range.
func TestNextWindowFrom_SaturatesNearMax(t *testing.T) {
	for r := 0; r < 96; r++ {
		got := NextWindowFrom(math.MaxInt64-10, uint8(r))
		require.GreaterOrEqual(t, got, int64(math.MaxInt64-10), "r=%d", r)
	}
	assert.Equal(t, int64(math.MaxInt64), NextWindowFrom(math.MaxInt64, 3))
}

// TestNextWindowFrom_NegativeNow keeps alignment consistent for negative
// time axes (floored modulus, not truncated).
func TestNextWindowFrom_NegativeNow(t *testing.T) {
	for r := 0; r < 96; r += 5 {
		for now := int64(-200); now < 0; now++ {
			got := NextWindowFrom(now, uint8(r))
			require.Greater(t, got, now)
			aligned := (got + int64(r)) % 96
			if aligned < 0 {
				aligned += 96
			}
			assert.Zero(t, aligned, "now=%d r=%d got=%d", now, r, got)
		}
	}
}

// TestClock_Monotonic verifies Next always increases, including under
// concurrent callers.
func TestClock_Monotonic(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())

	const goroutines = 8
	const perGoroutine = 1000
	var wg sync.WaitGroup
	seen := make([][]int64, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				seen[g] = append(seen[g], c.Next())
			}
		}(g)
	}
	wg.Wait()

	// All values are unique and the clock ends at the exact total.
	unique := make(map[int64]struct{})
	for _, vals := range seen {
		for _, v := range vals {
			unique[v] = struct{}{}
		}
	}
	assert.Len(t, unique, goroutines*perGoroutine+2)
	assert.Equal(t, int64(goroutines*perGoroutine+2), c.Current())
}

// TestClockAt_Resumes verifies a clock resumed from a stored seq continues
// past it.
func TestClockAt_Resumes(t *testing.T) {
	c := NewClockAt(500)
	assert.Equal(t, int64(500), c.Current())
	assert.Equal(t, int64(501), c.Next())
}

package conservation

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBudget_AllocRelease walks the basic bound checks.
func TestBudget_AllocRelease(t *testing.T) {
	d, err := New(16, 50)
	require.NoError(t, err)
	assert.Equal(t, uint8(50), d.Budget())

	require.NoError(t, d.AllocBudget(20))
	assert.Equal(t, uint8(30), d.Budget())

	// Overdraw fails and leaves the budget untouched.
	err = d.AllocBudget(31)
	require.Error(t, err)
	assert.True(t, IsBudgetError(err))
	assert.Equal(t, uint8(30), d.Budget())

	require.NoError(t, d.ReleaseBudget(40))
	assert.Equal(t, uint8(70), d.Budget())

	// Release past 95 fails cleanly instead of wrapping.
	err = d.ReleaseBudget(26)
	require.Error(t, err)
	assert.True(t, IsBudgetError(err))
	assert.Equal(t, uint8(70), d.Budget())

	require.NoError(t, d.ReleaseBudget(25))
	assert.Equal(t, uint8(95), d.Budget())
}

// TestBudget_AmountReducedMod96 verifies amounts are reduced into the ring
// before the bound check, so 96 allocates nothing and 97 allocates 1.
func TestBudget_AmountReducedMod96(t *testing.T) {
	d, err := New(16, 10)
	require.NoError(t, err)

	require.NoError(t, d.AllocBudget(96)) // reduces to 0
	assert.Equal(t, uint8(10), d.Budget())

	require.NoError(t, d.AllocBudget(97)) // reduces to 1
	assert.Equal(t, uint8(9), d.Budget())
}

// TestBudget_ZeroAmounts are valid no-ops in both directions.
func TestBudget_ZeroAmounts(t *testing.T) {
	d, err := New(16, 0)
	require.NoError(t, err)

	require.NoError(t, d.AllocBudget(0))
	require.NoError(t, d.ReleaseBudget(0))
	assert.Equal(t, uint8(0), d.Budget())

	// Budget 0: any positive alloc fails.
	err = d.AllocBudget(1)
	assert.True(t, IsBudgetError(err))
}

// TestBudget_BoundsUnderConcurrency hammers one domain with random alloc
// and release calls from many goroutines; the budget must stay in [0, 95]
// at every observation and the final value must equal the initial value
// plus the net of successful operations.
func TestBudget_BoundsUnderConcurrency(t *testing.T) {
	const goroutines = 8
	const opsPer = 2000

	d, err := New(16, 48)
	require.NoError(t, err)

	var allocated, released atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < opsPer; i++ {
				amount := uint8(rng.Intn(96))
				if rng.Intn(2) == 0 {
					if d.AllocBudget(amount) == nil {
						allocated.Add(int64(amount))
					}
				} else {
					if d.ReleaseBudget(amount) == nil {
						released.Add(int64(amount))
					}
				}
				// Budget is in range at every observation point.
				b := d.Budget()
				if b > 95 {
					t.Errorf("budget %d escaped [0, 95]", b)
					return
				}
			}
		}(int64(g))
	}
	wg.Wait()

	want := 48 - allocated.Load() + released.Load()
	assert.Equal(t, want, int64(d.Budget()),
		"final budget must equal initial + net successful operations")
}

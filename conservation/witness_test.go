package conservation

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas12288/atlas/modring"
	"github.com/atlas12288/atlas/resonance"
)

// TestWitness_RoundTrip verifies a witness always matches the exact buffer
// it was generated over.
func TestWitness_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for _, size := range []int{1, 16, 256, resonance.DomainSize} {
		buf := make([]byte, size)
		rng.Read(buf)

		w, err := GenerateWitness(buf)
		require.NoError(t, err)
		assert.True(t, w.Verify(buf), "size=%d", size)
		assert.Equal(t, modring.Sum(buf), w.Residue())
		assert.Equal(t, size, w.Length())
	}
}

// TestWitness_Deterministic checks the same bytes always produce the same
// witness, even from a separate copy of the buffer.
func TestWitness_Deterministic(t *testing.T) {
	buf := []byte("conserved payload")
	w1, err := GenerateWitness(buf)
	require.NoError(t, err)

	clone := make([]byte, len(buf))
	copy(clone, buf)
	w2, err := GenerateWitness(clone)
	require.NoError(t, err)

	assert.Equal(t, w1.Digest(), w2.Digest())
	assert.True(t, w1.Verify(clone))
	assert.True(t, w2.Verify(buf))
}

// TestWitness_DetectsMutation flips single bytes and checks verification
// fails; the original buffer still verifies afterwards (Verify is pure).
func TestWitness_DetectsMutation(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	buf := make([]byte, 1024)
	rng.Read(buf)

	w, err := GenerateWitness(buf)
	require.NoError(t, err)

	mutated := make([]byte, len(buf))
	for trial := 0; trial < 100; trial++ {
		copy(mutated, buf)
		i := rng.Intn(len(mutated))
		mutated[i] ^= byte(1 + rng.Intn(255))
		assert.False(t, w.Verify(mutated), "mutation at %d must fail", i)
	}

	assert.True(t, w.Verify(buf))
}

// TestWitness_DetectsLengthChange fails on truncation and extension, even
// when the content prefix is identical.
func TestWitness_DetectsLengthChange(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	w, err := GenerateWitness(buf)
	require.NoError(t, err)

	assert.False(t, w.Verify(buf[:4]))
	assert.False(t, w.Verify(append([]byte{1, 2, 3, 4, 5}, 0)))
	assert.False(t, w.Verify(nil))
}

// TestWitness_InvalidInput rejects nil and zero-length buffers.
func TestWitness_InvalidInput(t *testing.T) {
	_, err := GenerateWitness(nil)
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))

	_, err = GenerateWitness([]byte{})
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

// TestWitness_ResidueMatchesConservation cross-checks the carried residue
// against a domain attached over the same buffer.
func TestWitness_ResidueMatchesConservation(t *testing.T) {
	buf := conservedBuffer(t, 256, 8)
	w, err := GenerateWitness(buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), w.Residue())

	d, err := New(256, 0)
	require.NoError(t, err)
	require.NoError(t, d.Attach(buf))
	sum, ok := d.Checksum()
	require.True(t, ok)
	assert.Equal(t, w.Residue(), sum)
}

// TestWitness_ConcurrentVerify verifies from many goroutines at once;
// witnesses are immutable so this must be race-free.
func TestWitness_ConcurrentVerify(t *testing.T) {
	buf := make([]byte, 4096)
	rand.New(rand.NewSource(9)).Read(buf)
	w, err := GenerateWitness(buf)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				assert.True(t, w.Verify(buf))
			}
		}()
	}
	wg.Wait()
}

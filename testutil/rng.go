package testutil

import (
	"math/bits"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Size returns a pseudo-random size in [minSize, maxSize].
func (r *RNG) Size(minSize, maxSize int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return minSize + r.rand.Intn(maxSize-minSize+1)
}

// Alignment returns a pseudo-random power of two in [1, maxAlignment].
// maxAlignment must be a power of two.
func (r *RNG) Alignment(maxAlignment int) int {
	shifts := bits.Len(uint(maxAlignment)) //nolint:gosec // positive by contract
	r.mu.Lock()
	defer r.mu.Unlock()
	return 1 << r.rand.Intn(shifts)
}

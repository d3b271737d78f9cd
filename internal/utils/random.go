package utils

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
	"time"
)

// Random provides a deterministic pseudo-random number generator used to
// drive scripted conversations. It is reproducible given the same seed.
type Random struct {
	rng  *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRandom creates a new Random instance with the given seed.
// If seed is 0, a cryptographically random seed is generated.
func NewRandom(seed int64) *Random {
	var actualSeed uint64
	if seed == 0 {
		actualSeed = generateRandomSeed()
	} else {
		actualSeed = uint64(seed)
	}

	return &Random{
		rng:  rand.New(rand.NewPCG(actualSeed, actualSeed^0xDEADBEEF)),
		seed: actualSeed,
	}
}

// generateRandomSeed creates a cryptographically random seed
func generateRandomSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Seed returns the seed used to initialize this RNG
func (r *Random) Seed() uint64 {
	return r.seed
}

// Fork creates a new Random instance with a derived seed.
// Each simulator worker gets its own stream.
func (r *Random) Fork() *Random {
	r.mu.Lock()
	defer r.mu.Unlock()

	newSeed := r.rng.Uint64()
	return &Random{
		rng:  rand.New(rand.NewPCG(newSeed, newSeed^0xCAFEBABE)),
		seed: newSeed,
	}
}

// IntN returns a pseudo-random int in [0, n)
func (r *Random) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// IntRange returns a pseudo-random int in [min, max]
func (r *Random) IntRange(min, max int) int {
	if min >= max {
		return min
	}
	return min + r.IntN(max-min+1)
}

// Float64 returns a pseudo-random float64 in [0.0, 1.0)
func (r *Random) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// Probability returns true with the given probability (0.0 to 1.0)
func (r *Random) Probability(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.Float64() < p
}

// PickString returns a random string from the slice
func (r *Random) PickString(slice []string) string {
	if len(slice) == 0 {
		return ""
	}
	return slice[r.IntN(len(slice))]
}

// Duration returns a random duration in [min, max]
func (r *Random) Duration(min, max time.Duration) time.Duration {
	if min >= max {
		return min
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return min + time.Duration(r.rng.Int64N(int64(max-min+1)))
}

// NumericString generates a random numeric string of the given length
func (r *Random) NumericString(length int) string {
	const charset = "0123456789"
	result := make([]byte, length)
	for i := range result {
		result[i] = charset[r.IntN(len(charset))]
	}
	return string(result)
}

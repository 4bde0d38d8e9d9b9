package aggregate

import (
	"math/rand"
	"sort"
	"time"
)

// DefaultMaxSample bounds how many records non-disposition query kinds
// aggregate over before sampling kicks in.
const DefaultMaxSample = 500

// Sampler draws uniform random samples without replacement. The rng is
// injectable so tests can be deterministic.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler seeded from the clock.
func NewSampler() *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededSampler creates a sampler with a fixed seed for tests.
func NewSeededSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Sample returns min(len(records), max) records. At or below the cap the
// input is returned unchanged. Above it, a uniform random draw without
// replacement is taken and the survivors keep their original relative
// order, so time-sorted input stays time-sorted.
func Sample[T any](s *Sampler, records []T, max int) []T {
	if max <= 0 || len(records) <= max {
		return records
	}

	// Partial Fisher-Yates over the index space: the first `max`
	// positions end up holding a uniform draw without replacement.
	indices := make([]int, len(records))
	for i := range indices {
		indices[i] = i
	}
	for i := 0; i < max; i++ {
		j := i + s.rng.Intn(len(indices)-i)
		indices[i], indices[j] = indices[j], indices[i]
	}

	chosen := indices[:max]
	sort.Ints(chosen)

	out := make([]T, 0, max)
	for _, idx := range chosen {
		out = append(out, records[idx])
	}
	return out
}

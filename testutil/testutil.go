package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/scriptmetric/value"
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
		rand: rand.New(rand.NewSource(seed)),
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

// Zipf returns a Zipfian-distributed value in [0, n).
// P(k) ∝ 1/k^s where s is the skew parameter.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// ZipfOrdinals generates n bucket ordinals in [0, bucketCount) with a
// Zipfian distribution, so a few buckets receive most documents.
func (r *RNG) ZipfOrdinals(n, bucketCount int, s float64) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	ords := make([]int64, n)
	for i := range n {
		ords[i] = int64(r.zipfLocked(bucketCount, s))
	}

	return ords
}

// SparseOrdinals picks n distinct ordinals in [0, maxOrd) in ascending order.
func (r *RNG) SparseOrdinals(n int, maxOrd int64) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if int64(n) > maxOrd {
		n = int(maxOrd)
	}
	seen := make(map[int64]struct{}, n)
	for len(seen) < n {
		seen[r.rand.Int63n(maxOrd)] = struct{}{}
	}
	out := make([]int64, 0, n)
	for o := range seen {
		out = append(out, o)
	}
	slices.Sort(out)
	return out
}

// Documents generates n documents with an integer "price" in [0, 1000), a
// float "weight" in [0, 1) and a "tag" drawn from tags distinct values.
func (r *RNG) Documents(n, tags int) []*value.Map {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs := make([]*value.Map, n)
	for i := range n {
		m := value.NewMap()
		m.Set("price", value.Int(r.rand.Int63n(1000)))
		m.Set("weight", value.Float(r.rand.Float64()))
		if tags > 0 {
			m.Set("tag", value.String(fmt.Sprintf("t%d", r.rand.Intn(tags))))
		}
		docs[i] = m
	}
	return docs
}

// Counts returns how often every ordinal occurs in ords.
func Counts(ords []int64) map[int64]int64 {
	out := make(map[int64]int64)
	for _, o := range ords {
		out[o]++
	}
	return out
}

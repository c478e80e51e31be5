package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/paulmach/orb"

	"github.com/hupe1980/osmextract/model"
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
	r.rand = rand.New(rand.NewSource(r.seed))
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

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// Point returns a random point inside env. Coordinates are rounded to
// 1e-7 degrees, the precision of the block format, so they survive an
// encode/decode round trip unchanged.
func (r *RNG) Point(env model.Envelope) orb.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	lon := env.MinLon() + r.rand.Float64()*(env.MaxLon()-env.MinLon())
	lat := env.MinLat() + r.rand.Float64()*(env.MaxLat()-env.MinLat())
	return orb.Point{Round(lon), Round(lat)}
}

// Near returns a random point within radius of p, clamped to env.
func (r *RNG) Near(p orb.Point, radius float64, env model.Envelope) orb.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	lon := p[0] + (r.rand.Float64()*2-1)*radius
	lat := p[1] + (r.rand.Float64()*2-1)*radius
	lon = math.Min(math.Max(lon, env.MinLon()), env.MaxLon())
	lat = math.Min(math.Max(lat, env.MinLat()), env.MaxLat())
	return orb.Point{Round(lon), Round(lat)}
}

// Round rounds a coordinate to 1e-7 degrees.
func Round(v float64) float64 {
	return math.Round(v*1e7) / 1e7
}

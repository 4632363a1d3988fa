package graph

import (
	"math"
	"math/rand"
)

// levelForInsertion draws the level for the node at insertion sequence
// number counter, given the index's random seed and level-sampling factor
// mL = 1/ln(M). It must be a pure function of (seed, counter), not
// of call order or goroutine scheduling, so that concurrent batch inserts
// produce the same level assignments on every run regardless of which
// worker happens to process which item first.
//
// Each call derives its own single-use *rand.Rand seeded by mixing seed
// and counter through splitmix64, rather than sharing one *rand.Rand
// across insertions (which would make the draw depend on call order).
func levelForInsertion(seed uint64, counter uint64, mL float64) int {
	mixed := splitmix64(seed ^ (counter*0x9E3779B97F4A7C15 + 1))
	src := rand.New(rand.NewSource(int64(mixed))) // nolint:gosec
	u := src.Float64()
	for u == 0 {
		u = src.Float64()
	}
	return int(math.Floor(-math.Log(u) * mL))
}

// splitmix64 is the standard SplitMix64 mixing function: a fast, fixed,
// deterministic bijection used here only to decorrelate nearby counter
// values before they seed math/rand, not as a cryptographic primitive.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Package randutil centralises deterministic RNG construction. Dice
// rollers, opponent strategies and the trainer's exploration draws all
// derive their generators here so a single seed reproduces a whole run.
package randutil

import rand "math/rand/v2"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from the provided
// int64, deriving the two 64-bit PCG seeds with a splitmix-style mixer.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Derive maps a base seed and a stream index to an independent seed, used
// to give every episode or game its own reproducible generator.
func Derive(seed int64, stream int64) int64 {
	return int64(mix(uint64(seed)) ^ mix(uint64(stream)*goldenRatio64))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

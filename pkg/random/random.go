// Package random provides the single seedable randomness source behind all
// probabilistic policy in the bot. Every component that makes a random choice
// draws through a Source so tests can substitute a deterministic one.
package random

import (
	"math/rand"
	"time"
)

// Source is the draw interface shared by all components.
type Source interface {
	// Intn returns a uniform integer in [0, n). Panics if n <= 0.
	Intn(n int) int
	// Float64 returns a uniform float in [0.0, 1.0).
	Float64() float64
}

// New returns a Source seeded with seed. Runs with the same seed and inputs
// are fully reproducible.
func New(seed int64) Source {
	return rand.New(rand.NewSource(seed)) //nolint:gosec // policy randomness, not crypto
}

// NewTimeSeeded returns a Source seeded from the wall clock.
func NewTimeSeeded() Source {
	return New(time.Now().UnixNano())
}

// Chance reports whether a draw succeeds with probability p. Values outside
// [0,1] clamp: p <= 0 never fires, p >= 1 always fires without consuming a
// draw.
func Chance(s Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.Float64() < p
}

// Pick returns a uniformly chosen element of items. Panics if items is empty.
func Pick[T any](s Source, items []T) T {
	return items[s.Intn(len(items))]
}

// IntBetween returns a uniform integer in [lo, hi] inclusive.
func IntBetween(s Source, lo, hi int) int {
	return lo + s.Intn(hi-lo+1)
}

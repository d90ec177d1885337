package app

import (
	"math/rand/v2"
	"time"
)

// NewRand returns a PCG-backed source seeded from the clock.
func NewRand() *rand.Rand {
	now := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(now, now>>1|1))
}

// shuffle returns a Fisher-Yates permutation of items; the input is not modified.
func shuffle[T any](rnd *rand.Rand, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := rnd.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

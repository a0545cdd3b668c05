package hitsplat

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
	"sort"
)

// Source is the randomness provider for sampled hits.
type Source interface {
	// Float64 returns a uniformly distributed value in [0, 1).
	Float64() float64
}

// cryptoSource implements Source using crypto/rand.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand. Safe for concurrent use.
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Float64 draws 53 random bits. Panics if crypto/rand fails.
func (cryptoSource) Float64() float64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("hitsplat: crypto/rand failure: " + err.Error())
	}
	return float64(binary.LittleEndian.Uint64(b[:])>>11) / (1 << 53)
}

// NewSeededSource returns a deterministic PCG-backed Source. Not safe for
// concurrent use.
func NewSeededSource(seed uint64) Source {
	return mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RandomHit draws k independent samples from h using src.
//
// Precondition: k >= 0; src non-nil.
// Postcondition: len(result) == k; every value is within 0..h.MaxHit().
func (h Hitsplat) RandomHit(src Source, k int) []int {
	if k <= 0 || len(h.probability) == 0 {
		return []int{}
	}
	cdf := make([]float64, len(h.probability))
	acc := 0.0
	for i, p := range h.probability {
		acc += p
		cdf[i] = acc
	}
	last := len(cdf) - 1
	out := make([]int, k)
	for i := range out {
		u := src.Float64() * acc
		d := sort.Search(len(cdf), func(j int) bool { return cdf[j] > u })
		if d > last {
			d = last
		}
		out[i] = d
	}
	return out
}

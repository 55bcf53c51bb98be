// Package shuffle provides a portable, seedable permutation so the same id
// always produces the same layout across runs and platforms.
//
// Generator: SplitMix64 (state += 0x9e3779b97f4a7c15, then the standard
// 30/27/31 xor-shift-multiply finaliser). A zero seed is replaced by 1.
// Permutation: Fisher–Yates from the last index down, j = Next() % (i+1).
// Seeds: xxhash64 of the id string.
package shuffle

import "github.com/cespare/xxhash/v2"

// RNG is a SplitMix64 generator. The zero value is not usable; call New.
type RNG struct {
	state uint64
}

// New returns a generator seeded with seed.
func New(seed uint64) *RNG {
	if seed == 0 {
		seed = 1
	}
	return &RNG{state: seed}
}

// Next returns the next 64-bit value.
func (r *RNG) Next() uint64 {
	r.state += 0x9e3779b97f4a7c15
	z := r.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Intn returns a value in [0, n). n must be positive.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		panic("shuffle: Intn called with non-positive n")
	}
	return int(r.Next() % uint64(n))
}

// Seed derives a generator seed from an id.
func Seed(id string) uint64 {
	return xxhash.Sum64String(id)
}

// Permutation returns a shuffled permutation of [0, n).
func (r *RNG) Permutation(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// Slice returns a shuffled copy of items; the input is not modified.
func Slice[T any](r *RNG, items []T) []T {
	out := make([]T, len(items))
	for i, idx := range r.Permutation(len(items)) {
		out[i] = items[idx]
	}
	return out
}

// Seeded shuffles a copy of items with a fresh generator for seed.
func Seeded[T any](seed uint64, items []T) []T {
	return Slice(New(seed), items)
}

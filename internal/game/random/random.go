// Package random provides the pseudo-random generator of the simulation:
// xoshiro256++ seeded through splitmix64. The output sequence depends only on
// the seed, bit for bit, on every platform.
package random

import "math/bits"

// Generator is a xoshiro256++ generator.
type Generator struct {
	s [4]uint64
}

// New creates a generator whose state is expanded from seed with splitmix64.
func New(seed uint64) *Generator {
	g := &Generator{}
	x := seed
	for i := range g.s {
		x, g.s[i] = splitMix64(x)
	}
	return g
}

func splitMix64(x uint64) (next, value uint64) {
	next = x + 0x9e3779b97f4a7c15
	z := next
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return next, z ^ (z >> 31)
}

// Next returns the next 64-bit value of the sequence.
func (g *Generator) Next() uint64 {
	s := &g.s
	result := bits.RotateLeft64(s[0]+s[3], 23) + s[0]
	t := s[1] << 17

	s[2] ^= s[0]
	s[3] ^= s[1]
	s[1] ^= s[2]
	s[0] ^= s[3]

	s[2] ^= t
	s[3] = bits.RotateLeft64(s[3], 45)

	return result
}

// Min is the smallest value returned by Next.
func (g *Generator) Min() uint64 { return 0 }

// Max is the largest value returned by Next.
func (g *Generator) Max() uint64 { return ^uint64(0) }

// Discard advances the sequence by n values.
func (g *Generator) Discard(n int) {
	for i := 0; i < n; i++ {
		g.Next()
	}
}

// Intn returns a uniform value in [0, n). It panics if n <= 0.
//
// Values are drawn by rejection so the result is unbiased; the number of
// values consumed from the sequence is still a pure function of the state.
func (g *Generator) Intn(n int) int {
	if n <= 0 {
		panic("random: Intn with non-positive bound")
	}

	bound := uint64(n)
	limit := g.Max() - g.Max()%bound
	for {
		v := g.Next()
		if v < limit {
			return int(v % bound)
		}
	}
}

// Clone returns a generator at the same position in the sequence.
func (g *Generator) Clone() *Generator {
	c := *g
	return &c
}

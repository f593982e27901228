// Package prg provides the keyed deterministic byte streams that drive all
// share sampling and correlated randomness. A PRG is a thin wrapper around
// lattigo's blake2-based KeyedPRNG; two parties seeding a PRG with the same
// bytes observe identical streams, which is the property every correlation
// in the protocol suite is built on.
package prg

import (
	"fmt"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/tuneinsight/lattigo/v4/utils"
)

// SeedSize is the canonical seed width in bytes. Shorter seeds are
// accepted and zero-padded; this matters because field elements (8 or 16
// bytes) are routinely used as seeds.
const SeedSize = 32

// PRG is a deterministic pseudorandom byte stream with a fixed seed.
type PRG struct {
	xof *utils.KeyedPRNG
}

// New creates a PRG from the given seed. Seeds longer than SeedSize are
// rejected.
func New(seed []byte) (*PRG, error) {
	if len(seed) > SeedSize {
		return nil, fmt.Errorf("prg: seed too long: %d > %d", len(seed), SeedSize)
	}
	key := make([]byte, SeedSize)
	copy(key, seed)
	xof, err := utils.NewKeyedPRNG(key)
	if err != nil {
		return nil, fmt.Errorf("prg: %w", err)
	}
	return &PRG{xof: xof}, nil
}

// NewFromElement seeds a PRG with the encoding of a field element. This is
// how mask and randomness correlations turn shared share values into
// shared streams.
func NewFromElement(e field.Element) *PRG {
	g, err := New(e.Bytes())
	if err != nil {
		// element encodings are always well under SeedSize
		panic(fmt.Sprintf("prg: seeding from element: %v", err))
	}
	return g
}

// Read fills p with pseudorandom bytes. It never fails.
func (g *PRG) Read(p []byte) (int, error) {
	return g.xof.Read(p)
}

// Element draws one field element from the stream.
func (g *PRG) Element(f field.Field) field.Element {
	return field.MustRandom(f, g)
}

// Elements draws n field elements from the stream.
func (g *PRG) Elements(f field.Field, n int) []field.Element {
	out := make([]field.Element, n)
	for i := range out {
		out[i] = g.Element(f)
	}
	return out
}

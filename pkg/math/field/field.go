// Package field implements arithmetic over the prime-order fields used by
// the protocol suite: GF(p) for the Mersenne primes p = 2⁶¹−1 and
// p = 2¹²⁷−1. Higher layers are written against the Field and Element
// interfaces and never mention a concrete prime.
package field

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNotInvertible is returned when inverting 0.
	ErrNotInvertible = errors.New("field: element is not invertible")
	// ErrShortBuffer is returned when decoding from a buffer smaller than
	// the element width.
	ErrShortBuffer = errors.New("field: buffer too short for element")
)

// Field describes a prime-order finite field. Implementations are stateless
// values which act as factories for elements.
type Field interface {
	// Name returns a short identifier, e.g. "Mp61".
	Name() string
	// ByteSize is the exact width of an encoded element.
	ByteSize() int
	// NewElement returns the additive identity.
	NewElement() Element
	// FromUint64 returns the element representing v mod p.
	FromUint64(v uint64) Element
	// FromBytes decodes a little-endian encoding of exactly ByteSize
	// bytes, reducing modulo p.
	FromBytes(b []byte) (Element, error)
	// Random draws ByteSize bytes from r and reduces them to an element.
	Random(r io.Reader) (Element, error)
}

// Element is a single field element. Elements are immutable; every
// operation returns a fresh element. Mixing elements of different fields
// panics, mirroring the fact that it is always a programming error.
type Element interface {
	Field() Field
	Add(Element) Element
	Sub(Element) Element
	Mul(Element) Element
	Negate() Element
	// Invert returns the multiplicative inverse, or ErrNotInvertible for 0.
	Invert() (Element, error)
	Equal(Element) bool
	IsZero() bool
	// Bytes returns the fixed-width little-endian encoding.
	Bytes() []byte
	fmt.Stringer
}

// MustRandom is Random for readers that cannot fail (deterministic PRGs).
func MustRandom(f Field, r io.Reader) Element {
	e, err := f.Random(r)
	if err != nil {
		panic(fmt.Sprintf("field: read from PRG failed: %v", err))
	}
	return e
}

package field

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
)

// p61 is the Mersenne prime 2⁶¹ − 1.
const p61 uint64 = (1 << 61) - 1

// Mersenne61 is GF(2⁶¹ − 1) on a 64-bit carrier.
type Mersenne61 struct{}

func (Mersenne61) Name() string  { return "Mp61" }
func (Mersenne61) ByteSize() int { return 8 }

func (Mersenne61) NewElement() Element { return element61(0) }

func (Mersenne61) FromUint64(v uint64) Element { return element61(v % p61) }

func (f Mersenne61) FromBytes(b []byte) (Element, error) {
	if len(b) < f.ByteSize() {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrShortBuffer, len(b), f.ByteSize())
	}
	return element61(binary.LittleEndian.Uint64(b) % p61), nil
}

func (f Mersenne61) Random(r io.Reader) (Element, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("field: sampling element: %w", err)
	}
	return f.FromBytes(buf[:])
}

// element61 holds a value already reduced mod p61.
type element61 uint64

func cast61(generic Element) element61 {
	out, ok := generic.(element61)
	if !ok {
		panic(fmt.Sprintf("field: expected Mp61 element, got %T", generic))
	}
	return out
}

func (e element61) Field() Field { return Mersenne61{} }

func add61(x, y uint64) uint64 {
	z := x + y
	if z >= p61 {
		z -= p61
	}
	return z
}

func (e element61) Add(that Element) Element {
	return element61(add61(uint64(e), uint64(cast61(that))))
}

func (e element61) Sub(that Element) Element {
	x, y := uint64(e), uint64(cast61(that))
	if x < y {
		x += p61
	}
	return element61(x - y)
}

func (e element61) Mul(that Element) Element {
	hi, lo := bits.Mul64(uint64(e), uint64(cast61(that)))
	a := hi<<3 | lo>>61
	b := lo & p61
	return element61(add61(a, b))
}

func (e element61) Negate() Element {
	if e == 0 {
		return e
	}
	return element61(p61 - uint64(e))
}

// Invert computes the inverse with the signed extended Euclidean
// algorithm; p61 fits comfortably in an int64.
func (e element61) Invert() (Element, error) {
	if e == 0 {
		return nil, ErrNotInvertible
	}
	t, newT := int64(0), int64(1)
	r, newR := int64(p61), int64(e)
	for newR != 0 {
		q := r / newR
		t, newT = newT, t-q*newT
		r, newR = newR, r-q*newR
	}
	if r != 1 {
		return nil, ErrNotInvertible
	}
	if t < 0 {
		t += int64(p61)
	}
	return element61(uint64(t)), nil
}

func (e element61) Equal(that Element) bool { return e == cast61(that) }

func (e element61) IsZero() bool { return e == 0 }

func (e element61) Bytes() []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, uint64(e))
	return out
}

func (e element61) String() string { return fmt.Sprintf("%d", uint64(e)) }

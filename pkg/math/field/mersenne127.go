package field

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"

	"github.com/cronokirby/saferith"
)

// p127 is the Mersenne prime 2¹²⁷ − 1, split over two 64-bit limbs.
const (
	p127Hi uint64 = 0x7FFFFFFFFFFFFFFF
	p127Lo uint64 = 0xFFFFFFFFFFFFFFFF
)

var p127Modulus = saferith.ModulusFromBytes([]byte{
	0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
})

// Mersenne127 is GF(2¹²⁷ − 1) on a two-limb carrier. There is no native
// 128-bit integer type, so products are assembled from 64×64 partial
// products via math/bits and inversion is delegated to saferith.
type Mersenne127 struct{}

func (Mersenne127) Name() string  { return "Mp127" }
func (Mersenne127) ByteSize() int { return 16 }

func (Mersenne127) NewElement() Element { return element127{} }

func (Mersenne127) FromUint64(v uint64) Element { return element127{lo: v} }

func (f Mersenne127) FromBytes(b []byte) (Element, error) {
	if len(b) < f.ByteSize() {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrShortBuffer, len(b), f.ByteSize())
	}
	e := element127{
		lo: binary.LittleEndian.Uint64(b[:8]),
		hi: binary.LittleEndian.Uint64(b[8:16]),
	}
	return e.norm().norm(), nil
}

func (f Mersenne127) Random(r io.Reader) (Element, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("field: sampling element: %w", err)
	}
	return f.FromBytes(buf[:])
}

// element127 holds a value already reduced mod p127 (hi < 2⁶³).
type element127 struct {
	hi, lo uint64
}

func cast127(generic Element) element127 {
	out, ok := generic.(element127)
	if !ok {
		panic(fmt.Sprintf("field: expected Mp127 element, got %T", generic))
	}
	return out
}

func (e element127) Field() Field { return Mersenne127{} }

// norm subtracts the prime once if the value is ≥ p127.
func (e element127) norm() element127 {
	if e.hi > p127Hi || (e.hi == p127Hi && e.lo == p127Lo) {
		lo, borrow := bits.Sub64(e.lo, p127Lo, 0)
		hi, _ := bits.Sub64(e.hi, p127Hi, borrow)
		return element127{hi: hi, lo: lo}
	}
	return e
}

func add127(x, y element127) element127 {
	lo, carry := bits.Add64(x.lo, y.lo, 0)
	hi, _ := bits.Add64(x.hi, y.hi, carry)
	return element127{hi: hi, lo: lo}.norm()
}

func (e element127) Add(that Element) Element { return add127(e, cast127(that)) }

func (e element127) Sub(that Element) Element {
	y := cast127(that)
	x := e
	if x.hi < y.hi || (x.hi == y.hi && x.lo < y.lo) {
		lo, carry := bits.Add64(x.lo, p127Lo, 0)
		hi, _ := bits.Add64(x.hi, p127Hi, carry)
		x = element127{hi: hi, lo: lo}
	}
	lo, borrow := bits.Sub64(x.lo, y.lo, 0)
	hi, _ := bits.Sub64(x.hi, y.hi, borrow)
	return element127{hi: hi, lo: lo}
}

// Mul computes the 256-bit product limb by limb and folds the top 129 bits
// back down: a := z >> 127, b := z mod 2¹²⁷, result a + b mod p.
func (e element127) Mul(that Element) Element {
	x, y := e, cast127(that)

	acHi, acLo := bits.Mul64(x.hi, y.hi)
	adHi, adLo := bits.Mul64(x.hi, y.lo)
	bcHi, bcLo := bits.Mul64(x.lo, y.hi)
	bdHi, bdLo := bits.Mul64(x.lo, y.lo)

	mid, c1 := bits.Add64(bdHi, adLo, 0)
	mid, c2 := bits.Add64(mid, bcLo, 0)
	low := element127{hi: mid, lo: bdLo}

	highLo, c3 := bits.Add64(acLo, adHi, 0)
	highLo, c4 := bits.Add64(highLo, bcHi, 0)
	highLo, c5 := bits.Add64(highLo, c1+c2, 0)
	highHi := acHi + c3 + c4 + c5

	a := element127{
		hi: highHi<<1 | highLo>>63,
		lo: highLo<<1 | low.hi>>63,
	}
	b := element127{hi: low.hi & p127Hi, lo: low.lo}
	return add127(a.norm(), b.norm())
}

func (e element127) Negate() Element {
	if e.IsZero() {
		return e
	}
	lo, borrow := bits.Sub64(p127Lo, e.lo, 0)
	hi, _ := bits.Sub64(p127Hi, e.hi, borrow)
	return element127{hi: hi, lo: lo}
}

func (e element127) Invert() (Element, error) {
	if e.IsZero() {
		return nil, ErrNotInvertible
	}
	var be [16]byte
	binary.BigEndian.PutUint64(be[:8], e.hi)
	binary.BigEndian.PutUint64(be[8:], e.lo)
	inv := new(saferith.Nat).ModInverse(new(saferith.Nat).SetBytes(be[:]), p127Modulus)
	var out [16]byte
	inv.FillBytes(out[:])
	return element127{
		hi: binary.BigEndian.Uint64(out[:8]),
		lo: binary.BigEndian.Uint64(out[8:]),
	}, nil
}

func (e element127) Equal(that Element) bool { return e == cast127(that) }

func (e element127) IsZero() bool { return e.hi == 0 && e.lo == 0 }

func (e element127) Bytes() []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[:8], e.lo)
	binary.LittleEndian.PutUint64(out[8:], e.hi)
	return out
}

func (e element127) String() string {
	if e.hi == 0 {
		return fmt.Sprintf("%d", e.lo)
	}
	return fmt.Sprintf("0x%x%016x", e.hi, e.lo)
}

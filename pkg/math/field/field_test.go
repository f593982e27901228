package field

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var fields = []Field{Mersenne61{}, Mersenne127{}}

func TestArithmeticIdentities(t *testing.T) {
	for _, f := range fields {
		t.Run(f.Name(), func(t *testing.T) {
			a := f.FromUint64(1234567891011)
			b := f.FromUint64(987654321)
			zero := f.NewElement()
			one := f.FromUint64(1)

			require.True(t, a.Add(zero).Equal(a))
			require.True(t, a.Mul(one).Equal(a))
			require.True(t, a.Sub(a).IsZero())
			require.True(t, a.Add(a.Negate()).IsZero())
			require.True(t, a.Add(b).Equal(b.Add(a)))
			require.True(t, a.Mul(b).Equal(b.Mul(a)))

			// distributivity
			lhs := a.Add(b).Mul(a)
			rhs := a.Mul(a).Add(b.Mul(a))
			require.True(t, lhs.Equal(rhs))
		})
	}
}

func TestInverse(t *testing.T) {
	for _, f := range fields {
		t.Run(f.Name(), func(t *testing.T) {
			one := f.FromUint64(1)
			for _, v := range []uint64{1, 2, 3, 65537, 1234567891011} {
				a := f.FromUint64(v)
				inv, err := a.Invert()
				require.NoError(t, err)
				require.True(t, a.Mul(inv).Equal(one), "v=%d", v)
			}

			_, err := f.NewElement().Invert()
			require.ErrorIs(t, err, ErrNotInvertible)
		})
	}
}

func TestMersenne61Reduction(t *testing.T) {
	f := Mersenne61{}
	p := uint64(1<<61 - 1)

	// p reduces to zero, p+1 to one.
	require.True(t, f.FromUint64(p).IsZero())
	require.True(t, f.FromUint64(p+1).Equal(f.FromUint64(1)))

	// (p-1) * (p-1) = p² - 2p + 1 ≡ 1 mod p.
	big := f.FromUint64(p - 1)
	require.True(t, big.Mul(big).Equal(f.FromUint64(1)))
}

func TestMersenne127Reduction(t *testing.T) {
	f := Mersenne127{}

	// p reduces to zero: encode p little-endian.
	raw := make([]byte, 16)
	for i := range raw {
		raw[i] = 0xFF
	}
	raw[15] = 0x7F
	e, err := f.FromBytes(raw)
	require.NoError(t, err)
	require.True(t, e.IsZero())

	// (p-1)² ≡ 1 mod p, with p-1 spanning both limbs.
	pm1 := f.FromUint64(1).Negate()
	require.True(t, pm1.Mul(pm1).Equal(f.FromUint64(1)))

	// 2⁶⁴ · 2⁶⁴ = 2¹²⁸ ≡ 2 mod p.
	two64 := f.FromUint64(1 << 32).Mul(f.FromUint64(1 << 32))
	require.True(t, two64.Mul(two64).Equal(f.FromUint64(2)))
}

func TestBytesRoundTrip(t *testing.T) {
	for _, f := range fields {
		t.Run(f.Name(), func(t *testing.T) {
			for _, v := range []uint64{0, 1, 42, 1 << 60, ^uint64(0)} {
				a := f.FromUint64(v)
				b := a.Bytes()
				require.Len(t, b, f.ByteSize())
				back, err := f.FromBytes(b)
				require.NoError(t, err)
				require.True(t, a.Equal(back))
			}

			_, err := f.FromBytes(make([]byte, f.ByteSize()-1))
			require.ErrorIs(t, err, ErrShortBuffer)
		})
	}
}

func TestVectorRoundTrip(t *testing.T) {
	for _, f := range fields {
		t.Run(f.Name(), func(t *testing.T) {
			els := []Element{f.FromUint64(1), f.FromUint64(99), f.FromUint64(1 << 50)}
			raw := VectorToBytes(els)
			require.Len(t, raw, 3*f.ByteSize())
			back, err := VectorFromBytes(f, raw, 3)
			require.NoError(t, err)
			for i := range els {
				require.True(t, els[i].Equal(back[i]))
			}

			_, err = VectorFromBytes(f, raw, 4)
			require.ErrorIs(t, err, ErrShortBuffer)
		})
	}
}

func TestMixingFieldsPanics(t *testing.T) {
	a := Mersenne61{}.FromUint64(1)
	b := Mersenne127{}.FromUint64(1)
	require.Panics(t, func() { a.Add(b) })
}

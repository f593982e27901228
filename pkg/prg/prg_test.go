package prg

import (
	"testing"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/stretchr/testify/require"
)

func TestDeterministic(t *testing.T) {
	a, err := New([]byte("seed"))
	require.NoError(t, err)
	b, err := New([]byte("seed"))
	require.NoError(t, err)

	buf1 := make([]byte, 64)
	buf2 := make([]byte, 64)
	_, err = a.Read(buf1)
	require.NoError(t, err)
	_, err = b.Read(buf2)
	require.NoError(t, err)
	require.Equal(t, buf1, buf2)
}

func TestSeedsDiffer(t *testing.T) {
	a, err := New([]byte("seed-a"))
	require.NoError(t, err)
	b, err := New([]byte("seed-b"))
	require.NoError(t, err)

	f := field.Mersenne61{}
	require.False(t, a.Element(f).Equal(b.Element(f)))
}

func TestSeedTooLong(t *testing.T) {
	_, err := New(make([]byte, SeedSize+1))
	require.Error(t, err)
}

func TestFromElement(t *testing.T) {
	f := field.Mersenne61{}
	e := f.FromUint64(77)

	a := NewFromElement(e)
	b := NewFromElement(e)
	require.True(t, a.Element(f).Equal(b.Element(f)))

	// distinct elements give distinct streams
	c := NewFromElement(f.FromUint64(78))
	a2 := a.Element(f)
	c2 := c.Element(f)
	require.False(t, a2.Equal(c2))
}

func TestElements(t *testing.T) {
	g, err := New([]byte("batch"))
	require.NoError(t, err)
	f := field.Mersenne127{}
	els := g.Elements(f, 10)
	require.Len(t, els, 10)

	// same as drawing one at a time
	h, err := New([]byte("batch"))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.True(t, els[i].Equal(h.Element(f)))
	}
}

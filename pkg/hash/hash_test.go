package hash

import (
	"testing"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/stretchr/testify/require"
)

func TestSumStable(t *testing.T) {
	h := New("test")
	require.NoError(t, h.WriteAny([]byte("hello")))
	first := h.Sum()
	second := h.Sum()
	require.Equal(t, first, second)
	require.Len(t, first, DigestSize)
}

func TestDomainsSeparate(t *testing.T) {
	a := New("domain-a")
	b := New("domain-b")
	require.NotEqual(t, a.Sum(), b.Sum())
}

func TestWriteAnyTypes(t *testing.T) {
	f := field.Mersenne61{}
	h := New("test")
	require.NoError(t, h.WriteAny(
		[]byte{1, 2, 3},
		f.FromUint64(42),
		[]field.Element{f.FromUint64(1), f.FromUint64(2)},
		uint64(7),
		12,
	))
	require.Error(t, h.WriteAny(3.14))
}

func TestWritesChangeState(t *testing.T) {
	h := New("test")
	before := h.Sum()
	require.NoError(t, h.WriteAny([]byte("x")))
	require.NotEqual(t, before, h.Sum())
}

func TestClone(t *testing.T) {
	h := New("test")
	require.NoError(t, h.WriteAny([]byte("shared prefix")))
	c := h.Clone()

	require.NoError(t, h.WriteAny([]byte("left")))
	require.NoError(t, c.WriteAny([]byte("right")))
	require.NotEqual(t, h.Sum(), c.Sum())
}

func TestCommitDecommit(t *testing.T) {
	f := field.Mersenne61{}
	data := f.FromUint64(123)

	com, dec, err := New("test").Commit(1, data)
	require.NoError(t, err)
	require.NoError(t, com.Validate())
	require.NoError(t, dec.Validate())

	require.True(t, New("test").Decommit(com, dec, 1, data))

	// wrong data, wrong id, wrong domain
	require.False(t, New("test").Decommit(com, dec, 1, f.FromUint64(124)))
	require.False(t, New("test").Decommit(com, dec, 2, data))
	require.False(t, New("other").Decommit(com, dec, 1, data))
}

func TestCommitmentsHiding(t *testing.T) {
	// same data twice gives different commitments thanks to the nonce
	a, _, err := New("test").Commit([]byte("data"))
	require.NoError(t, err)
	b, _, err := New("test").Commit([]byte("data"))
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

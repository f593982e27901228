package sharing

import (
	"testing"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/stretchr/testify/require"
)

func manipulators(t *testing.T, f field.Field, n, d int) []*Manipulator {
	t.Helper()
	out := make([]*Manipulator, n)
	for i := 0; i < n; i++ {
		m, err := NewManipulator(f, i, n, d)
		require.NoError(t, err)
		out[i] = m
	}
	return out
}

func TestAddAndSubtract(t *testing.T) {
	f := field.Mersenne61{}
	n, d := 10, 3
	rep, err := NewReplicator(f, n, d)
	require.NoError(t, err)
	g := testPRG(t, "add-sub")

	x, y := f.FromUint64(10), f.FromUint64(20)
	sharesX := rep.Share(x, g)
	sharesY := rep.Share(y, g)
	mans := manipulators(t, f, n, d)

	sums := make([]Share, n)
	diffs := make([]Share, n)
	for i := 0; i < n; i++ {
		sums[i] = mans[i].Add(sharesX[i], sharesY[i])
		diffs[i] = mans[i].Subtract(sharesX[i], sharesY[i])
	}

	require.True(t, rep.Reconstruct(sums).Equal(x.Add(y)))
	require.True(t, rep.Reconstruct(diffs).Equal(x.Sub(y)))
}

func TestConstantOperations(t *testing.T) {
	f := field.Mersenne61{}
	n, d := 10, 3
	rep, err := NewReplicator(f, n, d)
	require.NoError(t, err)
	g := testPRG(t, "const-ops")

	x, c := f.FromUint64(10), f.FromUint64(20)
	sharesX := rep.Share(x, g)
	mans := manipulators(t, f, n, d)

	added := make([]Share, n)
	subbed := make([]Share, n)
	fromC := make([]Share, n)
	scaled := make([]Share, n)
	for i := 0; i < n; i++ {
		added[i] = mans[i].AddConstant(sharesX[i], c)
		subbed[i] = mans[i].SubtractConstant(sharesX[i], c)
		fromC[i] = mans[i].SubtractFromConstant(c, sharesX[i])
		scaled[i] = mans[i].MultiplyConstant(sharesX[i], c)
	}

	require.True(t, rep.Reconstruct(added).Equal(x.Add(c)))
	require.True(t, rep.Reconstruct(subbed).Equal(x.Sub(c)))
	require.True(t, rep.Reconstruct(fromC).Equal(c.Sub(x)))
	require.True(t, rep.Reconstruct(scaled).Equal(x.Mul(c)))
}

func TestMultiplyToDoubleDegree(t *testing.T) {
	f := field.Mersenne61{}
	for _, tc := range []struct{ n, d int }{{7, 2}, {10, 3}} {
		rep, err := NewReplicator(f, tc.n, tc.d)
		require.NoError(t, err)
		doubleRep, err := NewReplicator(f, tc.n, 2*tc.d)
		require.NoError(t, err)
		g := testPRG(t, "double-degree")

		x, y := f.FromUint64(100), f.FromUint64(200)
		sharesX := rep.Share(x, g)
		sharesY := rep.Share(y, g)
		mans := manipulators(t, f, tc.n, tc.d)

		products := make([]Share, tc.n)
		for i := 0; i < tc.n; i++ {
			products[i] = mans[i].MultiplyToDoubleDegree(sharesX[i], sharesY[i])
		}

		got, err := doubleRep.ErrorDetect(products)
		require.NoError(t, err)
		require.True(t, got.Equal(x.Mul(y)))
	}
}

func TestMultiplyToAdditive(t *testing.T) {
	f := field.Mersenne61{}
	for _, tc := range []struct{ n, d int }{{7, 2}, {10, 3}} {
		rep, err := NewReplicator(f, tc.n, tc.d)
		require.NoError(t, err)
		g := testPRG(t, "to-additive")

		x, y := f.FromUint64(123), f.FromUint64(456)
		sharesX := rep.Share(x, g)
		sharesY := rep.Share(y, g)
		mans := manipulators(t, f, tc.n, tc.d)

		// The additive contributions of the first 2d+1 parties carry the
		// whole product; parties beyond that contribute nothing.
		sum := f.NewElement()
		for i := 0; i < tc.n; i++ {
			contribution := mans[i].MultiplyToAdditive(sharesX[i], sharesY[i])
			if i >= 2*tc.d+1 {
				require.True(t, contribution.IsZero())
			}
			sum = sum.Add(contribution)
		}
		require.True(t, sum.Equal(x.Mul(y)))
	}
}

func TestMultTableShape(t *testing.T) {
	f := field.Mersenne61{}
	n, d := 7, 2
	mans := manipulators(t, f, n, d)

	for i, m := range mans {
		doubleIndexSet := m.DoubleReplicator().IndexSet(i)
		require.Len(t, m.RecTable(), len(doubleIndexSet))

		for _, e := range m.MultTable() {
			require.Less(t, e.SrcA, m.ShareSize())
			require.Less(t, e.SrcB, m.ShareSize())
			require.Less(t, e.DestC, len(doubleIndexSet))
			// the first party of an intersection is always a potential
			// additive contributor
			require.Less(t, e.FirstParty, 2*d+1)
		}

		for li, entry := range m.RecTable() {
			subset := m.DoubleReplicator().Combination(doubleIndexSet[li])
			if i == subset[0] {
				require.Equal(t, RecValue, entry.Kind)
			} else {
				require.Equal(t, RecDigest, entry.Kind)
			}
			// receivers are exactly the parties outside the subset
			require.Len(t, entry.Receivers, n-len(subset))
			for _, r := range entry.Receivers {
				require.False(t, contains(subset, r))
			}
		}
	}
}

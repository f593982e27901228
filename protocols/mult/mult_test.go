package mult

import (
	"testing"

	"github.com/anderspkd/ccs-DEN22/pkg/corr"
	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/anderspkd/ccs-DEN22/pkg/network"
	"github.com/anderspkd/ccs-DEN22/pkg/prg"
	"github.com/anderspkd/ccs-DEN22/pkg/sharing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func testPRG(t *testing.T, seed string) *prg.PRG {
	t.Helper()
	g, err := prg.New([]byte(seed))
	require.NoError(t, err)
	return g
}

// runMultSession multiplies the given pairs of secrets with the full
// protocol over the fake transport, returning each party's output shares
// and transcript.
func runMultSession(t *testing.T, f field.Field, n, d int,
	xs, ys []field.Element) ([][]sharing.Share, []*CheckData) {
	t.Helper()

	rep, err := sharing.NewReplicator(f, n, d)
	require.NoError(t, err)
	g := testPRG(t, "mult-session")
	sharesX := rep.ShareMany(xs, g)
	sharesY := rep.ShareMany(ys, g)
	correlators := corr.SeedLocal(rep, testPRG(t, "mult-corr"))
	router := network.NewFakeRouter(n)

	outputs := make([][]sharing.Share, n)
	transcripts := make([]*CheckData, n)
	var group errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		group.Go(func() error {
			man, err := sharing.NewManipulator(f, i, n, d)
			if err != nil {
				return err
			}
			cd := NewCheckData(d)
			transcripts[i] = cd

			m := New(router.Network(i, f, rep.ShareSize()), rep, man, correlators[i], cd, zerolog.Nop())
			if err := m.PrepareMany(sharesX[i], sharesY[i]); err != nil {
				return err
			}
			out, err := m.Run()
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	require.NoError(t, group.Wait())
	return outputs, transcripts
}

func TestSecureMultiplication(t *testing.T) {
	for _, f := range []field.Field{field.Mersenne61{}, field.Mersenne127{}} {
		t.Run(f.Name(), func(t *testing.T) {
			n, d := 7, 2
			x, y := f.FromUint64(100), f.FromUint64(200)

			outputs, transcripts := runMultSession(t, f, n, d,
				[]field.Element{x}, []field.Element{y})

			rep, err := sharing.NewReplicator(f, n, d)
			require.NoError(t, err)
			gathered := make([]sharing.Share, n)
			for i := 0; i < n; i++ {
				require.Len(t, outputs[i], 1)
				gathered[i] = outputs[i][0]
			}
			got, err := rep.ErrorDetect(gathered)
			require.NoError(t, err)
			require.True(t, got.Equal(x.Mul(y)))

			for i := 0; i < n; i++ {
				require.Equal(t, 1, transcripts[i].Counter)
				require.Len(t, transcripts[i].SharesSentToP1, 1)
				require.Len(t, transcripts[i].Msgs, 1)
			}
			// only the reconstructor records received shares
			require.Len(t, transcripts[0].SharesRecvByP1[1], 1)
			require.Empty(t, transcripts[1].SharesRecvByP1[1])
		})
	}
}

func TestMultiplicationBatch(t *testing.T) {
	f := field.Mersenne61{}
	n, d := 10, 3

	var xs, ys []field.Element
	for i := 0; i < 5; i++ {
		xs = append(xs, f.FromUint64(uint64(i+1)))
		ys = append(ys, f.FromUint64(uint64(10*(i+1))))
	}

	outputs, transcripts := runMultSession(t, f, n, d, xs, ys)

	rep, err := sharing.NewReplicator(f, n, d)
	require.NoError(t, err)
	for j := range xs {
		gathered := make([]sharing.Share, n)
		for i := 0; i < n; i++ {
			gathered[i] = outputs[i][j]
		}
		got, err := rep.ErrorDetect(gathered)
		require.NoError(t, err)
		require.True(t, got.Equal(xs[j].Mul(ys[j])), "mult %d", j)
	}
	for i := 0; i < n; i++ {
		require.Equal(t, len(xs), transcripts[i].Counter)
	}
}

func TestRunWithoutPrepare(t *testing.T) {
	f := field.Mersenne61{}
	n, d := 4, 1
	rep, err := sharing.NewReplicator(f, n, d)
	require.NoError(t, err)
	man, err := sharing.NewManipulator(f, 0, n, d)
	require.NoError(t, err)
	router := network.NewFakeRouter(n)

	m := New(router.Network(0, f, rep.ShareSize()), rep, man,
		corr.NewCorrelator(0, rep), NewCheckData(d), zerolog.Nop())
	_, err = m.Run()
	require.ErrorIs(t, err, ErrNothingPrepared)
}

func TestPrepareManyMismatch(t *testing.T) {
	f := field.Mersenne61{}
	n, d := 4, 1
	rep, err := sharing.NewReplicator(f, n, d)
	require.NoError(t, err)
	man, err := sharing.NewManipulator(f, 0, n, d)
	require.NoError(t, err)
	router := network.NewFakeRouter(n)

	m := New(router.Network(0, f, rep.ShareSize()), rep, man,
		corr.NewCorrelator(0, rep), NewCheckData(d), zerolog.Nop())
	share := make(sharing.Share, rep.ShareSize())
	for i := range share {
		share[i] = f.NewElement()
	}
	err = m.PrepareMany([]sharing.Share{share}, nil)
	require.Error(t, err)
}

package network

import (
	"fmt"
	"testing"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/anderspkd/ccs-DEN22/pkg/prg"
	"github.com/anderspkd/ccs-DEN22/pkg/sharing"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestFakeTypedRoundTrip(t *testing.T) {
	f := field.Mersenne61{}
	rep, err := sharing.NewReplicator(f, 4, 1)
	require.NoError(t, err)
	router := NewFakeRouter(4)

	a := router.Network(0, f, rep.ShareSize())
	b := router.Network(1, f, rep.ShareSize())

	els := []field.Element{f.FromUint64(1), f.FromUint64(2), f.FromUint64(3)}
	require.NoError(t, a.Send(1, els))
	got, err := b.Recv(0, 3)
	require.NoError(t, err)
	for i := range els {
		require.True(t, els[i].Equal(got[i]))
	}

	g, err := prg.New([]byte("net"))
	require.NoError(t, err)
	shares := rep.Share(f.FromUint64(42), g)
	require.NoError(t, a.SendShares(1, shares[:2]))
	gotShares, err := b.RecvShares(0, 2)
	require.NoError(t, err)
	for i := range gotShares {
		for k := range gotShares[i] {
			require.True(t, shares[i][k].Equal(gotShares[i][k]))
		}
	}

	require.NoError(t, a.SendBytes(1, []byte{9, 8, 7}))
	raw, err := b.RecvBytes(0, 3)
	require.NoError(t, err)
	require.Equal(t, []byte{9, 8, 7}, raw)
}

func TestFakeSelfSend(t *testing.T) {
	f := field.Mersenne61{}
	router := NewFakeRouter(4)
	nw := router.Network(2, f, 1)

	els := []field.Element{f.FromUint64(5)}
	require.NoError(t, nw.Send(2, els))
	got, err := nw.Recv(2, 1)
	require.NoError(t, err)
	require.True(t, got[0].Equal(els[0]))
}

func TestFakePreservesPerPeerOrder(t *testing.T) {
	f := field.Mersenne61{}
	router := NewFakeRouter(3)
	a := router.Network(0, f, 1)
	b := router.Network(1, f, 1)

	for i := 0; i < 10; i++ {
		require.NoError(t, a.Send(1, []field.Element{f.FromUint64(uint64(i))}))
	}
	for i := 0; i < 10; i++ {
		got, err := b.Recv(0, 1)
		require.NoError(t, err)
		require.True(t, got[0].Equal(f.FromUint64(uint64(i))))
	}
}

func TestStats(t *testing.T) {
	f := field.Mersenne61{}
	router := NewFakeRouter(2)
	a := router.Network(0, f, 1)
	b := router.Network(1, f, 1)

	require.NoError(t, a.Send(1, []field.Element{f.FromUint64(1), f.FromUint64(2)}))
	_, err := b.Recv(0, 2)
	require.NoError(t, err)

	require.Equal(t, uint64(16), a.Stats().Sent[1])
	require.Equal(t, uint64(16), b.Stats().Recv[0])
	require.Contains(t, a.Stats().String(), "sent to 1: 16 bytes")
}

func TestTCPConfigValidation(t *testing.T) {
	f := field.Mersenne61{}
	_, err := DialTCP(TCPConfig{Party: 5, Size: 4, Field: f, ShareSize: 1})
	require.Error(t, err)
	_, err = DialTCP(TCPConfig{Party: 0, Size: 1, Field: f, ShareSize: 1})
	require.Error(t, err)
	_, err = DialTCP(TCPConfig{Party: 0, Size: 4, BasePort: 80, Field: f, ShareSize: 1})
	require.Error(t, err)
	_, err = DialTCP(TCPConfig{Party: 0, Size: 4, Hosts: []string{"a"}, Field: f, ShareSize: 1})
	require.Error(t, err)
}

func TestTCPMesh(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping TCP mesh test in short mode")
	}

	f := field.Mersenne61{}
	const n = 4
	const basePort = 15600

	nets := make([]Network, n)
	var dial errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		dial.Go(func() error {
			nw, err := DialTCP(TCPConfig{
				Party:     i,
				Size:      n,
				BasePort:  basePort,
				Field:     f,
				ShareSize: 1,
			})
			if err != nil {
				return err
			}
			nets[i] = nw
			return nil
		})
	}
	require.NoError(t, dial.Wait())
	defer func() {
		for _, nw := range nets {
			require.NoError(t, nw.Close())
		}
	}()

	// Everyone sends its id to everyone (including itself), then checks
	// what arrived.
	var group errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		group.Go(func() error {
			for peer := 0; peer < n; peer++ {
				if err := nets[i].Send(peer, []field.Element{f.FromUint64(uint64(i))}); err != nil {
					return err
				}
			}
			for peer := 0; peer < n; peer++ {
				got, err := nets[i].Recv(peer, 1)
				if err != nil {
					return err
				}
				if !got[0].Equal(f.FromUint64(uint64(peer))) {
					return fmt.Errorf("party %d: unexpected value from %d", i, peer)
				}
			}
			return nil
		})
	}
	require.NoError(t, group.Wait())
}

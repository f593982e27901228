// Package network carries all cross-party traffic for the protocol
// suite. The Network interface exposes typed send/receive over opaque
// per-peer byte channels; the two transports are TCP (one socket per
// directed peer pair) and an in-memory fake used by tests.
package network

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/anderspkd/ccs-DEN22/pkg/sharing"
	"github.com/rs/zerolog"
)

var (
	// ErrClosed is returned when using a closed channel.
	ErrClosed = errors.New("network: channel closed")
	// ErrBroken is returned once a peer channel has entered its error
	// state; the session should abort.
	ErrBroken = errors.New("network: channel broken")
)

// Network is the typed façade over the per-peer byte channels. All
// element vectors travel as concatenated fixed-width little-endian
// encodings; replicated shares as the slot elements in index-set order.
type Network interface {
	// Party returns this party's id.
	Party() int
	// Size returns the number of parties.
	Size() int

	Send(to int, els []field.Element) error
	SendShares(to int, shares []sharing.Share) error
	SendBytes(to int, data []byte) error

	// Recv blocks until exactly n elements have arrived from the peer.
	Recv(from, n int) ([]field.Element, error)
	RecvShares(from, n int) ([]sharing.Share, error)
	RecvBytes(from, n int) ([]byte, error)

	// Stats returns a snapshot of per-peer traffic counters.
	Stats() Stats

	Close() error
}

// Stats records bytes exchanged with each peer.
type Stats struct {
	Sent []uint64
	Recv []uint64
}

// String renders the per-peer summary.
func (s Stats) String() string {
	var b strings.Builder
	for i := range s.Sent {
		switch {
		case s.Sent[i] > 0 && s.Recv[i] > 0:
			fmt.Fprintf(&b, "sent/received to/from %d: %d/%d bytes\n", i, s.Sent[i], s.Recv[i])
		case s.Sent[i] > 0:
			fmt.Fprintf(&b, "sent to %d: %d bytes\n", i, s.Sent[i])
		case s.Recv[i] > 0:
			fmt.Fprintf(&b, "received from %d: %d bytes\n", i, s.Recv[i])
		}
	}
	return b.String()
}

// channel is a reliable ordered byte stream to one peer.
type channel interface {
	send(b []byte) error
	recv(n int) ([]byte, error)
	close() error
}

// network implements the typed façade on top of raw channels; both
// transports embed it.
type network struct {
	id        int
	n         int
	f         field.Field
	shareSize int
	chans     []channel
	sent      []uint64
	recvd     []uint64
	log       zerolog.Logger
}

func newNetwork(id, n int, f field.Field, shareSize int, log zerolog.Logger) network {
	return network{
		id:        id,
		n:         n,
		f:         f,
		shareSize: shareSize,
		chans:     make([]channel, n),
		sent:      make([]uint64, n),
		recvd:     make([]uint64, n),
		log:       log.With().Int("party", id).Logger(),
	}
}

func (nw *network) Party() int { return nw.id }
func (nw *network) Size() int  { return nw.n }

func (nw *network) Send(to int, els []field.Element) error {
	return nw.SendBytes(to, field.VectorToBytes(els))
}

func (nw *network) SendShares(to int, shares []sharing.Share) error {
	for _, s := range shares {
		if err := nw.Send(to, s); err != nil {
			return err
		}
	}
	return nil
}

func (nw *network) SendBytes(to int, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := nw.chans[to].send(data); err != nil {
		return fmt.Errorf("network: send to %d: %w", to, err)
	}
	nw.sent[to] += uint64(len(data))
	return nil
}

func (nw *network) Recv(from, n int) ([]field.Element, error) {
	buf, err := nw.RecvBytes(from, n*nw.f.ByteSize())
	if err != nil {
		return nil, err
	}
	return field.VectorFromBytes(nw.f, buf, n)
}

func (nw *network) RecvShares(from, n int) ([]sharing.Share, error) {
	out := make([]sharing.Share, 0, n)
	for i := 0; i < n; i++ {
		els, err := nw.Recv(from, nw.shareSize)
		if err != nil {
			return nil, err
		}
		out = append(out, sharing.Share(els))
	}
	return out, nil
}

func (nw *network) RecvBytes(from, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf, err := nw.chans[from].recv(n)
	if err != nil {
		return nil, fmt.Errorf("network: recv from %d: %w", from, err)
	}
	nw.recvd[from] += uint64(len(buf))
	return buf, nil
}

func (nw *network) Stats() Stats {
	out := Stats{Sent: make([]uint64, nw.n), Recv: make([]uint64, nw.n)}
	copy(out.Sent, nw.sent)
	copy(out.Recv, nw.recvd)
	return out
}

func (nw *network) Close() error {
	var first error
	for _, c := range nw.chans {
		if c == nil {
			continue
		}
		if err := c.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

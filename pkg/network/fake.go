package network

import (
	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/rs/zerolog"
)

// fakeQueueDepth bounds how many in-flight messages a directed pair can
// hold; protocol rounds never come close.
const fakeQueueDepth = 1 << 12

// FakeRouter is the in-memory transport shared by all parties of a test
// session. Each directed pair gets its own ordered queue, so the
// semantics match one TCP socket per pair.
type FakeRouter struct {
	n      int
	queues [][]chan []byte
}

// NewFakeRouter creates the queues for an n-party session.
func NewFakeRouter(n int) *FakeRouter {
	r := &FakeRouter{n: n, queues: make([][]chan []byte, n)}
	for from := 0; from < n; from++ {
		r.queues[from] = make([]chan []byte, n)
		for to := 0; to < n; to++ {
			r.queues[from][to] = make(chan []byte, fakeQueueDepth)
		}
	}
	return r
}

// Network returns party id's façade over the router. shareSize is the
// element count of one replicated share (from the session's replicator).
func (r *FakeRouter) Network(id int, f field.Field, shareSize int) Network {
	nw := &fakeNetwork{network: newNetwork(id, r.n, f, shareSize, zerolog.Nop())}
	for peer := 0; peer < r.n; peer++ {
		nw.chans[peer] = &fakeChannel{
			in:  r.queues[peer][id],
			out: r.queues[id][peer],
		}
	}
	return nw
}

type fakeNetwork struct {
	network
}

// fakeChannel presents the pair queues as a byte stream.
type fakeChannel struct {
	in      chan []byte
	out     chan []byte
	pending []byte
}

func (c *fakeChannel) send(b []byte) error {
	msg := make([]byte, len(b))
	copy(msg, b)
	select {
	case c.out <- msg:
		return nil
	default:
		return ErrBroken
	}
}

func (c *fakeChannel) recv(n int) ([]byte, error) {
	for len(c.pending) < n {
		msg, ok := <-c.in
		if !ok {
			return nil, ErrClosed
		}
		c.pending = append(c.pending, msg...)
	}
	out := c.pending[:n:n]
	c.pending = c.pending[n:]
	return out, nil
}

func (c *fakeChannel) close() error { return nil }

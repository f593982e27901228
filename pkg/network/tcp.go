package network

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
)

const (
	// DefaultBasePort anchors the per-pair port layout.
	DefaultBasePort = 9876
	// connectRetry is the delay between client connection attempts while
	// the server side is not yet accepting.
	connectRetry = 300 * time.Millisecond
	// sendQueueDepth bounds the per-peer outgoing queue.
	sendQueueDepth = 1 << 10
)

// Connector states. A connector that has entered stateError never
// recovers; the session is expected to abort.
const (
	stateIdle int32 = iota
	stateActive
	stateClosed
	stateError
)

// hello is the first frame on every freshly dialed socket, identifying
// the dialer to the accepting side.
type hello struct {
	From int `cbor:"from"`
	To   int `cbor:"to"`
}

// TCPConfig describes one party's view of a TCP session.
type TCPConfig struct {
	// Party is this party's id, Size the number of parties.
	Party, Size int
	// BasePort anchors the port layout; 0 selects DefaultBasePort. The
	// socket for the directed pair (server s, client c) lives on
	// BasePort + s*Size + c, where the server is the higher-id peer.
	BasePort int
	// Hosts lists one host per party; nil means all parties are local.
	Hosts []string
	// Field and ShareSize fix the wire widths of the typed façade.
	Field     field.Field
	ShareSize int
	Logger    zerolog.Logger
}

func (cfg *TCPConfig) validate() error {
	if cfg.Size < 2 {
		return fmt.Errorf("network: need at least 2 parties, got %d", cfg.Size)
	}
	if cfg.Party < 0 || cfg.Party >= cfg.Size {
		return fmt.Errorf("network: party id %d out of range [0,%d)", cfg.Party, cfg.Size)
	}
	if cfg.BasePort == 0 {
		cfg.BasePort = DefaultBasePort
	}
	if cfg.BasePort < 1024 || cfg.BasePort+cfg.Size*cfg.Size > 1<<16 {
		return fmt.Errorf("network: invalid base port %d", cfg.BasePort)
	}
	if cfg.Hosts == nil {
		cfg.Hosts = make([]string, cfg.Size)
		for i := range cfg.Hosts {
			cfg.Hosts[i] = "127.0.0.1"
		}
	}
	if len(cfg.Hosts) != cfg.Size {
		return fmt.Errorf("network: got %d hosts for %d parties", len(cfg.Hosts), cfg.Size)
	}
	return nil
}

type tcpNetwork struct {
	network
}

// DialTCP establishes the full mesh for one party and blocks until every
// peer connection is up. For each pair the higher-id peer listens and the
// lower-id peer dials, retrying until the listener appears.
func DialTCP(cfg TCPConfig) (Network, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	nw := &tcpNetwork{network: newNetwork(cfg.Party, cfg.Size, cfg.Field, cfg.ShareSize, cfg.Logger)}

	loop := make(chan []byte, fakeQueueDepth)
	nw.chans[cfg.Party] = &fakeChannel{in: loop, out: loop}

	// Listeners first, so lower-id dialers spend as little time as
	// possible in their retry loops.
	listeners := make([]net.Listener, cfg.Size)
	for peer := 0; peer < cfg.Party; peer++ {
		port := cfg.BasePort + cfg.Party*cfg.Size + peer
		l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			nw.Close()
			return nil, fmt.Errorf("network: listen for peer %d on port %d: %w", peer, port, err)
		}
		listeners[peer] = l
	}

	var (
		mtx sync.Mutex
		wg  sync.WaitGroup
		res error
	)
	fail := func(err error) {
		mtx.Lock()
		if res == nil {
			res = err
		}
		mtx.Unlock()
	}
	for peer := 0; peer < cfg.Size; peer++ {
		if peer == cfg.Party {
			continue
		}
		peer := peer
		wg.Add(1)
		go func() {
			defer wg.Done()
			var (
				conn net.Conn
				err  error
			)
			if peer < cfg.Party {
				conn, err = acceptPeer(listeners[peer], cfg.Party, peer)
			} else {
				addr := fmt.Sprintf("%s:%d", cfg.Hosts[peer], cfg.BasePort+peer*cfg.Size+cfg.Party)
				conn, err = dialPeer(addr, cfg.Party, peer)
			}
			if err != nil {
				fail(fmt.Errorf("network: connecting to peer %d: %w", peer, err))
				return
			}
			mtx.Lock()
			nw.chans[peer] = newTCPChannel(conn, peer, nw.log)
			mtx.Unlock()
		}()
	}
	wg.Wait()
	for _, l := range listeners {
		if l != nil {
			_ = l.Close()
		}
	}
	if res != nil {
		nw.Close()
		return nil, res
	}
	nw.log.Debug().Msg("all peers connected")
	return nw, nil
}

func acceptPeer(l net.Listener, self, peer int) (net.Conn, error) {
	conn, err := l.Accept()
	if err != nil {
		return nil, err
	}
	h, err := readHello(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if h.From != peer || h.To != self {
		conn.Close()
		return nil, fmt.Errorf("unexpected hello from=%d to=%d", h.From, h.To)
	}
	return conn, nil
}

func dialPeer(addr string, self, peer int) (net.Conn, error) {
	for {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			var opErr *net.OpError
			if errors.As(err, &opErr) {
				time.Sleep(connectRetry)
				continue
			}
			return nil, err
		}
		if err := writeHello(conn, hello{From: self, To: peer}); err != nil {
			conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

func writeHello(conn net.Conn, h hello) error {
	payload, err := cbor.Marshal(h)
	if err != nil {
		return err
	}
	frame := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[4:], payload)
	_, err = conn.Write(frame)
	return err
}

func readHello(conn net.Conn) (hello, error) {
	var h hello
	var lp [4]byte
	if _, err := io.ReadFull(conn, lp[:]); err != nil {
		return h, err
	}
	size := binary.LittleEndian.Uint32(lp[:])
	if size > 1<<10 {
		return h, fmt.Errorf("oversized hello frame: %d bytes", size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return h, err
	}
	err := cbor.Unmarshal(payload, &h)
	return h, err
}

// tcpChannel owns one socket. Sends are queued and drained by a
// dedicated goroutine so protocol logic never blocks on a slow peer;
// receives block on the socket directly.
type tcpChannel struct {
	peer  int
	conn  net.Conn
	rd    *bufio.Reader
	sendQ chan []byte
	state atomic.Int32
	done  sync.WaitGroup
	log   zerolog.Logger
}

func newTCPChannel(conn net.Conn, peer int, log zerolog.Logger) *tcpChannel {
	c := &tcpChannel{
		peer:  peer,
		conn:  conn,
		rd:    bufio.NewReader(conn),
		sendQ: make(chan []byte, sendQueueDepth),
		log:   log.With().Int("peer", peer).Logger(),
	}
	c.state.Store(stateActive)
	c.done.Add(1)
	go c.sender()
	return c
}

func (c *tcpChannel) sender() {
	defer c.done.Done()
	for b := range c.sendQ {
		if c.state.Load() != stateActive {
			continue
		}
		if _, err := c.conn.Write(b); err != nil {
			c.log.Error().Err(err).Msg("send failed")
			c.state.Store(stateError)
		}
	}
}

func (c *tcpChannel) send(b []byte) error {
	switch c.state.Load() {
	case stateActive:
	case stateError:
		return ErrBroken
	default:
		return ErrClosed
	}
	msg := make([]byte, len(b))
	copy(msg, b)
	c.sendQ <- msg
	return nil
}

func (c *tcpChannel) recv(n int) ([]byte, error) {
	switch c.state.Load() {
	case stateActive:
	case stateError:
		return nil, ErrBroken
	default:
		return nil, ErrClosed
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.rd, buf); err != nil {
		c.state.Store(stateError)
		return nil, fmt.Errorf("%w: %v", ErrBroken, err)
	}
	return buf, nil
}

func (c *tcpChannel) close() error {
	if !c.state.CompareAndSwap(stateActive, stateClosed) {
		return nil
	}
	close(c.sendQ)
	c.done.Wait()
	return c.conn.Close()
}

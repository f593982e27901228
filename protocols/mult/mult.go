// Package mult implements the one-round multiplication protocol. Parties
// holding threshold-t shares of x and y locally reduce the product to
// additive form masked by fresh correlated randomness, a designated
// reconstructor (party 0) sums and redistributes, and everyone locally
// lifts the result back to a threshold-t share. Every observable value is
// appended to the check transcript for the end-of-session batch
// verification.
package mult

import (
	"errors"
	"fmt"

	"github.com/anderspkd/ccs-DEN22/pkg/corr"
	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/anderspkd/ccs-DEN22/pkg/network"
	"github.com/anderspkd/ccs-DEN22/pkg/sharing"
	"github.com/anderspkd/ccs-DEN22/pkg/timing"
	"github.com/rs/zerolog"
)

// ErrNothingPrepared is returned by Run when no multiplication was
// prepared.
var ErrNothingPrepared = errors.New("mult: Run called with nothing prepared")

// CheckData is the append-only transcript of every multiplication in a
// session, consumed by the check protocol. Entries are never mutated
// after append; each party owns exactly one instance.
type CheckData struct {
	// SharesSentToP1[mu] is this party's masked additive share for
	// multiplication mu; parties in {0..2t} send it to the reconstructor,
	// the others record it without sending.
	SharesSentToP1 []field.Element
	// SharesRecvByP1[i][mu] mirrors the above from the reconstructor's
	// side; populated only at party 0.
	SharesRecvByP1 [][]field.Element
	// ValuesRecvFromP1[mu] is the reconstruction received back.
	ValuesRecvFromP1 []field.Element
	// Msgs[mu][u] is this party's degree-2t share of the message slot
	// belonging to additive contributor u.
	Msgs [][]sharing.Share
	// RandAdds[mu][u] is this party's threshold-t share of contributor
	// u's additive mask; the check protocol reconstructs the compressed
	// masks from these.
	RandAdds [][]sharing.Share
	// Counter is the number of multiplications appended.
	Counter int
}

// NewCheckData creates an empty transcript for threshold t.
func NewCheckData(t int) *CheckData {
	return &CheckData{SharesRecvByP1: make([][]field.Element, 2*t+1)}
}

// Mult is one party's multiplication protocol instance. A batch is
// assembled with Prepare and executed with Run; the instance can then be
// reused for the next batch.
type Mult struct {
	net network.Network
	rep *sharing.Replicator
	man *sharing.Manipulator
	cr  *corr.Correlator
	cd  *CheckData

	id, n, t int
	count    int

	randomShares []corr.RandomShare
	sharesToSend []field.Element
	sharesRecv   [][]field.Element
	valuesSent   []field.Element
	valuesRecv   []field.Element

	log     zerolog.Logger
	metrics *timing.Metrics
}

// New creates a multiplication protocol instance. cd is borrowed: the
// caller passes the same instance to the check protocol afterwards.
func New(net network.Network, rep *sharing.Replicator, man *sharing.Manipulator,
	cr *corr.Correlator, cd *CheckData, log zerolog.Logger) *Mult {
	return &Mult{
		net:        net,
		rep:        rep,
		man:        man,
		cr:         cr,
		cd:         cd,
		id:         net.Party(),
		n:          net.Size(),
		t:          rep.Threshold(),
		sharesRecv: make([][]field.Element, 2*rep.Threshold()+1),
		log:        log.With().Int("party", net.Party()).Logger(),
		metrics:    timing.NewMetrics(),
	}
}

// addAndMsgs is the local reduction of one product: this party's masked
// additive contribution plus its degree-2t message shares per
// contributor.
type addAndMsgs struct {
	add  field.Element
	msgs []sharing.Share
}

func (m *Mult) multiplyToAddAndMsgs(x, y sharing.Share, rs corr.RandomShare) addAndMsgs {
	f := m.rep.Field()
	doubleSize := m.man.DoubleReplicator().ShareSize()

	out := addAndMsgs{add: f.NewElement(), msgs: make([]sharing.Share, 2*m.t+1)}
	for u := range out.msgs {
		s := make(sharing.Share, doubleSize)
		for i := range s {
			s[i] = f.NewElement()
		}
		out.msgs[u] = s
	}

	for _, e := range m.man.MultTable() {
		prod := x[e.SrcA].Mul(y[e.SrcB])
		out.msgs[e.FirstParty][e.DestC] = out.msgs[e.FirstParty][e.DestC].Add(prod)
		if m.id == e.FirstParty {
			out.add = out.add.Add(prod)
		}
	}

	out.add = out.add.Sub(rs.Add)
	return out
}

// Prepare queues one multiplication of the shared values x and y. A fresh
// random share is consumed and the local reduction appended to the
// transcript.
func (m *Mult) Prepare(x, y sharing.Share) {
	rs := m.cr.GenRandomShare()
	m.randomShares = append(m.randomShares, rs)

	out := m.multiplyToAddAndMsgs(x, y, rs)
	m.sharesToSend = append(m.sharesToSend, out.add)

	m.cd.SharesSentToP1 = append(m.cd.SharesSentToP1, out.add)
	m.cd.Msgs = append(m.cd.Msgs, out.msgs)
	m.cd.RandAdds = append(m.cd.RandAdds, rs.RepAdds)

	m.count++
}

// PrepareMany queues a batch of multiplications pairwise.
func (m *Mult) PrepareMany(xs, ys []sharing.Share) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("mult: mismatched batch sizes %d and %d", len(xs), len(ys))
	}
	defer timing.Scope(m.log, m.metrics, "mult.prepare")()
	for i := range xs {
		m.Prepare(xs[i], ys[i])
	}
	return nil
}

// Run executes the prepared batch and returns the threshold-t shares of
// the products, in Prepare order.
func (m *Mult) Run() ([]sharing.Share, error) {
	if m.count == 0 {
		return nil, ErrNothingPrepared
	}
	m.cd.Counter += m.count

	if err := m.sendStep(); err != nil {
		return nil, err
	}
	if m.id == 0 {
		if err := m.reconstructionStep(); err != nil {
			return nil, err
		}
	}
	out, err := m.outputStep()
	if err != nil {
		return nil, err
	}

	m.count = 0
	m.randomShares = nil
	m.sharesToSend = nil
	m.valuesSent = nil
	m.valuesRecv = nil
	return out, nil
}

// sendStep: every party in U = {0..2t} sends its masked additive shares
// to the reconstructor, who appends them to its transcript.
func (m *Mult) sendStep() error {
	defer timing.Scope(m.log, m.metrics, "mult.send")()

	if m.id < 2*m.t+1 {
		if err := m.net.Send(0, m.sharesToSend); err != nil {
			return fmt.Errorf("mult: sending shares to reconstructor: %w", err)
		}
	}
	if m.id == 0 {
		for i := 0; i < 2*m.t+1; i++ {
			recv, err := m.net.Recv(i, m.count)
			if err != nil {
				return fmt.Errorf("mult: receiving shares from %d: %w", i, err)
			}
			m.sharesRecv[i] = recv
			m.cd.SharesRecvByP1[i] = append(m.cd.SharesRecvByP1[i], recv...)
		}
	}
	return nil
}

// reconstructionStep: the reconstructor sums the masked additive shares
// of each multiplication and sends the openings to every party in
// T = {0..n-t-1}.
func (m *Mult) reconstructionStep() error {
	defer timing.Scope(m.log, m.metrics, "mult.reconstruct")()

	f := m.rep.Field()
	m.valuesSent = make([]field.Element, m.count)
	for mu := 0; mu < m.count; mu++ {
		e := f.NewElement()
		for i := 0; i < 2*m.t+1; i++ {
			e = e.Add(m.sharesRecv[i][mu])
		}
		m.valuesSent[mu] = e
	}
	for party := 0; party < m.n-m.t; party++ {
		if err := m.net.Send(party, m.valuesSent); err != nil {
			return fmt.Errorf("mult: distributing reconstructions to %d: %w", party, err)
		}
	}
	return nil
}

// outputStep: parties in T receive the openings; everyone folds the
// opening into its share of the random mask. Parties outside T act as if
// they received zero, which is correct because they do not hold the
// constant slot.
func (m *Mult) outputStep() ([]sharing.Share, error) {
	defer timing.Scope(m.log, m.metrics, "mult.output")()

	if m.id < m.n-m.t {
		recv, err := m.net.Recv(0, m.count)
		if err != nil {
			return nil, fmt.Errorf("mult: receiving reconstructions: %w", err)
		}
		m.valuesRecv = recv
		m.cd.ValuesRecvFromP1 = append(m.cd.ValuesRecvFromP1, recv...)
	} else {
		f := m.rep.Field()
		m.valuesRecv = make([]field.Element, m.count)
		for i := range m.valuesRecv {
			m.valuesRecv[i] = f.NewElement()
		}
	}

	out := make([]sharing.Share, m.count)
	for mu := 0; mu < m.count; mu++ {
		out[mu] = m.man.AddConstant(m.randomShares[mu].Rep, m.valuesRecv[mu])
	}
	return out, nil
}

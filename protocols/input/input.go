package input

import (
	"fmt"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/anderspkd/ccs-DEN22/pkg/network"
	"github.com/anderspkd/ccs-DEN22/pkg/sharing"
	"github.com/anderspkd/ccs-DEN22/pkg/timing"
	"github.com/rs/zerolog"
)

// Input injects private values into the computation. Callers first
// declare what they will send (Prepare) and what they expect from whom
// (PrepareToReceive), then Run performs the single broadcast round.
type Input struct {
	net  network.Network
	man  *sharing.Manipulator
	corr *MaskCorrelator
	id   int
	n    int

	toReceive [][]sharing.Share
	toSend    []field.Element

	log     zerolog.Logger
	metrics *timing.Metrics
}

// New creates an input protocol instance for one party.
func New(net network.Network, man *sharing.Manipulator, corr *MaskCorrelator, log zerolog.Logger) *Input {
	return &Input{
		net:       net,
		man:       man,
		corr:      corr,
		id:        net.Party(),
		n:         net.Size(),
		toReceive: make([][]sharing.Share, net.Size()),
		log:       log.With().Int("party", net.Party()).Logger(),
		metrics:   timing.NewMetrics(),
	}
}

// Prepare declares that this party inputs secret: the next own mask is
// consumed and the masked value queued for broadcast.
func (in *Input) Prepare(secret field.Element) {
	mask := in.corr.Mask()
	in.toSend = append(in.toSend, secret.Sub(mask))
	in.PrepareToReceive(in.id)
}

// PrepareMany is Prepare over a batch.
func (in *Input) PrepareMany(secrets []field.Element) {
	for _, s := range secrets {
		in.Prepare(s)
	}
}

// PrepareToReceive declares that party id will input one value; the
// matching mask share is drawn now so stream positions stay aligned.
func (in *Input) PrepareToReceive(id int) {
	in.toReceive[id] = append(in.toReceive[id], in.corr.MaskShare(id))
}

// PrepareToReceiveN declares n expected inputs from party id.
func (in *Input) PrepareToReceiveN(id, n int) {
	for i := 0; i < n; i++ {
		in.PrepareToReceive(id)
	}
}

// Run broadcasts this party's masked secrets and converts every expected
// broadcast into a threshold-t share by adding the masked constant onto
// the mask share. out[i] holds the shares of party i's inputs.
func (in *Input) Run() ([][]sharing.Share, error) {
	stop := timing.Scope(in.log, in.metrics, "input.send")
	if len(in.toSend) > 0 {
		for i := 0; i < in.n; i++ {
			if err := in.net.Send(i, in.toSend); err != nil {
				return nil, fmt.Errorf("input: broadcasting masked secrets: %w", err)
			}
		}
	}
	stop()

	defer timing.Scope(in.log, in.metrics, "input.recv")()
	out := make([][]sharing.Share, in.n)
	for i := 0; i < in.n; i++ {
		maskShares := in.toReceive[i]
		masked, err := in.net.Recv(i, len(maskShares))
		if err != nil {
			return nil, fmt.Errorf("input: receiving masked secrets from %d: %w", i, err)
		}
		for j := range masked {
			out[i] = append(out[i], in.man.AddConstant(maskShares[j], masked[j]))
		}
	}
	return out, nil
}

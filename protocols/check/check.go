// Package check implements the end-of-session batch verification. The
// transcript of every multiplication is compressed into a single random
// linear combination, the compressed message shares are reconstructed
// with value/digest cross-checking, and the compressed masks are opened
// from their threshold-t sharings so every party can confirm that what
// the reconstructor claims to have received is what the contributors
// actually computed. Any mismatch aborts the session.
package check

import (
	"errors"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/anderspkd/ccs-DEN22/pkg/network"
	"github.com/anderspkd/ccs-DEN22/pkg/sharing"
	"github.com/anderspkd/ccs-DEN22/pkg/timing"
	"github.com/anderspkd/ccs-DEN22/protocols/mult"
	"github.com/rs/zerolog"
)

// ErrVerificationFailed is returned whenever the compressed transcript
// does not verify; honest parties abort the session on it.
var ErrVerificationFailed = errors.New("check: transcript verification failed")

// ErrNotReady is returned when a step runs before its prerequisites.
var ErrNotReady = errors.New("check: step run out of order")

// Check is one party's batch verification instance over a borrowed
// multiplication transcript.
type Check struct {
	net network.Network
	rep *sharing.Replicator
	man *sharing.Manipulator
	cd  *mult.CheckData

	id, n, t int
	count    int

	coeffs []field.Element

	// Linear compression state. A is the compressed vector of shares
	// this party sent to the reconstructor, E the compressed openings it
	// received back, and B (reconstructor only) the compressed vector of
	// shares received from each contributor.
	a field.Element
	e field.Element
	b []field.Element

	// msgs[u] is the compressed degree-2t message share belonging to
	// contributor u; maskAdds[u] the compressed threshold-t share of
	// contributor u's masks.
	msgs     []sharing.Share
	maskAdds []sharing.Share

	// msgTotals[u] is the fully reconstructed compressed message of
	// contributor u, available after ReconstructMsgs.
	msgTotals []field.Element

	log     zerolog.Logger
	metrics *timing.Metrics
}

// New creates the check protocol for the multiplications recorded in cd.
func New(net network.Network, rep *sharing.Replicator, man *sharing.Manipulator,
	cd *mult.CheckData, log zerolog.Logger) *Check {
	return &Check{
		net:     net,
		rep:     rep,
		man:     man,
		cd:      cd,
		id:      net.Party(),
		n:       net.Size(),
		t:       rep.Threshold(),
		count:   cd.Counter,
		log:     log.With().Int("party", net.Party()).Logger(),
		metrics: timing.NewMetrics(),
	}
}

// Run executes the full verification: coin tossing, compression,
// reconstruction and transcript agreement.
func (c *Check) Run() error {
	seed, err := c.CoinToss()
	if err != nil {
		return err
	}
	if err := c.ComputeRandomCoefficients(seed); err != nil {
		return err
	}
	c.PrepareLinearCombinations()
	c.PrepareMsgs()
	if err := c.ReconstructMsgs(); err != nil {
		return err
	}
	return c.AgreeOnTranscript()
}

// coinReveal opens a coin-tossing commitment.
type coinReveal struct {
	Contribution []byte `cbor:"contribution"`
	Decommitment []byte `cbor:"decommitment"`
}

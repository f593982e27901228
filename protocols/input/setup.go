// Package input implements secret injection: a one-time mask dealing
// round, after which any party can turn a private value into a
// threshold-t sharing by broadcasting a single masked element.
package input

import (
	"fmt"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/anderspkd/ccs-DEN22/pkg/network"
	"github.com/anderspkd/ccs-DEN22/pkg/prg"
	"github.com/anderspkd/ccs-DEN22/pkg/sharing"
)

// Setup runs the one-time mask dealing round for one party.
type Setup struct {
	net network.Network
	rep *sharing.Replicator
	g   *prg.PRG
}

// NewSetup creates the setup protocol. g is this party's private
// randomness.
func NewSetup(net network.Network, rep *sharing.Replicator, g *prg.PRG) *Setup {
	return &Setup{net: net, rep: rep, g: g}
}

// Run deals this party's mask key and collects every peer's. Each party
// samples a random key, sends a replicated share of it to everyone, and
// keeps PRGs seeded by the key's additive terms. The sum of the dealer's
// own streams is its mask; the receivers' per-slot streams expand to
// threshold-t shares of exactly that mask, one fresh share per draw.
func (s *Setup) Run() (*MaskCorrelator, error) {
	f := s.rep.Field()

	key := s.g.Element(f)
	additive, shares := s.rep.ShareWithAdditive(key, s.g)
	for i := 0; i < s.net.Size(); i++ {
		if err := s.net.SendShares(i, []sharing.Share{shares[i]}); err != nil {
			return nil, fmt.Errorf("input: dealing mask key to %d: %w", i, err)
		}
	}

	own := make([]*prg.PRG, len(additive))
	for l, a := range additive {
		own[l] = prg.NewFromElement(a)
	}

	banks := make([][]*prg.PRG, s.net.Size())
	for i := range banks {
		recv, err := s.net.RecvShares(i, 1)
		if err != nil {
			return nil, fmt.Errorf("input: receiving mask key from %d: %w", i, err)
		}
		bank := make([]*prg.PRG, s.rep.ShareSize())
		for k, v := range recv[0] {
			bank[k] = prg.NewFromElement(v)
		}
		banks[i] = bank
	}

	return &MaskCorrelator{
		f:         f,
		shareSize: s.rep.ShareSize(),
		own:       own,
		banks:     banks,
	}, nil
}

// MaskCorrelator expands the dealt mask keys. Draw order is significant:
// the j-th Mask() of a party lines up with every peer's j-th
// MaskShare(id) for that party.
type MaskCorrelator struct {
	f         field.Field
	shareSize int
	own       []*prg.PRG
	banks     [][]*prg.PRG
}

// Mask returns this party's next mask value.
func (c *MaskCorrelator) Mask() field.Element {
	v := c.f.NewElement()
	for _, g := range c.own {
		v = v.Add(g.Element(c.f))
	}
	return v
}

// MaskShare returns a fresh threshold-t share of party id's next mask.
func (c *MaskCorrelator) MaskShare(id int) sharing.Share {
	share := make(sharing.Share, 0, c.shareSize)
	for _, g := range c.banks[id] {
		share = append(share, g.Element(c.f))
	}
	return share
}

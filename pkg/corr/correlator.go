// Package corr produces the correlated randomness consumed by the
// multiplication protocol: jointly random values held simultaneously as a
// threshold-t replicated sharing, an additive sharing among the first
// 2t+1 parties, and replicated sharings of every additive term. All of it
// is derived deterministically from PRG seeds dealt once at setup.
package corr

import (
	"fmt"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/anderspkd/ccs-DEN22/pkg/prg"
	"github.com/anderspkd/ccs-DEN22/pkg/sharing"
)

// ZeroShare is a correlated sharing of zero: additive shares among the
// first 2t+1 parties summing to zero, plus threshold-t sharings of each
// additive term.
type ZeroShare struct {
	Add     field.Element
	RepAdds []sharing.Share
}

// RandomShare is a correlated sharing of a jointly random r: a
// threshold-t replicated share of r, this party's additive share of r
// among the first 2t+1 parties, and threshold-t sharings of each additive
// term.
type RandomShare struct {
	Rep     sharing.Share
	Add     field.Element
	RepAdds []sharing.Share
}

// Correlator holds one party's PRG banks and derives correlated shares
// from them. Banks are seeded either by Setup (a real dealing round) or
// by SeedLocal (tests); a freshly constructed Correlator carries the
// all-zero default seeds, which are trivially consistent across parties.
type Correlator struct {
	party     int
	threshold int
	rep       *sharing.Replicator
	f         field.Field

	// ownPRGs is seeded from the additive terms of this party's own
	// dealt key, one PRG per additive slot of the threshold-t layout.
	ownPRGs []*prg.PRG
	// randPRGs[u][k] is seeded from slot k of the key share received
	// from dealer u, for each dealer u in {0..2t}.
	randPRGs [][]*prg.PRG
}

// NewCorrelator creates a correlator for the given party with default
// (all-zero) seeds.
func NewCorrelator(party int, rep *sharing.Replicator) *Correlator {
	c := &Correlator{
		party:     party,
		threshold: rep.Threshold(),
		rep:       rep,
		f:         rep.Field(),
	}
	zero := rep.Field().NewElement()
	c.ownPRGs = make([]*prg.PRG, rep.AdditiveShareSize())
	for i := range c.ownPRGs {
		c.ownPRGs[i] = prg.NewFromElement(zero)
	}
	c.randPRGs = make([][]*prg.PRG, 2*c.threshold+1)
	for u := range c.randPRGs {
		bank := make([]*prg.PRG, rep.ShareSize())
		for k := range bank {
			bank[k] = prg.NewFromElement(zero)
		}
		c.randPRGs[u] = bank
	}
	return c
}

// SetOwnPRGs replaces the bank seeded by this party's own key terms.
func (c *Correlator) SetOwnPRGs(prgs []*prg.PRG) { c.ownPRGs = prgs }

// SetRandPRGs replaces the bank for dealer u.
func (c *Correlator) SetRandPRGs(u int, prgs []*prg.PRG) { c.randPRGs[u] = prgs }

// GenRandomShare advances every bank by one element and assembles the
// next correlated random share. By construction Rep[k] equals the sum of
// RepAdds[u][k] over the dealers u.
func (c *Correlator) GenRandomShare() RandomShare {
	out := RandomShare{Add: c.f.NewElement()}

	// Only parties in U = {0..2t} hold additive shares; theirs is the
	// value their own dealt key expands to.
	if c.party < 2*c.threshold+1 {
		for _, g := range c.ownPRGs {
			out.Add = out.Add.Add(g.Element(c.f))
		}
	}

	out.Rep = make(sharing.Share, c.rep.ShareSize())
	out.RepAdds = make([]sharing.Share, 2*c.threshold+1)
	for u := range out.RepAdds {
		out.RepAdds[u] = make(sharing.Share, 0, c.rep.ShareSize())
	}
	for k := 0; k < c.rep.ShareSize(); k++ {
		out.Rep[k] = c.f.NewElement()
		for u := 0; u < 2*c.threshold+1; u++ {
			v := c.randPRGs[u][k].Element(c.f)
			out.RepAdds[u] = append(out.RepAdds[u], v)
			out.Rep[k] = out.Rep[k].Add(v)
		}
	}
	return out
}

// GenRandomShareDummy returns the all-zero random correlation.
func (c *Correlator) GenRandomShareDummy() RandomShare {
	out := RandomShare{
		Add:     c.f.NewElement(),
		Rep:     c.zeroShare(),
		RepAdds: make([]sharing.Share, 2*c.threshold+1),
	}
	for u := range out.RepAdds {
		out.RepAdds[u] = c.zeroShare()
	}
	return out
}

// GenZeroShare returns the trivial zero correlation: every additive term
// is zero and so is every replicated sharing of one. A nontrivial zero
// correlation cannot be expanded from independent per-dealer seeds (see
// DESIGN.md); the protocols consume only random shares.
func (c *Correlator) GenZeroShare() ZeroShare {
	out := ZeroShare{
		Add:     c.f.NewElement(),
		RepAdds: make([]sharing.Share, 2*c.threshold+1),
	}
	for u := range out.RepAdds {
		out.RepAdds[u] = c.zeroShare()
	}
	return out
}

// GenZeroShareDummy is GenZeroShare under the name the dealing-free test
// path uses.
func (c *Correlator) GenZeroShareDummy() ZeroShare { return c.GenZeroShare() }

func (c *Correlator) zeroShare() sharing.Share {
	s := make(sharing.Share, c.rep.ShareSize())
	for i := range s {
		s[i] = c.f.NewElement()
	}
	return s
}

// dealerNetwork is the slice of the network façade the dealing round
// needs.
type dealerNetwork interface {
	Party() int
	Size() int
	SendShares(to int, shares []sharing.Share) error
	RecvShares(from, n int) ([]sharing.Share, error)
}

// Setup runs the one-time dealing round. Every party in U = {0..2t}
// deals a random key: a replicated sharing of it goes out to all parties
// and seeds their per-dealer banks, while the dealer seeds its own bank
// from the additive terms of the key. Parties outside U deal nothing.
func Setup(net dealerNetwork, rep *sharing.Replicator, g *prg.PRG) (*Correlator, error) {
	c := NewCorrelator(net.Party(), rep)
	u := 2*rep.Threshold() + 1

	if c.party < u {
		key := g.Element(rep.Field())
		additive, shares := rep.ShareWithAdditive(key, g)
		for i := 0; i < net.Size(); i++ {
			if err := net.SendShares(i, []sharing.Share{shares[i]}); err != nil {
				return nil, fmt.Errorf("corr: dealing key share to %d: %w", i, err)
			}
		}
		own := make([]*prg.PRG, len(additive))
		for l, a := range additive {
			own[l] = prg.NewFromElement(a)
		}
		c.SetOwnPRGs(own)
	}

	for dealer := 0; dealer < u; dealer++ {
		recv, err := net.RecvShares(dealer, 1)
		if err != nil {
			return nil, fmt.Errorf("corr: receiving key share from %d: %w", dealer, err)
		}
		bank := make([]*prg.PRG, rep.ShareSize())
		for k, v := range recv[0] {
			bank[k] = prg.NewFromElement(v)
		}
		c.SetRandPRGs(dealer, bank)
	}
	return c, nil
}

// SeedLocal builds consistently seeded correlators for all parties
// without a network, emulating the dealing round from a single master
// PRG. Intended for tests and local benchmarks.
func SeedLocal(rep *sharing.Replicator, g *prg.PRG) []*Correlator {
	n := rep.Size()
	u := 2*rep.Threshold() + 1
	out := make([]*Correlator, n)
	for i := 0; i < n; i++ {
		out[i] = NewCorrelator(i, rep)
	}
	for dealer := 0; dealer < u; dealer++ {
		key := g.Element(rep.Field())
		additive, shares := rep.ShareWithAdditive(key, g)
		own := make([]*prg.PRG, len(additive))
		for l, a := range additive {
			own[l] = prg.NewFromElement(a)
		}
		out[dealer].SetOwnPRGs(own)
		for i := 0; i < n; i++ {
			bank := make([]*prg.PRG, rep.ShareSize())
			for k, v := range shares[i] {
				bank[k] = prg.NewFromElement(v)
			}
			out[i].SetRandPRGs(dealer, bank)
		}
	}
	return out
}

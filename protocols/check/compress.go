package check

import (
	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/anderspkd/ccs-DEN22/pkg/sharing"
	"github.com/anderspkd/ccs-DEN22/pkg/timing"
)

// PrepareLinearCombinations folds the scalar transcript under the random
// coefficients. Contributors in {0..2t} form A from what they sent to
// the reconstructor; parties in T form E from the openings they received;
// the reconstructor forms B_i from what it received from each
// contributor. Every party also compresses its threshold-t shares of the
// contributors' masks.
func (c *Check) PrepareLinearCombinations() {
	defer timing.Scope(c.log, c.metrics, "check.compress")()

	f := c.rep.Field()
	u := 2*c.t + 1

	c.a = f.NewElement()
	c.e = f.NewElement()
	if c.id < u {
		for mu := 0; mu < c.count; mu++ {
			c.a = c.a.Add(c.coeffs[mu].Mul(c.cd.SharesSentToP1[mu]))
		}
	}
	if c.id < c.n-c.t {
		for mu := 0; mu < c.count; mu++ {
			c.e = c.e.Add(c.coeffs[mu].Mul(c.cd.ValuesRecvFromP1[mu]))
		}
	}
	if c.id == 0 {
		c.b = make([]field.Element, u)
		for i := 0; i < u; i++ {
			c.b[i] = f.NewElement()
			for mu := 0; mu < c.count; mu++ {
				c.b[i] = c.b[i].Add(c.coeffs[mu].Mul(c.cd.SharesRecvByP1[i][mu]))
			}
		}
	}

	c.maskAdds = make([]sharing.Share, u)
	for i := range c.maskAdds {
		c.maskAdds[i] = c.zeroShare(c.rep.ShareSize())
	}
	for mu := 0; mu < c.count; mu++ {
		for i := 0; i < u; i++ {
			scaled := c.man.MultiplyConstant(c.cd.RandAdds[mu][i], c.coeffs[mu])
			c.maskAdds[i] = c.man.Add(c.maskAdds[i], scaled)
		}
	}
}

// PrepareMsgs folds the degree-2t message shares under the same
// coefficients, one compressed share per contributor.
func (c *Check) PrepareMsgs() {
	defer timing.Scope(c.log, c.metrics, "check.msgs")()

	u := 2*c.t + 1
	c.msgs = make([]sharing.Share, u)
	for i := range c.msgs {
		c.msgs[i] = c.zeroShare(c.man.DoubleReplicator().ShareSize())
	}
	for mu := 0; mu < c.count; mu++ {
		for i := 0; i < u; i++ {
			scaled := c.man.MultiplyConstant(c.cd.Msgs[mu][i], c.coeffs[mu])
			c.msgs[i] = c.man.Add(c.msgs[i], scaled)
		}
	}
}

func (c *Check) zeroShare(size int) sharing.Share {
	f := c.rep.Field()
	s := make(sharing.Share, size)
	for i := range s {
		s[i] = f.NewElement()
	}
	return s
}

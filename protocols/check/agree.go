package check

import (
	"fmt"

	"github.com/anderspkd/ccs-DEN22/pkg/sharing"
	"github.com/anderspkd/ccs-DEN22/pkg/timing"
)

// AgreeOnTranscript performs the final cross-party confirmation:
//
//  1. The reconstructor broadcasts the compressed vectors B_i it claims
//     to have received; each contributor checks its own entry against
//     what it actually sent, and every party in T checks that the B_i
//     sum to its compressed opening E.
//  2. The compressed mask shares are exchanged and opened with error
//     detection, and every party confirms that each contributor's
//     reconstructed message minus its opened mask equals B_i.
//
// All sends complete before any check runs, so a party that aborts here
// never leaves its peers blocked mid-round. Any mismatch proves a
// cheater and aborts the session.
func (c *Check) AgreeOnTranscript() error {
	if c.msgTotals == nil {
		return ErrNotReady
	}
	defer timing.Scope(c.log, c.metrics, "check.agree")()

	u := 2*c.t + 1
	f := c.rep.Field()

	if c.id == 0 {
		for i := 0; i < c.n; i++ {
			if err := c.net.Send(i, c.b); err != nil {
				return fmt.Errorf("check: broadcasting received-share sums: %w", err)
			}
		}
	}
	for i := 0; i < c.n; i++ {
		if err := c.net.SendShares(i, c.maskAdds); err != nil {
			return fmt.Errorf("check: sending mask shares to %d: %w", i, err)
		}
	}

	claimed, err := c.net.Recv(0, u)
	if err != nil {
		return fmt.Errorf("check: receiving received-share sums: %w", err)
	}
	maskShares := make([][]sharing.Share, c.n)
	for s := 0; s < c.n; s++ {
		if maskShares[s], err = c.net.RecvShares(s, u); err != nil {
			return fmt.Errorf("check: receiving mask shares from %d: %w", s, err)
		}
	}

	if c.id < u && !claimed[c.id].Equal(c.a) {
		return fmt.Errorf("%w: reconstructor misreports this party's shares", ErrVerificationFailed)
	}
	if c.id < c.n-c.t {
		sum := f.NewElement()
		for _, b := range claimed {
			sum = sum.Add(b)
		}
		if !sum.Equal(c.e) {
			return fmt.Errorf("%w: openings disagree with claimed shares", ErrVerificationFailed)
		}
	}

	for i := 0; i < u; i++ {
		gathered := make([]sharing.Share, c.n)
		for s := 0; s < c.n; s++ {
			gathered[s] = maskShares[s][i]
		}
		mask, err := c.rep.ErrorDetect(gathered)
		if err != nil {
			return fmt.Errorf("%w: opening mask of contributor %d: %v", ErrVerificationFailed, i, err)
		}
		if !c.msgTotals[i].Sub(mask).Equal(claimed[i]) {
			return fmt.Errorf("%w: contributor %d's messages disagree with its shares",
				ErrVerificationFailed, i)
		}
	}

	c.log.Debug().Int("mults", c.count).Msg("transcript verified")
	return nil
}

package check

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/anderspkd/ccs-DEN22/pkg/sharing"
	"github.com/anderspkd/ccs-DEN22/pkg/timing"
	"golang.org/x/crypto/sha3"
)

const digestDomain = "ccs-den22/check/msg"

// msgDigest is the SHA3-256 digest of one slot's batched payload, bound
// to the slot index so payloads cannot be transplanted between slots.
func msgDigest(slot int, batched []field.Element) []byte {
	h := sha3.New256()
	h.Write([]byte(digestDomain))
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], uint32(slot))
	h.Write(idx[:])
	h.Write(field.VectorToBytes(batched))
	return h.Sum(nil)
}

// valueSlots lists, in canonical order, the degree-2t slots for which
// sender transmits the raw batched payload to receiver: the slots sender
// holds as first party of the subset, with receiver outside it.
func (c *Check) valueSlots(sender, receiver int) []int {
	doubleRep := c.man.DoubleReplicator()
	var out []int
	for _, g := range doubleRep.IndexSet(sender) {
		subset := doubleRep.Combination(g)
		if subset[0] == sender && !containsParty(subset, receiver) {
			out = append(out, g)
		}
	}
	return out
}

// digestSlots lists the slots for which sender transmits only a digest:
// slots it holds without being first, with receiver outside the subset.
func (c *Check) digestSlots(sender, receiver int) []int {
	doubleRep := c.man.DoubleReplicator()
	var out []int
	for _, g := range doubleRep.IndexSet(sender) {
		subset := doubleRep.Combination(g)
		if subset[0] != sender && !containsParty(subset, receiver) {
			out = append(out, g)
		}
	}
	return out
}

func containsParty(subset []int, party int) bool {
	for _, p := range subset {
		if p == party {
			return true
		}
	}
	return false
}

// ReconstructMsgs exchanges the compressed message shares. For each of
// this party's degree-2t slots the per-contributor values are packed
// into one batched payload; the first party of the slot's subset sends
// the payload itself, every other holder sends its digest, and every
// receiver checks each digest against the payload it received. The
// reconstructed per-contributor totals are kept for the final agreement
// step.
func (c *Check) ReconstructMsgs() error {
	if c.msgs == nil || c.maskAdds == nil {
		return ErrNotReady
	}
	defer timing.Scope(c.log, c.metrics, "check.reconstruct")()

	doubleRep := c.man.DoubleReplicator()
	localSlots := doubleRep.IndexSet(c.id)
	recTable := c.man.RecTable()
	u := 2*c.t + 1

	// Pack outgoing values and digests per receiver, in local slot
	// order.
	values := make([][]field.Element, c.n)
	digests := make([][]byte, c.n)
	for li, entry := range recTable {
		batched := make([]field.Element, u)
		for i := 0; i < u; i++ {
			batched[i] = c.msgs[i][li]
		}
		switch entry.Kind {
		case sharing.RecValue:
			for _, recv := range entry.Receivers {
				values[recv] = append(values[recv], batched...)
			}
		case sharing.RecDigest:
			d := msgDigest(localSlots[li], batched)
			for _, recv := range entry.Receivers {
				digests[recv] = append(digests[recv], d...)
			}
		}
	}

	// The element count precedes the values and the digest count the
	// digests, so receivers size their reads exactly.
	for i := 0; i < c.n; i++ {
		if err := c.net.SendBytes(i, lengthPrefix(len(values[i]))); err != nil {
			return fmt.Errorf("check: sending value count to %d: %w", i, err)
		}
		if err := c.net.Send(i, values[i]); err != nil {
			return fmt.Errorf("check: sending values to %d: %w", i, err)
		}
		nd := len(digests[i]) / sha3DigestSize
		if err := c.net.SendBytes(i, lengthPrefix(nd)); err != nil {
			return fmt.Errorf("check: sending digest count to %d: %w", i, err)
		}
		if err := c.net.SendBytes(i, digests[i]); err != nil {
			return fmt.Errorf("check: sending digests to %d: %w", i, err)
		}
	}

	// Receive, checking the announced counts against what the layout
	// says each sender must transmit.
	recvValues := make([][]field.Element, c.n)
	recvDigests := make([][]byte, c.n)
	for s := 0; s < c.n; s++ {
		wantValues := len(c.valueSlots(s, c.id)) * u
		wantDigests := len(c.digestSlots(s, c.id))

		nv, err := c.recvLength(s)
		if err != nil {
			return err
		}
		if nv != wantValues {
			return fmt.Errorf("%w: party %d announced %d values, layout says %d",
				ErrVerificationFailed, s, nv, wantValues)
		}
		if recvValues[s], err = c.net.Recv(s, nv); err != nil {
			return fmt.Errorf("check: receiving values from %d: %w", s, err)
		}

		nd, err := c.recvLength(s)
		if err != nil {
			return err
		}
		if nd != wantDigests {
			return fmt.Errorf("%w: party %d announced %d digests, layout says %d",
				ErrVerificationFailed, s, nd, wantDigests)
		}
		if recvDigests[s], err = c.net.RecvBytes(s, nd*sha3DigestSize); err != nil {
			return fmt.Errorf("check: receiving digests from %d: %w", s, err)
		}
	}

	// Assemble the payload of every slot this party does not hold, then
	// check every other holder's digest against it.
	slotPayload := make(map[int][]field.Element)
	for s := 0; s < c.n; s++ {
		for vi, g := range c.valueSlots(s, c.id) {
			slotPayload[g] = recvValues[s][vi*u : (vi+1)*u]
		}
	}
	for s := 0; s < c.n; s++ {
		for di, g := range c.digestSlots(s, c.id) {
			payload, ok := slotPayload[g]
			if !ok {
				return fmt.Errorf("%w: no payload for slot %d", ErrVerificationFailed, g)
			}
			got := recvDigests[s][di*sha3DigestSize : (di+1)*sha3DigestSize]
			if !bytes.Equal(got, msgDigest(g, payload)) {
				return fmt.Errorf("%w: digest mismatch for slot %d from party %d",
					ErrVerificationFailed, g, s)
			}
		}
	}

	// Total up the compressed message of each contributor over all
	// slots, own copies for held slots and received payloads otherwise.
	f := c.rep.Field()
	c.msgTotals = make([]field.Element, u)
	for i := range c.msgTotals {
		c.msgTotals[i] = f.NewElement()
	}
	held := make(map[int]int, len(localSlots))
	for li, g := range localSlots {
		held[g] = li
	}
	for g := 0; g < doubleRep.AdditiveShareSize(); g++ {
		if li, ok := held[g]; ok {
			for i := 0; i < u; i++ {
				c.msgTotals[i] = c.msgTotals[i].Add(c.msgs[i][li])
			}
			continue
		}
		payload, ok := slotPayload[g]
		if !ok {
			return fmt.Errorf("%w: no payload for slot %d", ErrVerificationFailed, g)
		}
		for i := 0; i < u; i++ {
			c.msgTotals[i] = c.msgTotals[i].Add(payload[i])
		}
	}
	return nil
}

const sha3DigestSize = 32

func lengthPrefix(n int) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(n))
	return b[:]
}

func (c *Check) recvLength(from int) (int, error) {
	lp, err := c.net.RecvBytes(from, 4)
	if err != nil {
		return 0, fmt.Errorf("check: receiving length prefix from %d: %w", from, err)
	}
	return int(binary.LittleEndian.Uint32(lp)), nil
}

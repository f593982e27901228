// Package sharing implements the replicated secret-sharing algebra: the
// combinatorial share layout for a threshold, creating and reconstructing
// sharings, and the local share arithmetic (including Beaver-style local
// multiplication to additive and double-degree forms).
package sharing

import (
	"errors"
	"fmt"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/anderspkd/ccs-DEN22/pkg/prg"
)

// ErrInconsistentShares is returned when reconstruction observes two
// disagreeing copies of the same additive slot.
var ErrInconsistentShares = errors.New("sharing: inconsistent shares")

// Share is one party's replicated share: the additive-slot values indexed
// by the party's index set, in index-set order.
type Share []field.Element

// Clone returns a copy of the share.
func (s Share) Clone() Share {
	out := make(Share, len(s))
	copy(out, s)
	return out
}

// Replicator fixes the combinatorial layout of a threshold-t replicated
// sharing among n parties, and creates and reconstructs sharings under
// that layout. It is immutable after construction.
type Replicator struct {
	n, t              int
	shareSize         int
	additiveShareSize int
	differenceSize    int
	field             field.Field

	// combinations[slot] is the sorted size-(n-t) party subset holding
	// that additive slot, in lexicographic slot order.
	combinations [][]int
	// indexSets[party] lists the slots whose subset contains party.
	indexSets [][]int
	// slots maps a subset (packed as bytes, one party id per byte) back
	// to its slot index.
	slots map[string]int
}

// NewReplicator creates the layout for n parties with privacy threshold t
// over the field f.
func NewReplicator(f field.Field, n, t int) (*Replicator, error) {
	if t == 0 {
		return nil, errors.New("sharing: privacy threshold cannot be 0")
	}
	if t >= n {
		return nil, fmt.Errorf("sharing: privacy threshold %d too large for %d parties", t, n)
	}

	r := &Replicator{
		n:                 n,
		t:                 t,
		shareSize:         binom(n-1, t),
		additiveShareSize: binom(n, t),
		field:             f,
		indexSets:         make([][]int, n),
		slots:             make(map[string]int),
	}

	k := n - t
	comb := firstCombination(k)
	slot := 0
	for {
		subset := make([]int, k)
		copy(subset, comb)
		r.combinations = append(r.combinations, subset)
		r.slots[subsetKey(subset)] = slot
		for _, party := range subset {
			r.indexSets[party] = append(r.indexSets[party], slot)
		}
		slot++
		if !nextCombination(comb, n) {
			break
		}
	}

	// Slots party 0 holds that party 1 does not.
	d := 0
	for _, s := range r.indexSets[0] {
		if !contains(r.indexSets[1], s) {
			d++
		}
	}
	r.differenceSize = d

	return r, nil
}

func subsetKey(subset []int) string {
	b := make([]byte, len(subset))
	for i, v := range subset {
		b[i] = byte(v)
	}
	return string(b)
}

// Size returns the number of parties.
func (r *Replicator) Size() int { return r.n }

// Threshold returns the privacy threshold.
func (r *Replicator) Threshold() int { return r.t }

// Field returns the field the layout shares over.
func (r *Replicator) Field() field.Field { return r.field }

// ShareSize returns the number of elements in one party's share.
func (r *Replicator) ShareSize() int { return r.shareSize }

// ShareSizeBytes returns the wire width of one party's share.
func (r *Replicator) ShareSizeBytes() int { return r.shareSize * r.field.ByteSize() }

// AdditiveShareSize returns the total number of additive slots.
func (r *Replicator) AdditiveShareSize() int { return r.additiveShareSize }

// DifferenceSize returns the number of slots any one share holds that
// another is missing.
func (r *Replicator) DifferenceSize() int { return r.differenceSize }

// Combination returns the sorted party subset holding the given slot.
func (r *Replicator) Combination(slot int) []int { return r.combinations[slot] }

// IndexSet returns the slots held by the given party, in canonical order.
func (r *Replicator) IndexSet(party int) []int { return r.indexSets[party] }

// SlotOf returns the slot index of a sorted party subset.
func (r *Replicator) SlotOf(subset []int) (int, bool) {
	slot, ok := r.slots[subsetKey(subset)]
	return slot, ok
}

// Share creates an n-way replicated sharing of secret, drawing randomness
// from g. shares[i] is party i's share.
func (r *Replicator) Share(secret field.Element, g *prg.PRG) []Share {
	additive := ShareAdditive(secret, r.additiveShareSize, g)
	return r.fromAdditive(additive)
}

// ShareWithAdditive is Share, additionally returning the underlying
// additive slot values. Correlation dealers need these to seed their own
// PRG banks.
func (r *Replicator) ShareWithAdditive(secret field.Element, g *prg.PRG) ([]field.Element, []Share) {
	additive := ShareAdditive(secret, r.additiveShareSize, g)
	return additive, r.fromAdditive(additive)
}

func (r *Replicator) fromAdditive(additive []field.Element) []Share {
	shares := make([]Share, r.n)
	for i := 0; i < r.n; i++ {
		share := make(Share, 0, r.shareSize)
		for _, slot := range r.indexSets[i] {
			share = append(share, additive[slot])
		}
		shares[i] = share
	}
	return shares
}

// ShareMany shares each secret and transposes the result so that
// out[party][j] is party's share of secrets[j].
func (r *Replicator) ShareMany(secrets []field.Element, g *prg.PRG) [][]Share {
	out := make([][]Share, r.n)
	for i := range out {
		out[i] = make([]Share, 0, len(secrets))
	}
	for _, secret := range secrets {
		shares := r.Share(secret, g)
		for i, share := range shares {
			out[i] = append(out[i], share)
		}
	}
	return out
}

// redundantCopies gathers, for every additive slot, each party's copy of
// that slot.
func (r *Replicator) redundantCopies(shares []Share) [][]field.Element {
	redundant := make([][]field.Element, r.additiveShareSize)
	for i := range redundant {
		redundant[i] = make([]field.Element, 0, r.n-r.t)
	}
	for party := 0; party < r.n; party++ {
		for j, slot := range r.indexSets[party] {
			redundant[slot] = append(redundant[slot], shares[party][j])
		}
	}
	return redundant
}

// Reconstruct recovers the secret assuming all copies are consistent.
func (r *Replicator) Reconstruct(shares []Share) field.Element {
	redundant := r.redundantCopies(shares)
	secret := r.field.NewElement()
	for _, copies := range redundant {
		secret = secret.Add(copies[0])
	}
	return secret
}

// ErrorDetect recovers the secret, returning ErrInconsistentShares if any
// two copies of a slot disagree. Sound for t < n/2.
func (r *Replicator) ErrorDetect(shares []Share) (field.Element, error) {
	redundant := r.redundantCopies(shares)
	secret := r.field.NewElement()
	for slot, copies := range redundant {
		for _, c := range copies[1:] {
			if !c.Equal(copies[0]) {
				return nil, fmt.Errorf("%w: slot %d", ErrInconsistentShares, slot)
			}
		}
		secret = secret.Add(copies[0])
	}
	return secret, nil
}

// ErrorCorrect recovers the secret by majority vote over each slot's
// copies. For t < n/3 an adversary holding at most t positions can never
// force a tie, so a missing majority indicates a bug in the caller.
func (r *Replicator) ErrorCorrect(shares []Share) (field.Element, error) {
	redundant := r.redundantCopies(shares)
	secret := r.field.NewElement()
	for slot, copies := range redundant {
		best, count := copies[0], 0
		for _, cand := range copies {
			c := 0
			for _, x := range copies {
				if x.Equal(cand) {
					c++
				}
			}
			if c > count {
				best, count = cand, c
			}
		}
		if 2*count <= len(copies) {
			return nil, fmt.Errorf("sharing: no majority for slot %d", slot)
		}
		secret = secret.Add(best)
	}
	return secret, nil
}

// ShareToBytes serializes a share as its concatenated slot encodings.
func (r *Replicator) ShareToBytes(s Share) []byte {
	return field.VectorToBytes(s)
}

// ShareFromBytes decodes one share from b.
func (r *Replicator) ShareFromBytes(b []byte) (Share, error) {
	els, err := field.VectorFromBytes(r.field, b, r.shareSize)
	if err != nil {
		return nil, err
	}
	return Share(els), nil
}

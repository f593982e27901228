package sharing

import (
	"fmt"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
)

// constantSlot is the additive slot every party agrees constants are
// folded into: the lexicographically first subset, which is the one
// containing party 0.
const constantSlot = 0

// MultEntry is one precomputed term of the local share product. SrcA and
// SrcB are local slot indices into a degree-t share, DestC is the local
// slot index of the product term under the degree-2t layout, and
// FirstParty is the smallest party in the intersection of the two source
// subsets (the party whose additive contribution the term belongs to).
type MultEntry struct {
	SrcA, SrcB int
	DestC      int
	FirstParty int
}

// RecKind says whether a reconstruction message carries the full value or
// only a digest of it.
type RecKind int

const (
	// RecValue sends the raw payload.
	RecValue RecKind = iota
	// RecDigest sends a hash of the payload.
	RecDigest
)

// RecEntry describes, for one of this party's degree-2t slots, the
// parties that must be told the slot value and whether this party sends
// the value itself or a digest.
type RecEntry struct {
	Kind      RecKind
	Receivers []int
}

// Manipulator performs the local share arithmetic for a single party. It
// owns the threshold-t and threshold-2t layouts plus the derived
// multiplication and reconstruction tables; everything is materialized at
// construction and never resized.
type Manipulator struct {
	party int
	n, t  int

	rep       *Replicator
	doubleRep *Replicator

	// constIndex is the local position of constantSlot in this party's
	// index set, or -1 when this party does not hold it.
	constIndex int

	multTable []MultEntry
	recTable  []RecEntry
}

// NewManipulator creates the manipulator for the given party under an
// (n, t) layout over f.
func NewManipulator(f field.Field, party, n, t int) (*Manipulator, error) {
	rep, err := NewReplicator(f, n, t)
	if err != nil {
		return nil, err
	}
	doubleRep, err := NewReplicator(f, n, 2*t)
	if err != nil {
		return nil, err
	}

	m := &Manipulator{
		party:      party,
		n:          n,
		t:          t,
		rep:        rep,
		doubleRep:  doubleRep,
		constIndex: indexOf(rep.IndexSet(party), constantSlot),
	}
	m.buildMultTable()
	m.buildRecTable()
	return m, nil
}

func (m *Manipulator) buildMultTable() {
	indexSet := m.rep.IndexSet(m.party)
	doubleIndexSet := m.doubleRep.IndexSet(m.party)

	for a := 0; a < m.rep.ShareSize(); a++ {
		for b := 0; b < m.rep.ShareSize(); b++ {
			setA := m.rep.Combination(indexSet[a])
			setB := m.rep.Combination(indexSet[b])

			// Both subsets have size n-t, so the intersection has at
			// least n-2t elements; its first n-2t name a degree-2t slot.
			inter := intersect(setA, setB)
			target, ok := m.doubleRep.SlotOf(inter[:m.n-2*m.t])
			if !ok {
				panic(fmt.Sprintf("sharing: intersection %v is not a degree-2t slot", inter[:m.n-2*m.t]))
			}

			dest := indexOf(doubleIndexSet, target)
			if dest == -1 {
				continue
			}
			m.multTable = append(m.multTable, MultEntry{
				SrcA:       a,
				SrcB:       b,
				DestC:      dest,
				FirstParty: inter[0],
			})
		}
	}
}

func (m *Manipulator) buildRecTable() {
	doubleIndexSet := m.doubleRep.IndexSet(m.party)
	m.recTable = make([]RecEntry, len(doubleIndexSet))

	for i, slot := range doubleIndexSet {
		subset := m.doubleRep.Combination(slot)
		entry := RecEntry{Kind: RecDigest}
		if m.party == subset[0] {
			entry.Kind = RecValue
		}
		for party := 0; party < m.n; party++ {
			if !contains(subset, party) {
				entry.Receivers = append(entry.Receivers, party)
			}
		}
		m.recTable[i] = entry
	}
}

// Party returns the party this manipulator computes for.
func (m *Manipulator) Party() int { return m.party }

// Replicator returns the threshold-t layout.
func (m *Manipulator) Replicator() *Replicator { return m.rep }

// DoubleReplicator returns the threshold-2t layout.
func (m *Manipulator) DoubleReplicator() *Replicator { return m.doubleRep }

// ShareSize returns the element count of a degree-t share.
func (m *Manipulator) ShareSize() int { return m.rep.ShareSize() }

// MultTable returns the precomputed multiplication table.
func (m *Manipulator) MultTable() []MultEntry { return m.multTable }

// RecTable returns the precomputed reconstruction table.
func (m *Manipulator) RecTable() []RecEntry { return m.recTable }

// Add returns the elementwise sum of two shares under the same layout.
func (m *Manipulator) Add(a, b Share) Share {
	out := make(Share, len(a))
	for i := range a {
		out[i] = a[i].Add(b[i])
	}
	return out
}

// Subtract returns the elementwise difference a - b.
func (m *Manipulator) Subtract(a, b Share) Share {
	out := make(Share, len(a))
	for i := range a {
		out[i] = a[i].Sub(b[i])
	}
	return out
}

// AddConstant returns a share of a + c. Only parties holding the
// constant slot change anything.
func (m *Manipulator) AddConstant(a Share, c field.Element) Share {
	if m.constIndex == -1 {
		return a
	}
	out := a.Clone()
	out[m.constIndex] = out[m.constIndex].Add(c)
	return out
}

// SubtractConstant returns a share of a - c.
func (m *Manipulator) SubtractConstant(a Share, c field.Element) Share {
	if m.constIndex == -1 {
		return a
	}
	out := a.Clone()
	out[m.constIndex] = out[m.constIndex].Sub(c)
	return out
}

// SubtractFromConstant returns a share of c - a.
func (m *Manipulator) SubtractFromConstant(c field.Element, a Share) Share {
	out := make(Share, len(a))
	for i := range a {
		out[i] = a[i].Negate()
	}
	if m.constIndex != -1 {
		out[m.constIndex] = out[m.constIndex].Add(c)
	}
	return out
}

// MultiplyConstant returns a share of c * a.
func (m *Manipulator) MultiplyConstant(a Share, c field.Element) Share {
	out := make(Share, len(a))
	for i := range a {
		out[i] = c.Mul(a[i])
	}
	return out
}

// MultiplyToDoubleDegree locally multiplies two degree-t shares into a
// degree-2t share of the product.
func (m *Manipulator) MultiplyToDoubleDegree(a, b Share) Share {
	f := m.rep.Field()
	out := make(Share, m.doubleRep.ShareSize())
	for i := range out {
		out[i] = f.NewElement()
	}
	for _, e := range m.multTable {
		out[e.DestC] = out[e.DestC].Add(a[e.SrcA].Mul(b[e.SrcB]))
	}
	return out
}

// MultiplyToAdditive locally multiplies two degree-t shares into this
// party's additive share of the product; summed over the first 2t+1
// parties the contributions equal a*b.
func (m *Manipulator) MultiplyToAdditive(a, b Share) field.Element {
	out := m.rep.Field().NewElement()
	for _, e := range m.multTable {
		if e.FirstParty == m.party {
			out = out.Add(a[e.SrcA].Mul(b[e.SrcB]))
		}
	}
	return out
}

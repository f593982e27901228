package check

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/anderspkd/ccs-DEN22/pkg/hash"
	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/anderspkd/ccs-DEN22/pkg/prg"
	"github.com/anderspkd/ccs-DEN22/pkg/timing"
	"github.com/fxamacker/cbor/v2"
)

const coinDomain = "ccs-den22/check/coin"

// maxRevealFrame bounds the cbor reveal message; contributions and
// decommitments are 32 bytes each.
const maxRevealFrame = 1 << 10

// CoinToss agrees on a uniformly random seed for the coefficient PRG via
// commit-then-reveal: every party commits to a fresh 32-byte
// contribution, all commitments are exchanged before any opening, and
// the seed is the XOR of all verified contributions.
func (c *Check) CoinToss() ([]byte, error) {
	defer timing.Scope(c.log, c.metrics, "check.coin")()

	contribution := make([]byte, prg.SeedSize)
	if _, err := rand.Read(contribution); err != nil {
		return nil, fmt.Errorf("check: sampling coin contribution: %w", err)
	}

	commitment, decommitment, err := hash.New(coinDomain).Commit(c.id, contribution)
	if err != nil {
		return nil, fmt.Errorf("check: committing to coin: %w", err)
	}

	for i := 0; i < c.n; i++ {
		if err := c.net.SendBytes(i, commitment); err != nil {
			return nil, fmt.Errorf("check: broadcasting coin commitment: %w", err)
		}
	}
	commitments := make([]hash.Commitment, c.n)
	for i := 0; i < c.n; i++ {
		cm, err := c.net.RecvBytes(i, hash.DigestSize)
		if err != nil {
			return nil, fmt.Errorf("check: receiving coin commitment from %d: %w", i, err)
		}
		commitments[i] = cm
	}

	payload, err := cbor.Marshal(coinReveal{Contribution: contribution, Decommitment: decommitment})
	if err != nil {
		return nil, fmt.Errorf("check: encoding coin reveal: %w", err)
	}
	frame := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[4:], payload)
	for i := 0; i < c.n; i++ {
		if err := c.net.SendBytes(i, frame); err != nil {
			return nil, fmt.Errorf("check: broadcasting coin reveal: %w", err)
		}
	}

	seed := make([]byte, prg.SeedSize)
	for i := 0; i < c.n; i++ {
		lp, err := c.net.RecvBytes(i, 4)
		if err != nil {
			return nil, fmt.Errorf("check: receiving coin reveal from %d: %w", i, err)
		}
		size := binary.LittleEndian.Uint32(lp)
		if size > maxRevealFrame {
			return nil, fmt.Errorf("%w: oversized coin reveal from %d", ErrVerificationFailed, i)
		}
		body, err := c.net.RecvBytes(i, int(size))
		if err != nil {
			return nil, fmt.Errorf("check: receiving coin reveal from %d: %w", i, err)
		}
		var reveal coinReveal
		if err := cbor.Unmarshal(body, &reveal); err != nil {
			return nil, fmt.Errorf("%w: bad coin reveal from %d", ErrVerificationFailed, i)
		}
		if len(reveal.Contribution) != prg.SeedSize {
			return nil, fmt.Errorf("%w: bad coin contribution from %d", ErrVerificationFailed, i)
		}
		ok := hash.New(coinDomain).Decommit(
			hash.Commitment(commitments[i]),
			hash.Decommitment(reveal.Decommitment),
			i, reveal.Contribution)
		if !ok {
			return nil, fmt.Errorf("%w: coin decommitment from %d does not verify", ErrVerificationFailed, i)
		}
		for j := range seed {
			seed[j] ^= reveal.Contribution[j]
		}
	}
	return seed, nil
}

// ComputeRandomCoefficients expands the agreed seed into one coefficient
// per recorded multiplication.
func (c *Check) ComputeRandomCoefficients(seed []byte) error {
	g, err := prg.New(seed)
	if err != nil {
		return fmt.Errorf("check: seeding coefficient PRG: %w", err)
	}
	c.coeffs = g.Elements(c.rep.Field(), c.count)
	return nil
}

// SetCoefficients installs the coefficients directly, bypassing the coin
// toss. Intended for tests with pinned coefficients.
func (c *Check) SetCoefficients(coeffs []field.Element) error {
	if len(coeffs) != c.count {
		return fmt.Errorf("check: got %d coefficients for %d multiplications", len(coeffs), c.count)
	}
	c.coeffs = coeffs
	return nil
}

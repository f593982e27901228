package hash

import (
	"bytes"
	"crypto/rand"
	"fmt"
)

type (
	// Commitment is the digest half of a commit/decommit pair.
	Commitment []byte
	// Decommitment is the random opening half.
	Decommitment []byte
)

// Validate checks the commitment width.
func (c Commitment) Validate() error {
	if len(c) != DigestSize {
		return fmt.Errorf("commitment: incorrect length (got %d, expected %d)", len(c), DigestSize)
	}
	return nil
}

// Validate checks the decommitment width.
func (d Decommitment) Validate() error {
	if len(d) != DigestSize {
		return fmt.Errorf("decommitment: incorrect length (got %d, expected %d)", len(d), DigestSize)
	}
	return nil
}

// Commit returns a commitment to data and the decommitment string such
// that commitment = h(data, decommitment).
func (hash *Hash) Commit(data ...interface{}) (Commitment, Decommitment, error) {
	decommitment := Decommitment(make([]byte, DigestSize))
	if _, err := rand.Read(decommitment); err != nil {
		return nil, nil, fmt.Errorf("hash: generating decommitment: %w", err)
	}

	h := hash.Clone()
	for _, item := range data {
		if err := h.WriteAny(item); err != nil {
			return nil, nil, fmt.Errorf("hash: committing: %w", err)
		}
	}
	_ = h.WriteAny([]byte(decommitment))

	return h.Sum(), decommitment, nil
}

// Decommit verifies that c opens to data under d.
func (hash *Hash) Decommit(c Commitment, d Decommitment, data ...interface{}) bool {
	if c.Validate() != nil || d.Validate() != nil {
		return false
	}
	h := hash.Clone()
	for _, item := range data {
		if err := h.WriteAny(item); err != nil {
			return false
		}
	}
	_ = h.WriteAny([]byte(d))
	return bytes.Equal(c, h.Sum())
}

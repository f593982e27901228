// Package hash wraps blake3 with the small amount of structure the
// protocol suite needs: domain-separated writes of the types that appear
// in transcripts, fixed-width digests, and a commit/decommit pair used by
// the coin-tossing ceremony.
package hash

import (
	"encoding/binary"
	"fmt"

	"github.com/anderspkd/ccs-DEN22/pkg/math/field"
	"github.com/zeebo/blake3"
)

// DigestSize is the width of every digest produced here.
const DigestSize = 32

// Hash is an incremental hash over protocol data.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash keyed only by the given domain string.
func New(domain string) *Hash {
	h := &Hash{h: blake3.New()}
	_ = h.WriteAny([]byte(domain))
	return h
}

// WriteAny absorbs data into the hash state. Supported types: []byte,
// field.Element, []field.Element, uint64 and int. Each item is
// length-prefixed so that adjacent writes cannot be confused.
func (hash *Hash) WriteAny(data ...interface{}) error {
	for _, d := range data {
		switch t := d.(type) {
		case []byte:
			hash.writeChunk(t)
		case field.Element:
			hash.writeChunk(t.Bytes())
		case []field.Element:
			hash.writeChunk(field.VectorToBytes(t))
		case uint64:
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], t)
			hash.writeChunk(buf[:])
		case int:
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], uint64(t))
			hash.writeChunk(buf[:])
		default:
			return fmt.Errorf("hash: unsupported type %T", d)
		}
	}
	return nil
}

func (hash *Hash) writeChunk(b []byte) {
	var lp [4]byte
	binary.LittleEndian.PutUint32(lp[:], uint32(len(b)))
	_, _ = hash.h.Write(lp[:])
	_, _ = hash.h.Write(b)
}

// Sum returns the digest of the current state without consuming it.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestSize)
	d := hash.h.Clone().Digest()
	if _, err := d.Read(out); err != nil {
		panic(fmt.Sprintf("hash: internal digest failure: %v", err))
	}
	return out
}

// Clone returns an independent copy of the current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}

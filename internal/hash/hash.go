package hash

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

const DigestLengthBytes = 32

// Hash is the hash function we use for transcript digests, signing payloads and
// Fiat-Shamir style coefficients.
//
// Internally, this is a wrapper around blake3, whose extendable output lets us
// read as many bytes as a caller needs.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash whose state is initialized with the given domain.
func New(domain string) *Hash {
	hash := &Hash{h: blake3.New()}
	_ = writeWithDomain(hash.h, BytesWithDomain{
		TheDomain: "Domain",
		Bytes:     []byte(domain),
	})
	return hash
}

// Digest returns a reader for the current output of the function.
//
// This finalizes the current state of the hash, and returns what's
// essentially a stream of random bytes.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
// If a different length is required, use io.ReadFull(hash.Digest(), out) instead.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// WriteAny takes many different data types and writes them to the hash state.
//
// Currently supported types:
//
//   - []byte
//   - string
//   - int, uint64
//   - hash.WriterToWithDomain
//
// This function will apply its own domain separation for the first types.
// The last type already suggests which domain to use, and this function respects it.
func (hash *Hash) WriteAny(data ...interface{}) error {
	var err error
	for _, d := range data {
		switch t := d.(type) {
		case []byte:
			err = writeWithDomain(hash.h, BytesWithDomain{
				TheDomain: "[]byte",
				Bytes:     t,
			})
			if err != nil {
				return fmt.Errorf("hash.Hash: write []byte: %w", err)
			}
		case string:
			err = writeWithDomain(hash.h, BytesWithDomain{
				TheDomain: "string",
				Bytes:     []byte(t),
			})
			if err != nil {
				return fmt.Errorf("hash.Hash: write string: %w", err)
			}
		case int:
			if t < 0 {
				return fmt.Errorf("hash.Hash: write int: negative value %d", t)
			}
			if err = hash.writeUint64(uint64(t)); err != nil {
				return fmt.Errorf("hash.Hash: write int: %w", err)
			}
		case uint64:
			if err = hash.writeUint64(t); err != nil {
				return fmt.Errorf("hash.Hash: write uint64: %w", err)
			}
		case WriterToWithDomain:
			if err = writeWithDomain(hash.h, t); err != nil {
				return fmt.Errorf("hash.Hash: write io.WriterTo: %w", err)
			}
		default:
			panic(fmt.Sprintf("hash.Hash: unsupported type %T", d))
		}
	}
	return nil
}

func (hash *Hash) writeUint64(v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return writeWithDomain(hash.h, BytesWithDomain{
		TheDomain: "uint64",
		Bytes:     buf[:],
	})
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}

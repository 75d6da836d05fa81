// Package group holds the wire representation of BLS12-381 points used by the ceremony.
//
// Points are kept in their compressed ZCash encoding. Nothing in this package
// decodes them into curve arithmetic; that is the job of an engine.
package group

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/taurusgroup/kzg-ceremony/internal/params"
)

// G1 is a compressed point of the first BLS12-381 group.
type G1 [params.BytesG1]byte

// G2 is a compressed point of the second BLS12-381 group.
type G2 [params.BytesG2]byte

var (
	// G1Zero and G2Zero are the compressed points at infinity.
	G1Zero, G2Zero = zeroG1(), zeroG2()
	// G1One and G2One are the standard generators.
	G1One, G2One = generators()
)

var errHexPrefix = errors.New("missing 0x prefix")

func zeroG1() G1 {
	var p G1
	p[0] = 0xc0
	return p
}

func zeroG2() G2 {
	var p G2
	p[0] = 0xc0
	return p
}

func generators() (G1, G2) {
	_, _, g1, g2 := bls12381.Generators()
	return G1(g1.Bytes()), G2(g2.Bytes())
}

// IsZero reports whether p is the encoding of the point at infinity.
func (p G1) IsZero() bool { return p == G1Zero }

// IsZero reports whether p is the encoding of the point at infinity.
func (p G2) IsZero() bool { return p == G2Zero }

// String returns the 0x-prefixed hex encoding.
func (p G1) String() string { return hexutil.Encode(p[:]) }

// String returns the 0x-prefixed hex encoding.
func (p G2) String() string { return hexutil.Encode(p[:]) }

// MarshalText implements encoding.TextMarshaler.
func (p G1) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// MarshalText implements encoding.TextMarshaler.
func (p G2) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *G1) UnmarshalText(text []byte) error {
	return decodeHex("group.G1", text, p[:])
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *G2) UnmarshalText(text []byte) error {
	return decodeHex("group.G2", text, p[:])
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p G1) MarshalBinary() ([]byte, error) { return bytes.Clone(p[:]), nil }

// MarshalBinary implements encoding.BinaryMarshaler.
func (p G2) MarshalBinary() ([]byte, error) { return bytes.Clone(p[:]), nil }

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *G1) UnmarshalBinary(data []byte) error {
	if len(data) != params.BytesG1 {
		return fmt.Errorf("group.G1: incorrect length (got %d, expected %d)", len(data), params.BytesG1)
	}
	copy(p[:], data)
	return nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *G2) UnmarshalBinary(data []byte) error {
	if len(data) != params.BytesG2 {
		return fmt.Errorf("group.G2: incorrect length (got %d, expected %d)", len(data), params.BytesG2)
	}
	copy(p[:], data)
	return nil
}

// WriteTo implements io.WriterTo.
func (p G1) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p[:])
	return int64(n), err
}

// WriteTo implements io.WriterTo.
func (p G2) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p[:])
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (G1) Domain() string { return "BLS12-381 G1" }

// Domain implements hash.WriterToWithDomain.
func (G2) Domain() string { return "BLS12-381 G2" }

func decodeHex(name string, text, out []byte) error {
	if len(text) < 2 || text[0] != '0' || (text[1] != 'x' && text[1] != 'X') {
		return fmt.Errorf("%s: %w", name, errHexPrefix)
	}
	data, err := hexutil.Decode(string(text))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if len(data) != len(out) {
		return fmt.Errorf("%s: incorrect length (got %d, expected %d)", name, len(data), len(out))
	}
	copy(out, data)
	return nil
}

// CloneG1 returns a copy of points.
func CloneG1(points []G1) []G1 {
	if points == nil {
		return nil
	}
	out := make([]G1, len(points))
	copy(out, points)
	return out
}

// CloneG2 returns a copy of points.
func CloneG2(points []G2) []G2 {
	if points == nil {
		return nil
	}
	out := make([]G2, len(points))
	copy(out, points)
	return out
}

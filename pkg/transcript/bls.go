package transcript

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/taurusgroup/kzg-ceremony/internal/params"
	"github.com/taurusgroup/kzg-ceremony/pkg/group"
)

// BLSSignature is the optional signature of a round's identity by that round's tau.
//
// The zero value is the empty signature, encoded as "" in JSON.
type BLSSignature struct {
	point group.G1
	set   bool
}

// EmptyBLSSignature is recorded when a participant did not sign their identity.
var EmptyBLSSignature = BLSSignature{}

var errBLSSignatureLength = errors.New("transcript: invalid BLS signature length")

// NewBLSSignature wraps a signature produced by an engine.
func NewBLSSignature(p group.G1) BLSSignature {
	return BLSSignature{point: p, set: true}
}

// IsEmpty reports whether no signature is present.
func (s BLSSignature) IsEmpty() bool { return !s.set }

// Point returns the signature as a G1 point. It must not be called on an empty signature.
func (s BLSSignature) Point() group.G1 { return s.point }

func (s BLSSignature) String() string {
	if !s.set {
		return ""
	}
	return s.point.String()
}

// MarshalText implements encoding.TextMarshaler.
func (s BLSSignature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *BLSSignature) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = EmptyBLSSignature
		return nil
	}
	b, err := hexutil.Decode(string(text))
	if err != nil {
		return fmt.Errorf("transcript: BLS signature: %w", err)
	}
	return s.UnmarshalBinary(b)
}

// MarshalBinary implements encoding.BinaryMarshaler. The empty signature has no bytes.
func (s BLSSignature) MarshalBinary() ([]byte, error) {
	if !s.set {
		return []byte{}, nil
	}
	return bytes.Clone(s.point[:]), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *BLSSignature) UnmarshalBinary(data []byte) error {
	switch len(data) {
	case 0:
		*s = EmptyBLSSignature
	case params.BytesG1:
		s.set = true
		copy(s.point[:], data)
	default:
		return fmt.Errorf("%w: %d", errBLSSignatureLength, len(data))
	}
	return nil
}

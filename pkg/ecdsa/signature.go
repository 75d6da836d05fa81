// Package ecdsa implements the Ethereum account signatures participants attach
// to their batch contributions.
package ecdsa

import (
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the size of an r || s || v signature.
const SignatureLength = 65

var (
	ErrInvalidSignature   = errors.New("ecdsa: invalid signature")
	ErrSignatureMismatch  = errors.New("ecdsa: signature does not match identity")
	ErrMissingSignature   = errors.New("ecdsa: missing signature")
	errInvalidEncoding    = errors.New("ecdsa: invalid signature encoding")
	compactRecoveryOffset = byte(27)
)

// Signature is a recoverable secp256k1 signature laid out as r || s || v, with v in {27, 28}.
//
// The zero value is Empty, recorded for participants who did not sign.
type Signature [SignatureLength]byte

// Empty marks the absence of a signature.
var Empty Signature

// IsEmpty reports whether s is the Empty sentinel.
func (s Signature) IsEmpty() bool { return s == Empty }

// GenerateKey returns a fresh secp256k1 private key.
func GenerateKey() (*secp256k1.PrivateKey, error) {
	return secp256k1.GeneratePrivateKey()
}

// Address derives the Ethereum account of a public key.
func Address(pub *secp256k1.PublicKey) common.Address {
	return common.BytesToAddress(crypto.Keccak256(pub.SerializeUncompressed()[1:])[12:])
}

// Sign signs message the way an Ethereum wallet signs with personal_sign.
func Sign(key *secp256k1.PrivateKey, message []byte) Signature {
	compact := secpecdsa.SignCompact(key, accounts.TextHash(message), false)
	var sig Signature
	copy(sig[:64], compact[1:])
	sig[64] = compact[0]
	return sig
}

// RecoverAddress returns the account which produced sig over message.
func RecoverAddress(sig Signature, message []byte) (common.Address, error) {
	if sig.IsEmpty() {
		return common.Address{}, ErrMissingSignature
	}
	v := sig[64]
	if v < compactRecoveryOffset {
		v += compactRecoveryOffset
	}
	if v != 27 && v != 28 {
		return common.Address{}, fmt.Errorf("%w: recovery id %d", ErrInvalidSignature, sig[64])
	}
	compact := make([]byte, SignatureLength)
	compact[0] = v
	copy(compact[1:], sig[:64])
	pub, _, err := secpecdsa.RecoverCompact(compact, accounts.TextHash(message))
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return Address(pub), nil
}

// Verify checks that sig over message was produced by address.
func Verify(sig Signature, message []byte, address common.Address) error {
	recovered, err := RecoverAddress(sig, message)
	if err != nil {
		return err
	}
	if recovered != address {
		return fmt.Errorf("%w: signed by %s, expected %s", ErrSignatureMismatch, recovered.Hex(), address.Hex())
	}
	return nil
}

// String returns the 0x-prefixed hex form, or "" for Empty.
func (s Signature) String() string {
	if s.IsEmpty() {
		return ""
	}
	return hexutil.Encode(s[:])
}

// MarshalText implements encoding.TextMarshaler.
func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Signature) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = Empty
		return nil
	}
	b, err := hexutil.Decode(string(text))
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidEncoding, err)
	}
	return s.UnmarshalBinary(b)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Signature) MarshalBinary() ([]byte, error) {
	out := make([]byte, SignatureLength)
	copy(out, s[:])
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Signature) UnmarshalBinary(data []byte) error {
	if len(data) != SignatureLength {
		return fmt.Errorf("%w: got %d bytes", errInvalidEncoding, len(data))
	}
	copy(s[:], data)
	return nil
}

// WriteTo implements io.WriterTo.
func (s Signature) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s[:])
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (Signature) Domain() string { return "ECDSA Signature" }

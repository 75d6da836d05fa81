package engine

import (
	"errors"
	"fmt"
	"hash"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/kzg-ceremony/internal/params"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrShortEntropy = errors.New("engine: not enough entropy")
	ErrZeroTau      = errors.New("engine: tau is zero")
)

var order = saferith.ModulusFromBytes(fr.Modulus().Bytes())

// Tau is a participant's secret contribution to one transcript.
//
// It must be discarded as soon as the contribution is computed.
type Tau struct {
	e fr.Element
}

// GenerateTau derives a non-zero tau from participant entropy.
//
// The entropy is expanded with HKDF over blake3 into twice the size of the scalar field,
// and then reduced modulo the group order in constant time.
func GenerateTau(entropy []byte) (*Tau, error) {
	if len(entropy) < params.MinEntropyBytes {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrShortEntropy, len(entropy), params.MinEntropyBytes)
	}
	kdf := hkdf.New(func() hash.Hash { return blake3.New() }, entropy, nil, []byte(params.DomainTau))
	seed := make([]byte, params.BytesTauSeed)
	if _, err := io.ReadFull(kdf, seed); err != nil {
		return nil, fmt.Errorf("engine: expand entropy: %w", err)
	}

	n := new(saferith.Nat).SetBytes(seed)
	n.Mod(n, order)

	var t Tau
	t.e.SetBytes(n.Bytes())
	if t.e.IsZero() {
		return nil, ErrZeroTau
	}
	return &t, nil
}

// Zeroize overwrites the secret.
func (t *Tau) Zeroize() {
	t.e.SetZero()
}

// powers returns [τ⁰, τ¹, …, τⁿ⁻¹].
func (t *Tau) powers(n int) []fr.Element {
	out := make([]fr.Element, n)
	if n == 0 {
		return out
	}
	out[0].SetOne()
	for i := 1; i < n; i++ {
		out[i].Mul(&out[i-1], &t.e)
	}
	return out
}

func (t *Tau) bigInt() *big.Int {
	return t.e.BigInt(new(big.Int))
}

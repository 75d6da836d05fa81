package engine

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/taurusgroup/kzg-ceremony/internal/params"
	"github.com/taurusgroup/kzg-ceremony/pkg/group"
	"github.com/taurusgroup/kzg-ceremony/pkg/pool"
)

// Batched folds all relations of a check into a single pairing equation, using random coefficients.
//
// A relation which does not hold survives the random linear combination with probability 1/r.
type Batched struct {
	rand io.Reader
}

// NewBatched returns a Batched engine drawing its coefficients from r.
//
// r is wrapped so that it can be shared by concurrent verifications. If r is nil, crypto/rand is used.
func NewBatched(r io.Reader) *Batched {
	if r == nil {
		r = rand.Reader
	}
	return &Batched{rand: pool.NewLockedReader(r)}
}

func (*Batched) Name() string { return NameBatched }

var msmConfig = ecc.MultiExpConfig{NbTasks: 1}

func (e *Batched) coefficients(n int) ([]fr.Element, error) {
	buf := make([]byte, params.SecBytes)
	out := make([]fr.Element, n)
	for i := range out {
		if _, err := io.ReadFull(e.rand, buf); err != nil {
			return nil, fmt.Errorf("engine: sample coefficient: %w", err)
		}
		out[i].SetBytes(buf)
	}
	return out, nil
}

// equalPairings verifies e(a, b) = e(c, d) by computing both sides in GT.
func equalPairings(a *bls12381.G1Affine, b *bls12381.G2Affine, c *bls12381.G1Affine, d *bls12381.G2Affine) (bool, error) {
	left, err := bls12381.Pair([]bls12381.G1Affine{*a}, []bls12381.G2Affine{*b})
	if err != nil {
		return false, fmt.Errorf("engine: pairing: %w", err)
	}
	right, err := bls12381.Pair([]bls12381.G1Affine{*c}, []bls12381.G2Affine{*d})
	if err != nil {
		return false, fmt.Errorf("engine: pairing: %w", err)
	}
	return left.Equal(&right), nil
}

func (e *Batched) ValidateG1(points []group.G1) error {
	ps, err := decodeG1s(points)
	if err != nil {
		return err
	}
	for i := range ps {
		if ps[i].IsInfinity() {
			return &PointError{Index: i, Err: ErrZeroPoint}
		}
	}
	return nil
}

func (e *Batched) ValidateG2(points []group.G2) error {
	ps, err := decodeG2s(points)
	if err != nil {
		return err
	}
	for i := range ps {
		if ps[i].IsInfinity() {
			return &PointError{Index: i, Err: ErrZeroPoint}
		}
	}
	return nil
}

func (e *Batched) VerifyPubkey(tau, previous group.G1, pubkey group.G2) error {
	t, err := decodeG1(tau)
	if err != nil {
		return err
	}
	prev, err := decodeG1(previous)
	if err != nil {
		return err
	}
	pk, err := decodeG2(pubkey)
	if err != nil {
		return err
	}
	ok, err := equalPairings(&t, &g2Gen, &prev, &pk)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPubkeyPairing
	}
	return nil
}

// VerifyG1 checks e(∑ rᵢ⋅powers[i+1], G₂) = e(∑ rᵢ⋅powers[i], [τ]₂).
func (e *Batched) VerifyG1(powers []group.G1, tau group.G2) error {
	ps, err := decodeG1s(powers)
	if err != nil {
		return err
	}
	t, err := decodeG2(tau)
	if err != nil {
		return err
	}
	if len(ps) < 2 {
		return nil
	}
	r, err := e.coefficients(len(ps) - 1)
	if err != nil {
		return err
	}
	var lhs, rhs bls12381.G1Affine
	if _, err = lhs.MultiExp(ps[1:], r, msmConfig); err != nil {
		return fmt.Errorf("engine: multi exponentiation: %w", err)
	}
	if _, err = rhs.MultiExp(ps[:len(ps)-1], r, msmConfig); err != nil {
		return fmt.Errorf("engine: multi exponentiation: %w", err)
	}
	ok, err := equalPairings(&lhs, &g2Gen, &rhs, &t)
	if err != nil {
		return err
	}
	if !ok {
		return ErrG1Pairing
	}
	return nil
}

// VerifyG2 checks e(∑ rᵢ⋅g1[i], G₂) = e(G₁, ∑ rᵢ⋅g2[i]).
func (e *Batched) VerifyG2(g1 []group.G1, g2 []group.G2) error {
	if len(g2) > len(g1) {
		return ErrTooManyG2Powers
	}
	if len(g2) == 0 {
		return nil
	}
	a, err := decodeG1s(g1[:len(g2)])
	if err != nil {
		return err
	}
	b, err := decodeG2s(g2)
	if err != nil {
		return err
	}
	r, err := e.coefficients(len(g2))
	if err != nil {
		return err
	}
	var lhs bls12381.G1Affine
	var rhs bls12381.G2Affine
	if _, err = lhs.MultiExp(a, r, msmConfig); err != nil {
		return fmt.Errorf("engine: multi exponentiation: %w", err)
	}
	if _, err = rhs.MultiExp(b, r, msmConfig); err != nil {
		return fmt.Errorf("engine: multi exponentiation: %w", err)
	}
	ok, err := equalPairings(&lhs, &g2Gen, &g1Gen, &rhs)
	if err != nil {
		return err
	}
	if !ok {
		return ErrG2Pairing
	}
	return nil
}

// AddTauG1 multiplies in jacobian coordinates and normalizes with a single batched inversion.
func (e *Batched) AddTauG1(tau *Tau, powers []group.G1) error {
	ps, err := decodeG1s(powers)
	if err != nil {
		return err
	}
	taus := tau.powers(len(ps))
	jac := make([]bls12381.G1Jac, len(ps))
	for i := range ps {
		jac[i].FromAffine(&ps[i])
		jac[i].ScalarMultiplication(&jac[i], frToBig(&taus[i]))
	}
	for i, a := range bls12381.BatchJacobianToAffineG1(jac) {
		powers[i] = a.Bytes()
	}
	return nil
}

func (e *Batched) AddTauG2(tau *Tau, powers []group.G2) error {
	ps, err := decodeG2s(powers)
	if err != nil {
		return err
	}
	taus := tau.powers(len(ps))
	var jac bls12381.G2Jac
	for i := range ps {
		jac.FromAffine(&ps[i])
		jac.ScalarMultiplication(&jac, frToBig(&taus[i]))
		ps[i].FromJacobian(&jac)
		powers[i] = ps[i].Bytes()
	}
	return nil
}

func (e *Batched) SignMessage(tau *Tau, message []byte) (group.G1, error) {
	h, err := hashToG1(message)
	if err != nil {
		return group.G1Zero, err
	}
	var jac bls12381.G1Jac
	jac.FromAffine(&h)
	jac.ScalarMultiplication(&jac, tau.bigInt())
	h.FromJacobian(&jac)
	return h.Bytes(), nil
}

func (e *Batched) VerifySignature(sig group.G1, message []byte, pubkey group.G2) error {
	s, err := decodeG1(sig)
	if err != nil {
		return err
	}
	pk, err := decodeG2(pubkey)
	if err != nil {
		return err
	}
	h, err := hashToG1(message)
	if err != nil {
		return err
	}
	ok, err := equalPairings(&s, &g2Gen, &h, &pk)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidSignature
	}
	return nil
}

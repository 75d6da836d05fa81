package engine

import (
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/taurusgroup/kzg-ceremony/pkg/group"
)

// Pairing is the reference engine.
//
// Every relation is checked with its own pairing product, and every power is
// multiplied separately. It is slow, but each step is easy to audit.
type Pairing struct{}

func (Pairing) Name() string { return NamePairing }

func (Pairing) ValidateG1(points []group.G1) error {
	for i, p := range points {
		a, err := decodeG1(p)
		if err != nil {
			return &PointError{Index: i, Err: err}
		}
		if a.IsInfinity() {
			return &PointError{Index: i, Err: ErrZeroPoint}
		}
	}
	return nil
}

func (Pairing) ValidateG2(points []group.G2) error {
	for i, p := range points {
		a, err := decodeG2(p)
		if err != nil {
			return &PointError{Index: i, Err: err}
		}
		if a.IsInfinity() {
			return &PointError{Index: i, Err: ErrZeroPoint}
		}
	}
	return nil
}

// pairingCheck verifies e(a, b) = e(c, d).
func pairingCheck(a *bls12381.G1Affine, b *bls12381.G2Affine, c *bls12381.G1Affine, d *bls12381.G2Affine) (bool, error) {
	var negC bls12381.G1Affine
	negC.Neg(c)
	return bls12381.PairingCheck(
		[]bls12381.G1Affine{*a, negC},
		[]bls12381.G2Affine{*b, *d},
	)
}

func (Pairing) VerifyPubkey(tau, previous group.G1, pubkey group.G2) error {
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
	ok, err := pairingCheck(&t, &g2Gen, &prev, &pk)
	if err != nil {
		return fmt.Errorf("engine: pairing: %w", err)
	}
	if !ok {
		return ErrPubkeyPairing
	}
	return nil
}

func (Pairing) VerifyG1(powers []group.G1, tau group.G2) error {
	ps, err := decodeG1s(powers)
	if err != nil {
		return err
	}
	t, err := decodeG2(tau)
	if err != nil {
		return err
	}
	for i := 0; i+1 < len(ps); i++ {
		ok, err := pairingCheck(&ps[i+1], &g2Gen, &ps[i], &t)
		if err != nil {
			return fmt.Errorf("engine: pairing: %w", err)
		}
		if !ok {
			return &PointError{Index: i + 1, Err: ErrG1Pairing}
		}
	}
	return nil
}

func (Pairing) VerifyG2(g1 []group.G1, g2 []group.G2) error {
	if len(g2) > len(g1) {
		return ErrTooManyG2Powers
	}
	for i := range g2 {
		a, err := decodeG1(g1[i])
		if err != nil {
			return &PointError{Index: i, Err: err}
		}
		b, err := decodeG2(g2[i])
		if err != nil {
			return &PointError{Index: i, Err: err}
		}
		ok, err := pairingCheck(&a, &g2Gen, &g1Gen, &b)
		if err != nil {
			return fmt.Errorf("engine: pairing: %w", err)
		}
		if !ok {
			return &PointError{Index: i, Err: ErrG2Pairing}
		}
	}
	return nil
}

func (Pairing) AddTauG1(tau *Tau, powers []group.G1) error {
	ps, err := decodeG1s(powers)
	if err != nil {
		return err
	}
	taus := tau.powers(len(ps))
	for i := range ps {
		ps[i].ScalarMultiplication(&ps[i], frToBig(&taus[i]))
		powers[i] = ps[i].Bytes()
	}
	return nil
}

func (Pairing) AddTauG2(tau *Tau, powers []group.G2) error {
	ps, err := decodeG2s(powers)
	if err != nil {
		return err
	}
	taus := tau.powers(len(ps))
	for i := range ps {
		ps[i].ScalarMultiplication(&ps[i], frToBig(&taus[i]))
		powers[i] = ps[i].Bytes()
	}
	return nil
}

func (Pairing) SignMessage(tau *Tau, message []byte) (group.G1, error) {
	h, err := hashToG1(message)
	if err != nil {
		return group.G1Zero, err
	}
	h.ScalarMultiplication(&h, tau.bigInt())
	return h.Bytes(), nil
}

func (Pairing) VerifySignature(sig group.G1, message []byte, pubkey group.G2) error {
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
	ok, err := pairingCheck(&s, &g2Gen, &h, &pk)
	if err != nil {
		return fmt.Errorf("engine: pairing: %w", err)
	}
	if !ok {
		return ErrInvalidSignature
	}
	return nil
}

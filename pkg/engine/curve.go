package engine

import (
	"fmt"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/taurusgroup/kzg-ceremony/internal/params"
	"github.com/taurusgroup/kzg-ceremony/pkg/group"
)

var g1Gen, g2Gen = generators()

func generators() (bls12381.G1Affine, bls12381.G2Affine) {
	_, _, g1, g2 := bls12381.Generators()
	return g1, g2
}

// decodeG1 decompresses p, including the subgroup check.
// The identity is accepted and must be rejected by the caller where needed.
func decodeG1(p group.G1) (bls12381.G1Affine, error) {
	var a bls12381.G1Affine
	if _, err := a.SetBytes(p[:]); err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return a, nil
}

func decodeG2(p group.G2) (bls12381.G2Affine, error) {
	var a bls12381.G2Affine
	if _, err := a.SetBytes(p[:]); err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return a, nil
}

func decodeG1s(points []group.G1) ([]bls12381.G1Affine, error) {
	out := make([]bls12381.G1Affine, len(points))
	for i := range points {
		a, err := decodeG1(points[i])
		if err != nil {
			return nil, &PointError{Index: i, Err: err}
		}
		out[i] = a
	}
	return out, nil
}

func decodeG2s(points []group.G2) ([]bls12381.G2Affine, error) {
	out := make([]bls12381.G2Affine, len(points))
	for i := range points {
		a, err := decodeG2(points[i])
		if err != nil {
			return nil, &PointError{Index: i, Err: err}
		}
		out[i] = a
	}
	return out, nil
}

func hashToG1(message []byte) (bls12381.G1Affine, error) {
	h, err := bls12381.HashToG1(message, []byte(params.DomainIdentity))
	if err != nil {
		return h, fmt.Errorf("engine: hash to curve: %w", err)
	}
	return h, nil
}

func frToBig(e *fr.Element) *big.Int {
	return e.BigInt(new(big.Int))
}

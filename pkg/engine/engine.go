// Package engine contains the cryptographic backends which verify and update the powers of a transcript.
//
// Two backends are provided, Pairing and Batched, which check the same relations
// with different algorithms. Both composes two engines and only accepts what both accept.
package engine

import (
	"errors"
	"fmt"
	"io"

	"github.com/taurusgroup/kzg-ceremony/pkg/group"
)

// Engine is the capability used to check and update a single transcript.
//
// Verification methods must not modify their arguments, so that they may be called
// concurrently on distinct transcripts.
type Engine interface {
	// Name identifies the engine in logs and errors.
	Name() string

	// ValidateG1 checks that every point decodes, lies in the prime order subgroup, and is not the identity.
	ValidateG1(points []group.G1) error
	// ValidateG2 checks that every point decodes, lies in the prime order subgroup, and is not the identity.
	ValidateG2(points []group.G2) error

	// VerifyPubkey checks e(tau, G₂) = e(previous, pubkey), i.e. tau = pubkey ⋅ previous.
	VerifyPubkey(tau, previous group.G1, pubkey group.G2) error
	// VerifyG1 checks that consecutive powers all have ratio [τ], where tau = [τ]₂.
	VerifyG1(powers []group.G1, tau group.G2) error
	// VerifyG2 checks that g2[i] and g1[i] hold the same power of τ, for all i < len(g2).
	VerifyG2(g1 []group.G1, g2 []group.G2) error

	// AddTauG1 replaces powers[i] by τⁱ⋅powers[i].
	AddTauG1(tau *Tau, powers []group.G1) error
	// AddTauG2 replaces powers[i] by τⁱ⋅powers[i].
	AddTauG2(tau *Tau, powers []group.G2) error

	// SignMessage computes the BLS signature τ⋅H(message).
	SignMessage(tau *Tau, message []byte) (group.G1, error)
	// VerifySignature checks e(sig, G₂) = e(H(message), pubkey).
	VerifySignature(sig group.G1, message []byte, pubkey group.G2) error
}

var (
	ErrInvalidPoint        = errors.New("engine: invalid point encoding")
	ErrZeroPoint           = errors.New("engine: point is the identity")
	ErrPubkeyPairing       = errors.New("engine: pubkey pairing check failed")
	ErrG1Pairing           = errors.New("engine: G1 powers pairing check failed")
	ErrG2Pairing           = errors.New("engine: G2 powers pairing check failed")
	ErrInvalidSignature    = errors.New("engine: invalid BLS signature")
	ErrTooManyG2Powers     = errors.New("engine: more G2 powers than G1 powers")
	ErrBackendDisagreement = errors.New("engine: backends disagree")
)

// PointError identifies the point of a slice which failed validation.
type PointError struct {
	Index int
	Err   error
}

func (e *PointError) Error() string {
	return fmt.Sprintf("point %d: %s", e.Index, e.Err)
}

func (e *PointError) Unwrap() error {
	return e.Err
}

// Names of the available engines, as accepted by ByName.
const (
	NamePairing = "pairing"
	NameBatched = "batched"
	NameBoth    = "both"
)

// ByName returns the engine registered under name.
//
// rand is the randomness source used by the Batched engine for its coefficients.
// If rand is nil, crypto/rand is used.
func ByName(name string, rand io.Reader) (Engine, error) {
	switch name {
	case NamePairing:
		return Pairing{}, nil
	case NameBatched:
		return NewBatched(rand), nil
	case NameBoth:
		return Both{A: Pairing{}, B: NewBatched(rand)}, nil
	default:
		return nil, fmt.Errorf("engine: unknown engine %q", name)
	}
}

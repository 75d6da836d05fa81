package engine

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/taurusgroup/kzg-ceremony/pkg/group"
)

// Both runs every operation on two engines and only succeeds if they agree.
//
// When exactly one engine rejects, or when their outputs differ, the result is a
// *DisagreementError. This signals a bug in one of the backends rather than a bad
// contribution.
type Both struct {
	A, B Engine
}

// DisagreementError is returned by Both when its engines do not agree.
type DisagreementError struct {
	// Op is the engine method on which the disagreement occurred.
	Op string
	// A and B are the names of the engines.
	A, B string
	// Err holds the outcome of each engine.
	Err error
}

func (e *DisagreementError) Error() string {
	return fmt.Sprintf("engine: %s and %s disagree on %s: %s", e.A, e.B, e.Op, e.Err)
}

func (e *DisagreementError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrBackendDisagreement) hold for any disagreement.
func (e *DisagreementError) Is(target error) bool {
	return target == ErrBackendDisagreement
}

func (e Both) Name() string {
	return fmt.Sprintf("%s(%s,%s)", NameBoth, e.A.Name(), e.B.Name())
}

// agree combines the outcomes of a verification run on both engines.
func (e Both) agree(op string, errA, errB error) error {
	switch {
	case errA == nil && errB == nil:
		return nil
	case errA != nil && errB != nil:
		return errA
	}
	return e.disagree(op, errA, errB)
}

func (e Both) disagree(op string, errA, errB error) error {
	var result *multierror.Error
	for _, outcome := range []struct {
		name string
		err  error
	}{{e.A.Name(), errA}, {e.B.Name(), errB}} {
		if outcome.err == nil {
			outcome.err = errors.New("accepted")
		}
		result = multierror.Append(result, fmt.Errorf("%s: %w", outcome.name, outcome.err))
	}
	return &DisagreementError{Op: op, A: e.A.Name(), B: e.B.Name(), Err: result.ErrorOrNil()}
}

func (e Both) ValidateG1(points []group.G1) error {
	return e.agree("ValidateG1", e.A.ValidateG1(points), e.B.ValidateG1(points))
}

func (e Both) ValidateG2(points []group.G2) error {
	return e.agree("ValidateG2", e.A.ValidateG2(points), e.B.ValidateG2(points))
}

func (e Both) VerifyPubkey(tau, previous group.G1, pubkey group.G2) error {
	return e.agree("VerifyPubkey", e.A.VerifyPubkey(tau, previous, pubkey), e.B.VerifyPubkey(tau, previous, pubkey))
}

func (e Both) VerifyG1(powers []group.G1, tau group.G2) error {
	return e.agree("VerifyG1", e.A.VerifyG1(powers, tau), e.B.VerifyG1(powers, tau))
}

func (e Both) VerifyG2(g1 []group.G1, g2 []group.G2) error {
	return e.agree("VerifyG2", e.A.VerifyG2(g1, g2), e.B.VerifyG2(g1, g2))
}

func (e Both) VerifySignature(sig group.G1, message []byte, pubkey group.G2) error {
	return e.agree("VerifySignature", e.A.VerifySignature(sig, message, pubkey), e.B.VerifySignature(sig, message, pubkey))
}

func (e Both) AddTauG1(tau *Tau, powers []group.G1) error {
	other := group.CloneG1(powers)
	errA, errB := e.A.AddTauG1(tau, powers), e.B.AddTauG1(tau, other)
	if err := e.agree("AddTauG1", errA, errB); err != nil {
		return err
	}
	for i := range powers {
		if powers[i] != other[i] {
			return e.disagree("AddTauG1", nil, &PointError{Index: i, Err: errors.New("different result")})
		}
	}
	return nil
}

func (e Both) AddTauG2(tau *Tau, powers []group.G2) error {
	other := group.CloneG2(powers)
	errA, errB := e.A.AddTauG2(tau, powers), e.B.AddTauG2(tau, other)
	if err := e.agree("AddTauG2", errA, errB); err != nil {
		return err
	}
	for i := range powers {
		if powers[i] != other[i] {
			return e.disagree("AddTauG2", nil, &PointError{Index: i, Err: errors.New("different result")})
		}
	}
	return nil
}

func (e Both) SignMessage(tau *Tau, message []byte) (group.G1, error) {
	sigA, errA := e.A.SignMessage(tau, message)
	sigB, errB := e.B.SignMessage(tau, message)
	if err := e.agree("SignMessage", errA, errB); err != nil {
		return group.G1Zero, err
	}
	if sigA != sigB {
		return group.G1Zero, e.disagree("SignMessage", nil, errors.New("different signature"))
	}
	return sigA, nil
}

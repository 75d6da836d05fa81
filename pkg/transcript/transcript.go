// Package transcript holds the powers of tau of a single parameter set, and checks and
// applies contributions to them.
package transcript

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/taurusgroup/kzg-ceremony/internal/params"
	"github.com/taurusgroup/kzg-ceremony/pkg/engine"
	"github.com/taurusgroup/kzg-ceremony/pkg/group"
	"github.com/taurusgroup/kzg-ceremony/pkg/identity"
)

var ErrInvalidSize = errors.New("transcript: invalid size")

// PowersOfTau are [τⁱ]₁ for i < NumG1Powers and [τⁱ]₂ for i < NumG2Powers.
type PowersOfTau struct {
	G1 []group.G1 `json:"G1Powers"`
	G2 []group.G2 `json:"G2Powers"`
}

func (p PowersOfTau) clone() PowersOfTau {
	return PowersOfTau{G1: group.CloneG1(p.G1), G2: group.CloneG2(p.G2)}
}

// Witness is the audit trail of a transcript, with one entry per round.
// Entry 0 is the genesis state.
type Witness struct {
	// RunningProducts[k] is [τ]₁ after round k.
	RunningProducts []group.G1 `json:"runningProducts"`
	// PotPubkeys[k] is [τₖ]₂ for the secret τₖ of round k.
	PotPubkeys []group.G2 `json:"potPubkeys"`
	// BLSSignatures[k] is τₖ⋅H(identityₖ), if the participant of round k signed.
	BLSSignatures []BLSSignature `json:"blsSignatures"`
}

// Transcript is the accumulated state of one parameter set.
type Transcript struct {
	NumG1Powers int         `json:"numG1Powers"`
	NumG2Powers int         `json:"numG2Powers"`
	PowersOfTau PowersOfTau `json:"powersOfTau"`
	Witness     Witness     `json:"witness"`
}

// ValidateSize checks that a transcript of the given size can be created.
func ValidateSize(size params.Size) error {
	if size.NumG1Powers < params.MinPowers || size.NumG2Powers < params.MinPowers {
		return fmt.Errorf("%w: need at least %d powers, got (%d, %d)",
			ErrInvalidSize, params.MinPowers, size.NumG1Powers, size.NumG2Powers)
	}
	if size.NumG2Powers > size.NumG1Powers {
		return fmt.Errorf("%w: %d G2 powers exceed %d G1 powers", ErrInvalidSize, size.NumG2Powers, size.NumG1Powers)
	}
	return nil
}

// New returns a transcript in genesis state, where every power is the generator.
func New(size params.Size) (*Transcript, error) {
	if err := ValidateSize(size); err != nil {
		return nil, err
	}
	g1 := make([]group.G1, size.NumG1Powers)
	for i := range g1 {
		g1[i] = group.G1One
	}
	g2 := make([]group.G2, size.NumG2Powers)
	for i := range g2 {
		g2[i] = group.G2One
	}
	return &Transcript{
		NumG1Powers: size.NumG1Powers,
		NumG2Powers: size.NumG2Powers,
		PowersOfTau: PowersOfTau{G1: g1, G2: g2},
		Witness: Witness{
			RunningProducts: []group.G1{group.G1One},
			PotPubkeys:      []group.G2{group.G2One},
			BLSSignatures:   []BLSSignature{EmptyBLSSignature},
		},
	}, nil
}

// Size returns the number of powers in each group.
func (t *Transcript) Size() params.Size {
	return params.Size{NumG1Powers: t.NumG1Powers, NumG2Powers: t.NumG2Powers}
}

// NumRounds returns the number of contributions applied since genesis.
func (t *Transcript) NumRounds() int {
	return len(t.Witness.RunningProducts) - 1
}

// Contribution returns a template holding a copy of the current powers.
func (t *Transcript) Contribution() Contribution {
	return Contribution{
		NumG1Powers:  t.NumG1Powers,
		NumG2Powers:  t.NumG2Powers,
		PowersOfTau:  t.PowersOfTau.clone(),
		PotPubkey:    group.G2One,
		BLSSignature: EmptyBLSSignature,
	}
}

// Verify checks that c extends the current state of t by a fresh non-trivial tau.
//
// If c carries a BLS signature, it must sign id with that tau.
// Verify only reads t and c, and may run concurrently with other readers.
func (t *Transcript) Verify(c *Contribution, id identity.Identity, eng engine.Engine) error {
	if err := t.verifyShape(c); err != nil {
		return err
	}
	powers := &c.PowersOfTau

	if err := eng.ValidateG1(powers.G1); err != nil {
		return pointError(err, InvalidG1Power, ZeroG1)
	}
	if err := eng.ValidateG2(powers.G2); err != nil {
		return pointError(err, InvalidG2Power, ZeroG2)
	}
	if powers.G1[0] != group.G1One {
		return newError(InvalidG1FirstValue, 0, nil)
	}
	if powers.G2[0] != group.G2One {
		return newError(InvalidG2FirstValue, 0, nil)
	}

	if err := eng.ValidateG2([]group.G2{c.PotPubkey}); err != nil {
		if errors.Is(err, engine.ErrZeroPoint) {
			return newError(ZeroPubkey, -1, err)
		}
		return newError(InvalidPubkey, -1, err)
	}
	if c.PotPubkey == group.G2One {
		return newError(InvalidPubkey, -1, errors.New("pubkey is the generator"))
	}

	if err := eng.VerifyPubkey(powers.G1[1], t.PowersOfTau.G1[1], c.PotPubkey); err != nil {
		return newError(PubkeyPairingFailed, -1, err)
	}
	if err := eng.VerifyG1(powers.G1, powers.G2[1]); err != nil {
		return pairingError(err, G1PairingFailed)
	}
	if err := eng.VerifyG2(powers.G1, powers.G2); err != nil {
		return pairingError(err, G2PairingFailed)
	}

	if !c.BLSSignature.IsEmpty() {
		if err := eng.VerifySignature(c.BLSSignature.Point(), []byte(id.String()), c.PotPubkey); err != nil {
			return newError(InvalidBLSSignature, -1, err)
		}
	}
	return nil
}

func (t *Transcript) verifyShape(c *Contribution) error {
	switch {
	case c.NumG1Powers != t.NumG1Powers:
		return newError(UnexpectedNumG1Powers, -1, fmt.Errorf("expected %d, got %d", t.NumG1Powers, c.NumG1Powers))
	case c.NumG2Powers != t.NumG2Powers:
		return newError(UnexpectedNumG2Powers, -1, fmt.Errorf("expected %d, got %d", t.NumG2Powers, c.NumG2Powers))
	case len(c.PowersOfTau.G1) != c.NumG1Powers:
		return newError(InconsistentNumG1Powers, -1, fmt.Errorf("declared %d, got %d", c.NumG1Powers, len(c.PowersOfTau.G1)))
	case len(c.PowersOfTau.G2) != c.NumG2Powers:
		return newError(InconsistentNumG2Powers, -1, fmt.Errorf("declared %d, got %d", c.NumG2Powers, len(c.PowersOfTau.G2)))
	case c.NumG2Powers > c.NumG1Powers:
		return newError(UnsupportedMoreG2Powers, -1, nil)
	case c.NumG1Powers < params.MinPowers || c.NumG2Powers < params.MinPowers:
		return newError(TooFewPowers, -1, nil)
	}
	return nil
}

// Add replaces the powers of t by those of c and records the round in the witness.
//
// c must have been accepted by Verify against the current state of t.
func (t *Transcript) Add(c *Contribution) {
	t.PowersOfTau = c.PowersOfTau.clone()
	t.Witness.RunningProducts = append(t.Witness.RunningProducts, c.PowersOfTau.G1[1])
	t.Witness.PotPubkeys = append(t.Witness.PotPubkeys, c.PotPubkey)
	t.Witness.BLSSignatures = append(t.Witness.BLSSignatures, c.BLSSignature)
}

// VerifyWitness audits a stored transcript from genesis to its current powers.
//
// ids, if not nil, holds the identity of every round including genesis, and is used to
// check the BLS signatures recorded in the witness. Every failing round is reported.
func (t *Transcript) VerifyWitness(eng engine.Engine, ids []identity.Identity) error {
	if err := t.CheckStructure(); err != nil {
		return err
	}

	w := &t.Witness
	rounds := len(w.RunningProducts)
	if ids != nil && len(ids) != rounds {
		return newError(InvalidWitness, -1, fmt.Errorf("%d identities for %d rounds", len(ids), rounds))
	}
	if w.RunningProducts[0] != group.G1One || w.PotPubkeys[0] != group.G2One {
		return newError(InvalidWitness, 0, errors.New("genesis entry is not the generator"))
	}

	if err := eng.ValidateG1(w.RunningProducts); err != nil {
		return pointError(err, InvalidWitness, InvalidWitness)
	}
	if err := eng.ValidateG2(w.PotPubkeys); err != nil {
		return pointError(err, InvalidWitness, InvalidWitness)
	}

	var result *multierror.Error
	for k := 1; k < rounds; k++ {
		if err := eng.VerifyPubkey(w.RunningProducts[k], w.RunningProducts[k-1], w.PotPubkeys[k]); err != nil {
			result = multierror.Append(result, fmt.Errorf("round %d: %w", k, err))
		}
		if sig := w.BLSSignatures[k]; ids != nil && !sig.IsEmpty() {
			if err := eng.VerifySignature(sig.Point(), []byte(ids[k].String()), w.PotPubkeys[k]); err != nil {
				result = multierror.Append(result, fmt.Errorf("round %d: %w", k, err))
			}
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return newError(InvalidWitness, -1, err)
	}

	powers := &t.PowersOfTau
	if w.RunningProducts[rounds-1] != powers.G1[1] {
		return newError(InvalidWitness, rounds-1, errors.New("last running product does not match powers"))
	}
	if err := eng.ValidateG1(powers.G1); err != nil {
		return pointError(err, InvalidG1Power, ZeroG1)
	}
	if err := eng.ValidateG2(powers.G2); err != nil {
		return pointError(err, InvalidG2Power, ZeroG2)
	}
	if powers.G1[0] != group.G1One {
		return newError(InvalidG1FirstValue, 0, nil)
	}
	if powers.G2[0] != group.G2One {
		return newError(InvalidG2FirstValue, 0, nil)
	}
	if err := eng.VerifyG1(powers.G1, powers.G2[1]); err != nil {
		return pairingError(err, G1PairingFailed)
	}
	if err := eng.VerifyG2(powers.G1, powers.G2); err != nil {
		return pairingError(err, G2PairingFailed)
	}
	return nil
}

// CheckStructure checks the lengths of a stored transcript against its declared size,
// without any curve arithmetic. Verify and Add may index a transcript which passes it.
func (t *Transcript) CheckStructure() error {
	if err := ValidateSize(t.Size()); err != nil {
		if t.NumG2Powers > t.NumG1Powers {
			return newError(UnsupportedMoreG2Powers, -1, err)
		}
		return newError(TooFewPowers, -1, err)
	}
	if len(t.PowersOfTau.G1) != t.NumG1Powers {
		return newError(InconsistentNumG1Powers, -1, fmt.Errorf("declared %d, got %d", t.NumG1Powers, len(t.PowersOfTau.G1)))
	}
	if len(t.PowersOfTau.G2) != t.NumG2Powers {
		return newError(InconsistentNumG2Powers, -1, fmt.Errorf("declared %d, got %d", t.NumG2Powers, len(t.PowersOfTau.G2)))
	}
	w := &t.Witness
	rounds := len(w.RunningProducts)
	if rounds == 0 || len(w.PotPubkeys) != rounds || len(w.BLSSignatures) != rounds {
		return newError(InvalidWitness, -1, fmt.Errorf("witness lengths %d, %d, %d",
			len(w.RunningProducts), len(w.PotPubkeys), len(w.BLSSignatures)))
	}
	return nil
}

func pointError(err error, invalid, zero ErrorKind) *Error {
	index := -1
	var pe *engine.PointError
	if errors.As(err, &pe) {
		index = pe.Index
	}
	if errors.Is(err, engine.ErrZeroPoint) {
		return newError(zero, index, err)
	}
	return newError(invalid, index, err)
}

func pairingError(err error, kind ErrorKind) *Error {
	index := -1
	var pe *engine.PointError
	if errors.As(err, &pe) {
		index = pe.Index
	}
	return newError(kind, index, err)
}

// Clone returns a deep copy of t.
func (t *Transcript) Clone() *Transcript {
	return &Transcript{
		NumG1Powers: t.NumG1Powers,
		NumG2Powers: t.NumG2Powers,
		PowersOfTau: t.PowersOfTau.clone(),
		Witness: Witness{
			RunningProducts: group.CloneG1(t.Witness.RunningProducts),
			PotPubkeys:      group.CloneG2(t.Witness.PotPubkeys),
			BLSSignatures:   append([]BLSSignature(nil), t.Witness.BLSSignatures...),
		},
	}
}

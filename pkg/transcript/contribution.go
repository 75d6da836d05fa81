package transcript

import (
	"github.com/taurusgroup/kzg-ceremony/pkg/engine"
	"github.com/taurusgroup/kzg-ceremony/pkg/group"
	"github.com/taurusgroup/kzg-ceremony/pkg/identity"
)

// Contribution is a proposed update of one transcript.
type Contribution struct {
	NumG1Powers int         `json:"numG1Powers"`
	NumG2Powers int         `json:"numG2Powers"`
	PowersOfTau PowersOfTau `json:"powersOfTau"`
	// PotPubkey is [τ]₂ for the tau of this contribution.
	PotPubkey    group.G2     `json:"potPubkey"`
	BLSSignature BLSSignature `json:"blsSignature"`
}

// AddEntropy derives a tau from entropy and multiplies every power by the matching power of tau.
//
// If id is not None, the contribution is also signed with tau over id.
// On error the contribution may be partially updated and must be discarded.
func (c *Contribution) AddEntropy(eng engine.Engine, entropy []byte, id identity.Identity) error {
	tau, err := engine.GenerateTau(entropy)
	if err != nil {
		return err
	}
	defer tau.Zeroize()

	if err = eng.AddTauG1(tau, c.PowersOfTau.G1); err != nil {
		return err
	}
	if err = eng.AddTauG2(tau, c.PowersOfTau.G2); err != nil {
		return err
	}

	// [τ⁰]₂, [τ¹]₂
	pubkey := []group.G2{group.G2One, group.G2One}
	if err = eng.AddTauG2(tau, pubkey); err != nil {
		return err
	}
	c.PotPubkey = pubkey[1]

	c.BLSSignature = EmptyBLSSignature
	if !id.IsNone() {
		sig, err := eng.SignMessage(tau, []byte(id.String()))
		if err != nil {
			return err
		}
		c.BLSSignature = NewBLSSignature(sig)
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *Contribution) Clone() Contribution {
	out := *c
	out.PowersOfTau = c.PowersOfTau.clone()
	return out
}

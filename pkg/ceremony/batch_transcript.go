// Package ceremony coordinates the transcripts of a powers of tau ceremony, which advance
// together as one round per participant.
package ceremony

import (
	"fmt"

	"github.com/taurusgroup/kzg-ceremony/internal/params"
	"github.com/taurusgroup/kzg-ceremony/pkg/ecdsa"
	"github.com/taurusgroup/kzg-ceremony/pkg/engine"
	"github.com/taurusgroup/kzg-ceremony/pkg/identity"
	"github.com/taurusgroup/kzg-ceremony/pkg/pool"
	"github.com/taurusgroup/kzg-ceremony/pkg/transcript"
)

// BatchTranscript is the state of a ceremony.
//
// ParticipantIDs and ParticipantECDSASignatures are append-only, and always have the
// same length: one entry for genesis and one per committed round.
//
// A BatchTranscript is not safe for concurrent use while a round is being committed.
// Callers must serialize Contribution and VerifyAdd across rounds.
type BatchTranscript struct {
	Transcripts                []*transcript.Transcript `json:"transcripts"`
	ParticipantIDs             []identity.Identity      `json:"participantIds"`
	ParticipantECDSASignatures []ecdsa.Signature        `json:"participantEcdsaSignatures"`
}

// New returns a ceremony in genesis state with one transcript per size.
func New(sizes []params.Size) (*BatchTranscript, error) {
	if len(sizes) == 0 {
		return nil, ErrNoTranscripts
	}
	transcripts := make([]*transcript.Transcript, len(sizes))
	for i, size := range sizes {
		t, err := transcript.New(size)
		if err != nil {
			return nil, fmt.Errorf("ceremony: transcript %d: %w", i, err)
		}
		transcripts[i] = t
	}
	return &BatchTranscript{
		Transcripts:                transcripts,
		ParticipantIDs:             []identity.Identity{identity.None},
		ParticipantECDSASignatures: []ecdsa.Signature{ecdsa.Empty},
	}, nil
}

// Sizes returns the size of every transcript.
func (b *BatchTranscript) Sizes() []params.Size {
	sizes := make([]params.Size, len(b.Transcripts))
	for i, t := range b.Transcripts {
		sizes[i] = t.Size()
	}
	return sizes
}

// NumParticipants returns the number of committed rounds.
func (b *BatchTranscript) NumParticipants() int {
	return len(b.ParticipantIDs) - 1
}

// Contribution returns an unsigned template for the next round. It does not modify b.
func (b *BatchTranscript) Contribution() *BatchContribution {
	contributions := make([]transcript.Contribution, len(b.Transcripts))
	for i, t := range b.Transcripts {
		contributions[i] = t.Contribution()
	}
	return &BatchContribution{
		Contributions:  contributions,
		ECDSASignature: ecdsa.Empty,
	}
}

// Verify checks every contribution of c against its transcript, using the workers of pl.
//
// The first failure observed is returned as an *InvalidCeremonyError.
// Verify does not modify b or c.
func (b *BatchTranscript) Verify(c *BatchContribution, id identity.Identity, eng engine.Engine, pl *pool.Pool) error {
	if err := b.checkShape(c); err != nil {
		return err
	}
	if i, err := pl.TryEach(len(b.Transcripts), func(i int) error {
		return b.Transcripts[i].Verify(&c.Contributions[i], id, eng)
	}); err != nil {
		return &InvalidCeremonyError{Index: i, Err: err}
	}
	return nil
}

// commit applies c to every transcript and records id and the signature of c.
//
// c must have been accepted by Verify against the current state of b.
func (b *BatchTranscript) commit(c *BatchContribution, id identity.Identity) error {
	if err := b.checkShape(c); err != nil {
		return err
	}
	for i, t := range b.Transcripts {
		t.Add(&c.Contributions[i])
	}
	b.ParticipantIDs = append(b.ParticipantIDs, id)
	b.ParticipantECDSASignatures = append(b.ParticipantECDSASignatures, c.ECDSASignature)
	return nil
}

// VerifyAdd verifies c and, only if every contribution is valid, commits it.
// On error b is left unchanged.
func (b *BatchTranscript) VerifyAdd(c *BatchContribution, id identity.Identity, eng engine.Engine, pl *pool.Pool) error {
	if err := b.Verify(c, id, eng, pl); err != nil {
		return err
	}
	return b.commit(c, id)
}

// VerifyWitnesses audits the whole ceremony from genesis.
func (b *BatchTranscript) VerifyWitnesses(eng engine.Engine, pl *pool.Pool) error {
	if len(b.Transcripts) == 0 {
		return ErrNoTranscripts
	}
	if len(b.ParticipantIDs) == 0 || len(b.ParticipantIDs) != len(b.ParticipantECDSASignatures) {
		return fmt.Errorf("%w: %d identities, %d signatures",
			ErrInconsistentHistory, len(b.ParticipantIDs), len(b.ParticipantECDSASignatures))
	}
	if !b.ParticipantIDs[0].IsNone() || !b.ParticipantECDSASignatures[0].IsEmpty() {
		return fmt.Errorf("%w: genesis entry is not empty", ErrInconsistentHistory)
	}
	if i, err := pl.TryEach(len(b.Transcripts), func(i int) error {
		return b.Transcripts[i].VerifyWitness(eng, b.ParticipantIDs)
	}); err != nil {
		return &InvalidCeremonyError{Index: i, Err: err}
	}
	return nil
}

// Clone returns a deep copy of b.
func (b *BatchTranscript) Clone() *BatchTranscript {
	transcripts := make([]*transcript.Transcript, len(b.Transcripts))
	for i, t := range b.Transcripts {
		transcripts[i] = t.Clone()
	}
	return &BatchTranscript{
		Transcripts:                transcripts,
		ParticipantIDs:             append([]identity.Identity(nil), b.ParticipantIDs...),
		ParticipantECDSASignatures: append([]ecdsa.Signature(nil), b.ParticipantECDSASignatures...),
	}
}

func (b *BatchTranscript) checkShape(c *BatchContribution) error {
	if len(c.Contributions) != len(b.Transcripts) {
		return &UnexpectedNumContributionsError{Expected: len(b.Transcripts), Actual: len(c.Contributions)}
	}
	return nil
}

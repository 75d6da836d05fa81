package ceremony

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/kzg-ceremony/internal/params"
	"github.com/taurusgroup/kzg-ceremony/internal/test"
	"github.com/taurusgroup/kzg-ceremony/pkg/ecdsa"
	"github.com/taurusgroup/kzg-ceremony/pkg/engine"
	"github.com/taurusgroup/kzg-ceremony/pkg/group"
	"github.com/taurusgroup/kzg-ceremony/pkg/identity"
	"github.com/taurusgroup/kzg-ceremony/pkg/pool"
	"github.com/taurusgroup/kzg-ceremony/pkg/transcript"
)

func newCeremony(t *testing.T) *BatchTranscript {
	b, err := New(test.Sizes)
	require.NoError(t, err)
	return b
}

func filled(t *testing.T, b *BatchTranscript, label string, id identity.Identity, pl *pool.Pool) *BatchContribution {
	c := b.Contribution()
	require.NoError(t, c.AddEntropy(engine.Pairing{}, test.Entropy(label), id, pl))
	return c
}

func snapshot(t *testing.T, b *BatchTranscript) []byte {
	data, err := b.MarshalBinary()
	require.NoError(t, err)
	return data
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoTranscripts)

	_, err = New([]params.Size{{NumG1Powers: 4, NumG2Powers: 2}, {NumG1Powers: 1, NumG2Powers: 1}})
	assert.ErrorIs(t, err, transcript.ErrInvalidSize)

	b := newCeremony(t)
	assert.Equal(t, test.Sizes, b.Sizes())
	assert.Equal(t, 0, b.NumParticipants())
}

// Scenario A
func TestGenesis(t *testing.T) {
	b := newCeremony(t)
	assert.Equal(t, []identity.Identity{identity.None}, b.ParticipantIDs)
	assert.Equal(t, []ecdsa.Signature{ecdsa.Empty}, b.ParticipantECDSASignatures)

	c := b.Contribution()
	require.Len(t, c.Contributions, 2)
	for i, contribution := range c.Contributions {
		assert.Equal(t, test.Sizes[i].NumG1Powers, contribution.NumG1Powers)
		assert.Equal(t, test.Sizes[i].NumG2Powers, contribution.NumG2Powers)
		for _, p := range contribution.PowersOfTau.G1 {
			assert.Equal(t, group.G1One, p)
		}
		for _, p := range contribution.PowersOfTau.G2 {
			assert.Equal(t, group.G2One, p)
		}
	}
	assert.True(t, c.ECDSASignature.IsEmpty())
}

// Scenario B
func TestVerifyAdd(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	for _, eng := range test.Engines() {
		t.Run(eng.Name(), func(t *testing.T) {
			b := newCeremony(t)
			p1 := identity.GitHub(1, "p1")
			c := filled(t, b, "p1", p1, pl)

			require.NoError(t, b.VerifyAdd(c, p1, eng, pl))
			assert.Equal(t, []identity.Identity{identity.None, p1}, b.ParticipantIDs)
			assert.Equal(t, []ecdsa.Signature{ecdsa.Empty, ecdsa.Empty}, b.ParticipantECDSASignatures)
			for i, tr := range b.Transcripts {
				assert.Equal(t, c.Contributions[i].PowersOfTau, tr.PowersOfTau)
				assert.Equal(t, 1, tr.NumRounds())
			}
			assert.Equal(t, 1, b.NumParticipants())
			assert.NoError(t, b.VerifyWitnesses(eng, pl))
		})
	}
}

// Scenario C
func TestVerifyAdd_UnexpectedNumContributions(t *testing.T) {
	b := newCeremony(t)
	before := snapshot(t, b)

	c := b.Contribution()
	c.Contributions = c.Contributions[:1]
	err := b.VerifyAdd(c, identity.GitHub(1, "p1"), engine.Pairing{}, nil)

	var shape *UnexpectedNumContributionsError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, 2, shape.Expected)
	assert.Equal(t, 1, shape.Actual)
	assert.Equal(t, []identity.Identity{identity.None}, b.ParticipantIDs)
	assert.Equal(t, before, snapshot(t, b))

	assert.ErrorAs(t, b.commit(c, identity.None), &shape)
}

// Scenario D
func TestVerifyAdd_InvalidSlot(t *testing.T) {
	b := newCeremony(t)
	p1 := identity.GitHub(1, "p1")
	require.NoError(t, b.VerifyAdd(filled(t, b, "p1", p1, nil), p1, engine.Pairing{}, nil))
	before := snapshot(t, b)

	p2 := identity.GitHub(2, "p2")
	c := filled(t, b, "p2", p2, nil)
	zeroed := &c.Contributions[1]
	for i := range zeroed.PowersOfTau.G1 {
		zeroed.PowersOfTau.G1[i] = group.G1Zero
	}
	for i := range zeroed.PowersOfTau.G2 {
		zeroed.PowersOfTau.G2[i] = group.G2Zero
	}
	zeroed.PotPubkey = group.G2Zero

	err := b.VerifyAdd(c, p2, engine.Pairing{}, nil)
	var invalid *InvalidCeremonyError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.Index)
	assert.ErrorIs(t, err, transcript.ZeroG1)
	assert.False(t, IsBackendFailure(err))

	assert.Equal(t, before, snapshot(t, b))
	assert.Len(t, b.ParticipantIDs, 2)
	assert.Len(t, b.ParticipantECDSASignatures, 2)
}

// Scenario E
func TestVerifyAdd_Stale(t *testing.T) {
	b := newCeremony(t)
	p1 := identity.GitHub(1, "p1")
	c := filled(t, b, "p1", p1, nil)
	require.NoError(t, b.VerifyAdd(c, p1, engine.Pairing{}, nil))
	before := snapshot(t, b)

	err := b.VerifyAdd(c, p1, engine.Pairing{}, nil)
	var invalid *InvalidCeremonyError
	require.ErrorAs(t, err, &invalid)
	assert.ErrorIs(t, err, transcript.PubkeyPairingFailed)
	assert.Equal(t, before, snapshot(t, b))
}

func TestVerifyAdd_ReportsAFailingSlot(t *testing.T) {
	pl := pool.NewPool(4)
	defer pl.TearDown()

	sizes := []params.Size{{NumG1Powers: 4, NumG2Powers: 2}, {NumG1Powers: 4, NumG2Powers: 2}, {NumG1Powers: 4, NumG2Powers: 2}, {NumG1Powers: 4, NumG2Powers: 2}, {NumG1Powers: 4, NumG2Powers: 2}}
	b, err := New(sizes)
	require.NoError(t, err)
	c := filled(t, b, "many", identity.None, pl)
	c.Contributions[1].PotPubkey = group.G2One
	c.Contributions[3].PotPubkey = group.G2One

	err = b.Verify(c, identity.None, engine.Pairing{}, pl)
	var invalid *InvalidCeremonyError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, []int{1, 3}, invalid.Index)
	assert.ErrorIs(t, err, transcript.InvalidPubkey)
}

// lenient accepts any G1 powers.
type lenient struct {
	engine.Pairing
}

func (lenient) Name() string { return "lenient" }

func (lenient) VerifyG1([]group.G1, group.G2) error { return nil }

func TestVerifyAdd_BackendDisagreement(t *testing.T) {
	b := newCeremony(t)
	before := snapshot(t, b)

	c := filled(t, b, "p1", identity.None, nil)
	g1 := c.Contributions[1].PowersOfTau.G1
	g1[2], g1[3] = g1[3], g1[2]

	err := b.VerifyAdd(c, identity.None, engine.Both{A: engine.Pairing{}, B: lenient{}}, nil)
	var invalid *InvalidCeremonyError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.Index)
	assert.True(t, IsBackendFailure(err))
	var disagreement *engine.DisagreementError
	require.ErrorAs(t, err, &disagreement)
	assert.Equal(t, "VerifyG1", disagreement.Op)
	assert.Equal(t, before, snapshot(t, b))
}

func TestSignatures(t *testing.T) {
	participants := test.Participants(2)
	b := newCeremony(t)

	for round, p := range participants {
		c := filled(t, b, p.Identity.String(), p.Identity, nil)
		c.Sign(p.Key)
		require.NoError(t, c.VerifySignature(p.Identity))
		require.NoError(t, b.VerifyAdd(c, p.Identity, engine.Pairing{}, nil))

		assert.Equal(t, p.Identity, b.ParticipantIDs[round+1])
		assert.Equal(t, c.ECDSASignature, b.ParticipantECDSASignatures[round+1])
	}
	assert.Len(t, b.ParticipantECDSASignatures, len(b.ParticipantIDs))
	assert.NoError(t, b.VerifyWitnesses(engine.Pairing{}, nil))
}

func TestBatchContribution_VerifySignature(t *testing.T) {
	participants := test.Participants(2)
	b := newCeremony(t)
	c := filled(t, b, "sig", participants[0].Identity, nil)

	assert.ErrorIs(t, c.VerifySignature(participants[0].Identity), ecdsa.ErrMissingSignature)

	c.Sign(participants[0].Key)
	assert.ErrorIs(t, c.VerifySignature(participants[1].Identity), ecdsa.ErrSignatureMismatch)
	assert.ErrorIs(t, c.VerifySignature(identity.GitHub(1, "a")), ErrNoSigningAddress)

	c.Contributions[0].PotPubkey = c.Contributions[1].PotPubkey
	assert.ErrorIs(t, c.VerifySignature(participants[0].Identity), ecdsa.ErrSignatureMismatch)

	require.NoError(t, c.AddEntropy(engine.Pairing{}, test.Entropy("again"), identity.None, nil))
	assert.True(t, c.ECDSASignature.IsEmpty())
}

func TestBatchContribution_AddEntropy(t *testing.T) {
	b := newCeremony(t)
	c := b.Contribution()
	assert.ErrorIs(t, c.AddEntropy(engine.Pairing{}, []byte("short"), identity.None, nil), engine.ErrShortEntropy)

	c = filled(t, b, "distinct", identity.None, nil)
	assert.NotEqual(t, c.Contributions[0].PotPubkey, c.Contributions[1].PotPubkey)

	again := filled(t, b, "distinct", identity.None, nil)
	assert.Equal(t, c.Digest(), again.Digest())
	assert.NotEqual(t, c.Digest(), filled(t, b, "other", identity.None, nil).Digest())
}

func TestVerifyWitnesses_History(t *testing.T) {
	b := newCeremony(t)
	require.NoError(t, b.VerifyAdd(filled(t, b, "p1", identity.None, nil), identity.None, engine.Pairing{}, nil))

	broken := b.Clone()
	broken.ParticipantECDSASignatures = broken.ParticipantECDSASignatures[:1]
	assert.ErrorIs(t, broken.VerifyWitnesses(engine.Pairing{}, nil), ErrInconsistentHistory)

	broken = b.Clone()
	broken.ParticipantIDs[0] = identity.GitHub(1, "a")
	assert.ErrorIs(t, broken.VerifyWitnesses(engine.Pairing{}, nil), ErrInconsistentHistory)

	broken = b.Clone()
	broken.Transcripts[1].Witness.PotPubkeys[1] = b.Transcripts[0].Witness.PotPubkeys[1]
	err := broken.VerifyWitnesses(engine.Pairing{}, nil)
	var invalid *InvalidCeremonyError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.Index)
	assert.ErrorIs(t, err, transcript.InvalidWitness)

	assert.NoError(t, b.VerifyWitnesses(engine.Pairing{}, nil))
}

func TestMarshal(t *testing.T) {
	participants := test.Participants(1)
	b := newCeremony(t)
	c := filled(t, b, "p1", participants[0].Identity, nil)
	c.Sign(participants[0].Key)
	require.NoError(t, b.VerifyAdd(c, participants[0].Identity, engine.Pairing{}, nil))

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, b.Encode(&buf))
		assert.Contains(t, buf.String(), `"participantIds"`)
		assert.Contains(t, buf.String(), `"participantEcdsaSignatures"`)

		out, err := Decode(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, b, out)
		assert.NoError(t, out.VerifyWitnesses(engine.Pairing{}, nil))
	})

	t.Run("json unknown field", func(t *testing.T) {
		_, err := Decode(bytes.NewReader([]byte(`{"transcripts":[],"participantIds":[],"participantEcdsaSignatures":[],"extra":1}`)))
		assert.Error(t, err)
	})

	t.Run("json inconsistent", func(t *testing.T) {
		out := b.Clone()
		out.ParticipantIDs = append(out.ParticipantIDs, identity.None)
		var buf bytes.Buffer
		require.NoError(t, out.Encode(&buf))
		_, err := Decode(&buf)
		assert.ErrorIs(t, err, ErrInconsistentHistory)
	})

	t.Run("cbor", func(t *testing.T) {
		data, err := b.MarshalBinary()
		require.NoError(t, err)
		var out BatchTranscript
		require.NoError(t, out.UnmarshalBinary(data))
		assert.Equal(t, b, &out)
	})

	t.Run("contribution", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, c.Encode(&buf))
		out, err := DecodeContribution(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, c, out)

		_, err = DecodeContribution([]byte(`{"contributions":[],"ecdsaSignature":"","x":0}`))
		assert.Error(t, err)
	})
}

func TestDecode_Malformed(t *testing.T) {
	b := newCeremony(t)
	require.NoError(t, b.VerifyAdd(filled(t, b, "p1", identity.None, nil), identity.None, engine.Pairing{}, nil))

	tests := []struct {
		name   string
		mutate func(b *BatchTranscript)
		target error
	}{
		{"short G1 powers", func(b *BatchTranscript) { b.Transcripts[0].PowersOfTau.G1 = b.Transcripts[0].PowersOfTau.G1[:1] }, transcript.InconsistentNumG1Powers},
		{"long G2 powers", func(b *BatchTranscript) {
			b.Transcripts[1].PowersOfTau.G2 = append(b.Transcripts[1].PowersOfTau.G2, group.G2One)
		}, transcript.InconsistentNumG2Powers},
		{"declared size", func(b *BatchTranscript) { b.Transcripts[0].NumG1Powers++ }, transcript.InconsistentNumG1Powers},
		{"too few powers", func(b *BatchTranscript) {
			tr := b.Transcripts[0]
			tr.NumG1Powers, tr.NumG2Powers = 1, 1
			tr.PowersOfTau.G1, tr.PowersOfTau.G2 = tr.PowersOfTau.G1[:1], tr.PowersOfTau.G2[:1]
		}, transcript.TooFewPowers},
		{"more G2 powers", func(b *BatchTranscript) {
			tr := b.Transcripts[0]
			tr.NumG2Powers = tr.NumG1Powers + 1
			for len(tr.PowersOfTau.G2) < tr.NumG2Powers {
				tr.PowersOfTau.G2 = append(tr.PowersOfTau.G2, group.G2One)
			}
		}, transcript.UnsupportedMoreG2Powers},
		{"witness lengths", func(b *BatchTranscript) {
			w := &b.Transcripts[1].Witness
			w.PotPubkeys = w.PotPubkeys[:1]
		}, transcript.InvalidWitness},
		{"rounds per transcript", func(b *BatchTranscript) {
			w := &b.Transcripts[1].Witness
			w.RunningProducts, w.PotPubkeys, w.BLSSignatures = w.RunningProducts[:1], w.PotPubkeys[:1], w.BLSSignatures[:1]
		}, ErrInconsistentHistory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken := b.Clone()
			tt.mutate(broken)

			var buf bytes.Buffer
			require.NoError(t, broken.Encode(&buf))
			_, err := Decode(&buf)
			assert.ErrorIs(t, err, tt.target)

			data, err := broken.MarshalBinary()
			require.NoError(t, err)
			var out BatchTranscript
			assert.ErrorIs(t, out.UnmarshalBinary(data), tt.target)
		})
	}
}

func TestMarshal_GitHubWithoutUsername(t *testing.T) {
	b := newCeremony(t)
	id := identity.GitHub(7, "")
	require.NoError(t, b.VerifyAdd(filled(t, b, "p1", id, nil), id, engine.Pairing{}, nil))

	var buf bytes.Buffer
	require.NoError(t, b.Encode(&buf))
	out, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, b, out)
	assert.NoError(t, out.VerifyWitnesses(engine.Pairing{}, nil))

	data, err := b.MarshalBinary()
	require.NoError(t, err)
	var decoded BatchTranscript
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, b, &decoded)
}

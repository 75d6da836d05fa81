package ceremony

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/kzg-ceremony/pkg/ecdsa"
	"github.com/taurusgroup/kzg-ceremony/pkg/identity"
	"github.com/taurusgroup/kzg-ceremony/pkg/transcript"
)

var strictDecMode = mustDecMode()

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{ExtraReturnErrors: cbor.ExtraDecErrorUnknownField}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

type batchTranscriptMarshal struct {
	Transcripts                []*transcript.Transcript
	ParticipantIDs             []string
	ParticipantECDSASignatures []ecdsa.Signature
}

// MarshalBinary encodes b with cbor.
func (b *BatchTranscript) MarshalBinary() ([]byte, error) {
	ids := make([]string, len(b.ParticipantIDs))
	for i, id := range b.ParticipantIDs {
		ids[i] = id.String()
	}
	return cbor.Marshal(&batchTranscriptMarshal{
		Transcripts:                b.Transcripts,
		ParticipantIDs:             ids,
		ParticipantECDSASignatures: b.ParticipantECDSASignatures,
	})
}

// UnmarshalBinary decodes the output of MarshalBinary, rejecting unknown fields.
func (b *BatchTranscript) UnmarshalBinary(data []byte) error {
	var m batchTranscriptMarshal
	if err := strictDecMode.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("ceremony: decode: %w", err)
	}
	ids := make([]identity.Identity, len(m.ParticipantIDs))
	for i, s := range m.ParticipantIDs {
		id, err := identity.Parse(s)
		if err != nil {
			return fmt.Errorf("ceremony: decode participant %d: %w", i, err)
		}
		ids[i] = id
	}
	*b = BatchTranscript{
		Transcripts:                m.Transcripts,
		ParticipantIDs:             ids,
		ParticipantECDSASignatures: m.ParticipantECDSASignatures,
	}
	return b.checkDecoded()
}

// Encode writes b as indented JSON, the public form of a ceremony.
func (b *BatchTranscript) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// Decode reads a ceremony written by Encode, rejecting unknown fields.
func Decode(r io.Reader) (*BatchTranscript, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var b BatchTranscript
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("ceremony: decode: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("ceremony: decode: trailing data")
	}
	if err := b.checkDecoded(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Encode writes c as JSON.
func (c *BatchContribution) Encode(w io.Writer) error {
	return json.NewEncoder(w).Encode(c)
}

// DecodeContribution reads a JSON batch contribution, rejecting unknown fields.
func DecodeContribution(data []byte) (*BatchContribution, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var c BatchContribution
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("ceremony: decode contribution: %w", err)
	}
	return &c, nil
}

// checkDecoded verifies the structural invariants which do not need an engine, so that
// a decoded ceremony can be verified and committed to without out of range accesses.
func (b *BatchTranscript) checkDecoded() error {
	if len(b.Transcripts) == 0 {
		return ErrNoTranscripts
	}
	if len(b.ParticipantIDs) == 0 || len(b.ParticipantIDs) != len(b.ParticipantECDSASignatures) {
		return fmt.Errorf("%w: %d identities, %d signatures",
			ErrInconsistentHistory, len(b.ParticipantIDs), len(b.ParticipantECDSASignatures))
	}
	for i, t := range b.Transcripts {
		if t == nil {
			return fmt.Errorf("ceremony: transcript %d is missing", i)
		}
		if err := t.CheckStructure(); err != nil {
			return &InvalidCeremonyError{Index: i, Err: err}
		}
		if t.NumRounds() != b.NumParticipants() {
			return fmt.Errorf("%w: transcript %d has %d rounds, %d participants",
				ErrInconsistentHistory, i, t.NumRounds(), b.NumParticipants())
		}
	}
	return nil
}

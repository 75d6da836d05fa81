package ceremony

import (
	"encoding/binary"
	"fmt"
	"hash"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	hashpkg "github.com/taurusgroup/kzg-ceremony/internal/hash"
	"github.com/taurusgroup/kzg-ceremony/internal/params"
	"github.com/taurusgroup/kzg-ceremony/pkg/ecdsa"
	"github.com/taurusgroup/kzg-ceremony/pkg/engine"
	"github.com/taurusgroup/kzg-ceremony/pkg/identity"
	"github.com/taurusgroup/kzg-ceremony/pkg/pool"
	"github.com/taurusgroup/kzg-ceremony/pkg/transcript"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/hkdf"
)

// BatchContribution is a participant's proposed update of every transcript of a ceremony.
type BatchContribution struct {
	Contributions []transcript.Contribution `json:"contributions"`
	// ECDSASignature signs Digest with the participant's Ethereum key, or is ecdsa.Empty.
	ECDSASignature ecdsa.Signature `json:"ecdsaSignature"`
}

// Clone returns a deep copy of c.
func (c *BatchContribution) Clone() *BatchContribution {
	contributions := make([]transcript.Contribution, len(c.Contributions))
	for i := range c.Contributions {
		contributions[i] = c.Contributions[i].Clone()
	}
	return &BatchContribution{Contributions: contributions, ECDSASignature: c.ECDSASignature}
}

// AddEntropy updates every contribution with a tau derived from entropy.
//
// Each contribution gets its own tau, expanded from entropy and its index.
// Any previous ECDSA signature is cleared, since it no longer covers the contribution.
func (c *BatchContribution) AddEntropy(eng engine.Engine, entropy []byte, id identity.Identity, pl *pool.Pool) error {
	if len(entropy) < params.MinEntropyBytes {
		return fmt.Errorf("ceremony: %w: got %d bytes, need %d", engine.ErrShortEntropy, len(entropy), params.MinEntropyBytes)
	}
	c.ECDSASignature = ecdsa.Empty
	if i, err := pl.TryEach(len(c.Contributions), func(i int) error {
		seed, err := slotEntropy(entropy, i)
		if err != nil {
			return err
		}
		defer clear(seed)
		return c.Contributions[i].AddEntropy(eng, seed, id)
	}); err != nil {
		return fmt.Errorf("ceremony: contribution %d: %w", i, err)
	}
	return nil
}

func slotEntropy(entropy []byte, i int) ([]byte, error) {
	info := binary.BigEndian.AppendUint64([]byte(params.DomainSlotEntropy), uint64(i))
	kdf := hkdf.New(func() hash.Hash { return blake3.New() }, entropy, nil, info)
	seed := make([]byte, params.BytesTauSeed)
	if _, err := io.ReadFull(kdf, seed); err != nil {
		return nil, fmt.Errorf("expand entropy: %w", err)
	}
	return seed, nil
}

// Digest commits to the size and pubkey of every contribution, in order.
// It is the message covered by ECDSASignature.
func (c *BatchContribution) Digest() []byte {
	h := hashpkg.New(params.DomainBatch)
	_ = h.WriteAny(uint64(len(c.Contributions)))
	for i := range c.Contributions {
		contribution := &c.Contributions[i]
		_ = h.WriteAny(uint64(contribution.NumG1Powers), uint64(contribution.NumG2Powers), contribution.PotPubkey)
	}
	return h.Sum()
}

// Sign sets ECDSASignature with key. It must be called after AddEntropy.
func (c *BatchContribution) Sign(key *secp256k1.PrivateKey) {
	c.ECDSASignature = ecdsa.Sign(key, c.Digest())
}

// VerifySignature checks that ECDSASignature was produced by the account of id.
func (c *BatchContribution) VerifySignature(id identity.Identity) error {
	address, ok := id.Address()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSigningAddress, id.Kind())
	}
	return ecdsa.Verify(c.ECDSASignature, c.Digest(), address)
}

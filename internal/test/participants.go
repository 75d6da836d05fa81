// Package test holds fixtures shared by the tests of the ceremony packages.
package test

import (
	"crypto/rand"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/taurusgroup/kzg-ceremony/internal/hash"
	"github.com/taurusgroup/kzg-ceremony/internal/params"
	"github.com/taurusgroup/kzg-ceremony/pkg/ecdsa"
	"github.com/taurusgroup/kzg-ceremony/pkg/engine"
	"github.com/taurusgroup/kzg-ceremony/pkg/identity"
)

// Participant is a ceremony participant with a signing key.
type Participant struct {
	Key      *secp256k1.PrivateKey
	Identity identity.Identity
}

// Participants returns n participants with deterministic Ethereum keys.
func Participants(n int) []Participant {
	out := make([]Participant, n)
	for i := range out {
		h := hash.New("test participant key")
		_ = h.WriteAny(i)
		key := secp256k1.PrivKeyFromBytes(h.Sum())
		out[i] = Participant{Key: key, Identity: identity.Ethereum(ecdsa.Address(key.PubKey()))}
	}
	return out
}

// GitHubIdentities returns n GitHub identities named "a", "b", …, "z", "aa", ….
func GitHubIdentities(n int) []identity.Identity {
	baseString := ""
	ids := make([]identity.Identity, n)
	for i := range ids {
		if i%26 == 0 && i > 0 {
			baseString += "a"
		}
		ids[i] = identity.GitHub(uint64(i+1), baseString+string('a'+rune(i%26)))
	}
	return ids
}

// Entropy returns deterministic participant entropy derived from label.
func Entropy(label string) []byte {
	h := hash.New("test entropy")
	_ = h.WriteAny(label)
	return h.Sum()
}

// RandomEntropy returns fresh entropy from crypto/rand.
func RandomEntropy() []byte {
	b := make([]byte, params.MinEntropyBytes)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// Sizes are small transcript sizes which keep tests fast.
var Sizes = []params.Size{
	{NumG1Powers: 4, NumG2Powers: 2},
	{NumG1Powers: 8, NumG2Powers: 4},
}

// Engines returns one instance of every engine.
func Engines() []engine.Engine {
	return []engine.Engine{
		engine.Pairing{},
		engine.NewBatched(nil),
		engine.Both{A: engine.Pairing{}, B: engine.NewBatched(nil)},
	}
}

// Package identity describes who contributed a ceremony round.
package identity

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Kind enumerates the forms an Identity can take.
type Kind uint8

const (
	// KindNone is the genesis sentinel, attributed to no participant.
	KindNone Kind = iota
	// KindEthereum is an Ethereum account which signed in with its key.
	KindEthereum
	// KindGitHub is a GitHub account which signed in through OAuth.
	KindGitHub
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindEthereum:
		return "eth"
	case KindGitHub:
		return "git"
	default:
		return "unknown"
	}
}

// Identity is the recorded author of a round. It carries no secret material.
//
// The zero value is None. Identities are comparable with ==.
type Identity struct {
	kind     Kind
	address  common.Address
	githubID uint64
	username string
}

// None is the identity of the genesis entry.
var None = Identity{}

var ErrInvalidIdentity = errors.New("identity: invalid identity")

// Ethereum returns the identity of an Ethereum account.
func Ethereum(address common.Address) Identity {
	return Identity{kind: KindEthereum, address: address}
}

// GitHub returns the identity of a GitHub account. The numeric id is what identifies
// the account; the username is recorded for readability and may be empty.
func GitHub(id uint64, username string) Identity {
	return Identity{kind: KindGitHub, githubID: id, username: username}
}

func (i Identity) Kind() Kind { return i.kind }

// IsNone reports whether i is the genesis sentinel.
func (i Identity) IsNone() bool { return i.kind == KindNone }

// Address returns the account of an Ethereum identity.
func (i Identity) Address() (common.Address, bool) {
	return i.address, i.kind == KindEthereum
}

// GitHubAccount returns the id and username of a GitHub identity.
func (i Identity) GitHubAccount() (uint64, string, bool) {
	return i.githubID, i.username, i.kind == KindGitHub
}

// String returns the canonical form: "" for None, "eth|0x<address>" or "git|<id>|<username>".
func (i Identity) String() string {
	switch i.kind {
	case KindEthereum:
		return "eth|" + strings.ToLower(i.address.Hex())
	case KindGitHub:
		return "git|" + strconv.FormatUint(i.githubID, 10) + "|" + i.username
	default:
		return ""
	}
}

// Parse reads the canonical form produced by String.
func Parse(s string) (Identity, error) {
	if s == "" {
		return None, nil
	}
	kind, rest, ok := strings.Cut(s, "|")
	if !ok {
		return None, fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
	}
	switch kind {
	case "eth":
		if !common.IsHexAddress(rest) || !strings.HasPrefix(rest, "0x") {
			return None, fmt.Errorf("%w: bad ethereum address %q", ErrInvalidIdentity, rest)
		}
		return Ethereum(common.HexToAddress(rest)), nil
	case "git":
		idStr, username, ok := strings.Cut(rest, "|")
		if !ok {
			return None, fmt.Errorf("%w: missing github username in %q", ErrInvalidIdentity, s)
		}
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			return None, fmt.Errorf("%w: github id: %v", ErrInvalidIdentity, err)
		}
		return GitHub(id, username), nil
	default:
		return None, fmt.Errorf("%w: unknown kind %q", ErrInvalidIdentity, kind)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Identity) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// WriteTo implements io.WriterTo.
func (i Identity) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, i.String())
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (Identity) Domain() string { return "Identity" }

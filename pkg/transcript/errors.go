package transcript

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a contribution was rejected by a transcript.
//
// An ErrorKind is itself an error so that errors.Is(err, transcript.ZeroG1) matches
// any *Error of that kind.
type ErrorKind int

const (
	UnexpectedNumG1Powers ErrorKind = iota + 1
	UnexpectedNumG2Powers
	InconsistentNumG1Powers
	InconsistentNumG2Powers
	UnsupportedMoreG2Powers
	TooFewPowers
	InvalidG1Power
	InvalidG2Power
	ZeroG1
	ZeroG2
	InvalidG1FirstValue
	InvalidG2FirstValue
	InvalidPubkey
	ZeroPubkey
	PubkeyPairingFailed
	G1PairingFailed
	G2PairingFailed
	InvalidBLSSignature
	InvalidWitness
)

var kindNames = map[ErrorKind]string{
	UnexpectedNumG1Powers:   "unexpected number of G1 powers",
	UnexpectedNumG2Powers:   "unexpected number of G2 powers",
	InconsistentNumG1Powers: "inconsistent number of G1 powers",
	InconsistentNumG2Powers: "inconsistent number of G2 powers",
	UnsupportedMoreG2Powers: "more G2 powers than G1 powers",
	TooFewPowers:            "too few powers",
	InvalidG1Power:          "invalid G1 power",
	InvalidG2Power:          "invalid G2 power",
	ZeroG1:                  "G1 power is zero",
	ZeroG2:                  "G2 power is zero",
	InvalidG1FirstValue:     "first G1 power is not the generator",
	InvalidG2FirstValue:     "first G2 power is not the generator",
	InvalidPubkey:           "invalid pubkey",
	ZeroPubkey:              "pubkey is zero",
	PubkeyPairingFailed:     "pubkey pairing check failed",
	G1PairingFailed:         "G1 pairing check failed",
	G2PairingFailed:         "G2 pairing check failed",
	InvalidBLSSignature:     "invalid BLS signature",
	InvalidWitness:          "invalid witness",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

func (k ErrorKind) Error() string {
	return k.String()
}

// Error is returned when a contribution or a stored transcript fails verification.
type Error struct {
	Kind ErrorKind
	// Index is the offending point, power or round, or -1 when the failure is not tied to one.
	Index int
	// Err is the underlying cause reported by the engine, if any.
	Err error
}

func (e *Error) Error() string {
	msg := "transcript: " + e.Kind.String()
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s (index %d)", msg, e.Index)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind ErrorKind, index int, err error) *Error {
	return &Error{Kind: kind, Index: index, Err: err}
}

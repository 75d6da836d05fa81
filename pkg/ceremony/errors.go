package ceremony

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/kzg-ceremony/pkg/engine"
)

var (
	ErrNoTranscripts       = errors.New("ceremony: at least one transcript is required")
	ErrInconsistentHistory = errors.New("ceremony: participant history is inconsistent")
	ErrNoSigningAddress    = errors.New("ceremony: identity has no signing address")
)

// UnexpectedNumContributionsError is returned when a batch contribution does not hold
// exactly one contribution per transcript.
type UnexpectedNumContributionsError struct {
	Expected int
	Actual   int
}

func (e *UnexpectedNumContributionsError) Error() string {
	return fmt.Sprintf("ceremony: expected %d contributions, got %d", e.Expected, e.Actual)
}

// InvalidCeremonyError is returned when the contribution for one transcript is rejected.
//
// When several contributions are invalid, Index is one of them, not necessarily the lowest.
type InvalidCeremonyError struct {
	// Index of the rejected transcript
	Index int
	// Err is the underlying error, usually a *transcript.Error
	Err error
}

func (e *InvalidCeremonyError) Error() string {
	return fmt.Sprintf("ceremony: transcript %d: %s", e.Index, e.Err)
}

func (e *InvalidCeremonyError) Unwrap() error {
	return e.Err
}

// IsBackendFailure reports whether err was caused by engines which disagree.
//
// Such an error means the verifying software cannot be trusted, and the ceremony
// must be halted rather than the participant rejected.
func IsBackendFailure(err error) bool {
	return errors.Is(err, engine.ErrBackendDisagreement)
}

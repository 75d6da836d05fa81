package sequencer

import (
	"errors"
	"fmt"
	"time"

	"github.com/taurusgroup/kzg-ceremony/internal/params"
	"github.com/taurusgroup/kzg-ceremony/pkg/engine"
	"github.com/taurusgroup/kzg-ceremony/pkg/transcript"
)

// Config holds the settings of a Sequencer.
type Config struct {
	// Sizes of the transcripts, used when the store holds no ceremony yet.
	Sizes []params.Size
	// Engine is the name of the engine verifying contributions, see engine.ByName.
	Engine string
	// Workers is the number of verification workers, 0 meaning one per CPU.
	Workers int
	// RoundTimeout bounds the verification of one contribution. Zero disables it.
	RoundTimeout time.Duration
	// RequireSignature makes an ECDSA signature mandatory for Ethereum identities.
	RequireSignature bool
}

// DefaultConfig returns the settings of the Ethereum ceremony.
func DefaultConfig() Config {
	return Config{
		Sizes:            append([]params.Size(nil), params.EthereumSizes...),
		Engine:           engine.NameBoth,
		RoundTimeout:     3 * time.Minute,
		RequireSignature: false,
	}
}

var errInvalidConfig = errors.New("sequencer: invalid config")

// Validate checks that c can be used to run a ceremony.
func (c Config) Validate() error {
	if len(c.Sizes) == 0 {
		return fmt.Errorf("%w: no transcript sizes", errInvalidConfig)
	}
	for i, size := range c.Sizes {
		if err := transcript.ValidateSize(size); err != nil {
			return fmt.Errorf("%w: size %d: %v", errInvalidConfig, i, err)
		}
	}
	switch c.Engine {
	case engine.NamePairing, engine.NameBatched, engine.NameBoth:
	default:
		return fmt.Errorf("%w: unknown engine %q", errInvalidConfig, c.Engine)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: negative worker count", errInvalidConfig)
	}
	if c.RoundTimeout < 0 {
		return fmt.Errorf("%w: negative round timeout", errInvalidConfig)
	}
	return nil
}

// Package sequencer runs a ceremony: it hands out contributions one round at a time,
// verifies and commits them, and persists the result.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/kzg-ceremony/pkg/ceremony"
	"github.com/taurusgroup/kzg-ceremony/pkg/ecdsa"
	"github.com/taurusgroup/kzg-ceremony/pkg/engine"
	"github.com/taurusgroup/kzg-ceremony/pkg/identity"
	"github.com/taurusgroup/kzg-ceremony/pkg/pool"
	"github.com/taurusgroup/kzg-ceremony/pkg/storage"
)

var (
	ErrHalted            = errors.New("sequencer: ceremony halted")
	ErrRoundTimeout      = errors.New("sequencer: round timed out")
	ErrSignatureMismatch = errors.New("sequencer: signature does not match identity")
	ErrSizeMismatch      = errors.New("sequencer: stored ceremony does not match configured sizes")
)

// Store persists the ceremony after every round.
type Store interface {
	Load() (*ceremony.BatchTranscript, error)
	Save(*ceremony.BatchTranscript) error
}

// Sequencer serializes the rounds of a ceremony.
//
// All methods are safe for concurrent use; submissions are processed one at a time.
type Sequencer struct {
	cfg     Config
	eng     engine.Engine
	pl      *pool.Pool
	store   Store
	log     zerolog.Logger
	metrics *Metrics

	mu     sync.Mutex
	state  *ceremony.BatchTranscript
	halted error
}

// New loads the ceremony from store, or creates and saves a genesis ceremony if the store is empty.
func New(cfg Config, store Store, logger zerolog.Logger, metrics *Metrics) (*Sequencer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	eng, err := engine.ByName(cfg.Engine, nil)
	if err != nil {
		return nil, err
	}

	state, err := store.Load()
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if state, err = ceremony.New(cfg.Sizes); err != nil {
			return nil, err
		}
		if err = store.Save(state); err != nil {
			return nil, fmt.Errorf("sequencer: save genesis: %w", err)
		}
		logger.Info().Int("transcripts", len(cfg.Sizes)).Msg("created genesis ceremony")
	case err != nil:
		return nil, fmt.Errorf("sequencer: load: %w", err)
	default:
		if err = checkSizes(state, cfg); err != nil {
			return nil, err
		}
		logger.Info().Int("participants", state.NumParticipants()).Msg("loaded ceremony")
	}
	metrics.Participants.Set(float64(state.NumParticipants()))

	return &Sequencer{
		cfg:     cfg,
		eng:     eng,
		pl:      pool.NewPool(cfg.Workers),
		store:   store,
		log:     logger.With().Str("engine", eng.Name()).Logger(),
		metrics: metrics,
		state:   state,
	}, nil
}

func checkSizes(state *ceremony.BatchTranscript, cfg Config) error {
	sizes := state.Sizes()
	if len(sizes) != len(cfg.Sizes) {
		return fmt.Errorf("%w: %d transcripts, expected %d", ErrSizeMismatch, len(sizes), len(cfg.Sizes))
	}
	for i := range sizes {
		if sizes[i] != cfg.Sizes[i] {
			return fmt.Errorf("%w: transcript %d is %v, expected %v", ErrSizeMismatch, i, sizes[i], cfg.Sizes[i])
		}
	}
	return nil
}

// Contribution returns a template for the next round.
func (s *Sequencer) Contribution() (*ceremony.BatchContribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.halted != nil {
		return nil, fmt.Errorf("%w: %v", ErrHalted, s.halted)
	}
	return s.state.Contribution(), nil
}

// Snapshot returns a copy of the current ceremony.
func (s *Sequencer) Snapshot() *ceremony.BatchTranscript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Submit verifies c on behalf of id and, if it is valid, commits and persists it.
//
// If verification does not complete within the round timeout, the round is forfeited and
// ErrRoundTimeout is returned. Engines which disagree halt the sequencer.
// Submit works on a copy of c, which the caller may reuse as soon as Submit returns.
func (s *Sequencer) Submit(ctx context.Context, c *ceremony.BatchContribution, id identity.Identity) error {
	c = c.Clone()
	s.mu.Lock()
	log := s.log.With().Int("round", s.state.NumParticipants()+1).Stringer("identity", id).Logger()

	if halted := s.halted; halted != nil {
		s.mu.Unlock()
		s.reject(log, ReasonHalted, halted)
		return fmt.Errorf("%w: %v", ErrHalted, halted)
	}
	if err := s.checkSignature(c, id); err != nil {
		s.mu.Unlock()
		s.reject(log, ReasonSignature, err)
		return err
	}

	if s.cfg.RoundTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RoundTimeout)
		defer cancel()
	}

	// The round is applied to a copy, which replaces the state once it is committed.
	next, eng := s.state.Clone(), s.eng
	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- next.VerifyAdd(c, id, eng, s.pl)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		// The abandoned verification keeps the workers busy: it holds the lock until it returns.
		go func() {
			<-done
			s.mu.Unlock()
		}()
		s.reject(log, ReasonTimeout, ctx.Err())
		return fmt.Errorf("%w: %v", ErrRoundTimeout, ctx.Err())
	}
	defer s.mu.Unlock()

	elapsed := time.Since(start)
	s.metrics.VerifySeconds.Observe(elapsed.Seconds())
	log = log.With().Dur("duration", elapsed).Logger()

	if err != nil {
		reason := classify(err)
		if reason == ReasonBackend {
			s.halted = err
			log.Error().Err(err).Msg("engines disagree, halting ceremony")
		}
		s.reject(log, reason, err)
		return err
	}

	if err = s.store.Save(next); err != nil {
		s.halted = fmt.Errorf("storage failure: %w", err)
		log.Error().Err(err).Msg("failed to persist round, halting ceremony")
		s.metrics.Rejections.WithLabelValues(ReasonStorage).Inc()
		return fmt.Errorf("sequencer: save: %w", err)
	}
	s.state = next

	s.metrics.Rounds.Inc()
	s.metrics.Participants.Set(float64(s.state.NumParticipants()))
	log.Info().Int("slots", len(c.Contributions)).Msg("contribution committed")
	return nil
}

func (s *Sequencer) checkSignature(c *ceremony.BatchContribution, id identity.Identity) error {
	_, hasAddress := id.Address()
	if c.ECDSASignature.IsEmpty() {
		if s.cfg.RequireSignature && hasAddress {
			return fmt.Errorf("%w: %w", ErrSignatureMismatch, ecdsa.ErrMissingSignature)
		}
		return nil
	}
	if err := c.VerifySignature(id); err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureMismatch, err)
	}
	return nil
}

func (s *Sequencer) reject(log zerolog.Logger, reason string, err error) {
	s.metrics.Rejections.WithLabelValues(reason).Inc()
	log.Warn().Err(err).Str("reason", reason).Msg("contribution rejected")
}

func classify(err error) string {
	var shape *ceremony.UnexpectedNumContributionsError
	switch {
	case ceremony.IsBackendFailure(err):
		return ReasonBackend
	case errors.As(err, &shape):
		return ReasonShape
	default:
		return ReasonInvalid
	}
}

// Close stops the verification workers. The sequencer must not be used afterwards.
func (s *Sequencer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pl.TearDown()
}

package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/kzg-ceremony/pkg/ceremony"
)

var (
	headKey     = []byte("head")
	roundPrefix = []byte("round/")
)

func roundKey(n uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte(nil), roundPrefix...), n)
}

// BadgerStore keeps a cbor checkpoint of the ceremony after every round.
//
// Load returns the latest checkpoint, and Round any earlier one.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens or creates a store in dir. An empty dir keeps the store in memory.
func OpenBadger(dir string, logger zerolog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).
		WithInMemory(dir == "").
		WithLogger(badgerLogger{logger.With().Str("component", "badger").Logger()})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Save stores b as the checkpoint of its round and makes it the head.
func (s *BadgerStore) Save(b *ceremony.BatchTranscript) error {
	data, err := b.MarshalBinary()
	if err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}
	round := uint64(b.NumParticipants())
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(roundKey(round), data); err != nil {
			return err
		}
		return txn.Set(headKey, binary.BigEndian.AppendUint64(nil, round))
	})
}

// Load returns the latest checkpoint.
func (s *BadgerStore) Load() (*ceremony.BatchTranscript, error) {
	var b *ceremony.BatchTranscript
	err := s.db.View(func(txn *badger.Txn) error {
		head, err := get(txn, headKey)
		if err != nil {
			return err
		}
		if len(head) != 8 {
			return fmt.Errorf("storage: corrupt head pointer")
		}
		b, err = load(txn, binary.BigEndian.Uint64(head))
		return err
	})
	return b, err
}

// Round returns the ceremony as it was after round n, where round 0 is genesis.
func (s *BadgerStore) Round(n uint64) (*ceremony.BatchTranscript, error) {
	var b *ceremony.BatchTranscript
	err := s.db.View(func(txn *badger.Txn) (err error) {
		b, err = load(txn, n)
		return err
	})
	return b, err
}

// Close releases the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func load(txn *badger.Txn, round uint64) (*ceremony.BatchTranscript, error) {
	data, err := get(txn, roundKey(round))
	if err != nil {
		return nil, err
	}
	var b ceremony.BatchTranscript
	if err = b.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("storage: round %d: %w", round, err)
	}
	return &b, nil
}

func get(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return item.ValueCopy(nil)
}

type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, v ...interface{})   { l.log.Error().Msgf(format, v...) }
func (l badgerLogger) Warningf(format string, v ...interface{}) { l.log.Warn().Msgf(format, v...) }
func (l badgerLogger) Infof(format string, v ...interface{})    { l.log.Debug().Msgf(format, v...) }
func (l badgerLogger) Debugf(format string, v ...interface{})   { l.log.Trace().Msgf(format, v...) }

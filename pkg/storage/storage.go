// Package storage persists the state of a ceremony.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/taurusgroup/kzg-ceremony/pkg/ceremony"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("storage: no ceremony found")

// FileStore keeps the ceremony in a single JSON file, the public transcript.
type FileStore struct {
	Path string
}

// NewFileStore returns a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the ceremony, rejecting unknown fields.
func (s *FileStore) Load() (*ceremony.BatchTranscript, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	defer f.Close()
	b, err := ceremony.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", s.Path, err)
	}
	return b, nil
}

// Save replaces the file atomically, so that readers never see a partial ceremony.
func (s *FileStore) Save(b *ceremony.BatchTranscript) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err = b.Encode(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: encode: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

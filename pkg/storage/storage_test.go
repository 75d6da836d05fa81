package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/kzg-ceremony/internal/test"
	"github.com/taurusgroup/kzg-ceremony/pkg/ceremony"
	"github.com/taurusgroup/kzg-ceremony/pkg/engine"
)

// store is implemented by every store of this package.
type store interface {
	Load() (*ceremony.BatchTranscript, error)
	Save(*ceremony.BatchTranscript) error
}

func advance(t *testing.T, b *ceremony.BatchTranscript, p test.Participant) {
	c := b.Contribution()
	require.NoError(t, c.AddEntropy(engine.Pairing{}, test.Entropy(p.Identity.String()), p.Identity, nil))
	c.Sign(p.Key)
	require.NoError(t, b.VerifyAdd(c, p.Identity, engine.Pairing{}, nil))
}

func testStore(t *testing.T, s store) []*ceremony.BatchTranscript {
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNotFound)

	b, err := ceremony.New(test.Sizes)
	require.NoError(t, err)
	states := []*ceremony.BatchTranscript{b.Clone()}
	require.NoError(t, s.Save(b))

	for _, p := range test.Participants(2) {
		advance(t, b, p)
		states = append(states, b.Clone())
		require.NoError(t, s.Save(b))

		loaded, err := s.Load()
		require.NoError(t, err)
		assert.Equal(t, b, loaded)
	}
	return states
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.json")
	s := NewFileStore(path)
	testStore(t, s)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")
}

func TestFileStore_Strict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"transcripts":[],"unknown":true}`), 0o600))
	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestBadgerStore(t *testing.T) {
	for name, dir := range map[string]string{"memory": "", "disk": t.TempDir()} {
		t.Run(name, func(t *testing.T) {
			s, err := OpenBadger(dir, zerolog.Nop())
			require.NoError(t, err)
			defer s.Close()

			states := testStore(t, s)
			for n, want := range states {
				got, err := s.Round(uint64(n))
				require.NoError(t, err)
				assert.Equal(t, want, got)
				assert.Equal(t, n, got.NumParticipants())
			}
			_, err = s.Round(uint64(len(states)))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/kzg-ceremony/internal/params"
	"github.com/taurusgroup/kzg-ceremony/internal/test"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), "ceremony %v", args)
	return out.String()
}

func TestCeremony(t *testing.T) {
	for _, store := range []string{"file", "badger"} {
		t.Run(store, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "transcript")
			common := []string{"--store", store, "--path", path, "--sizes", "4x2,8x4", "--engine", "batched", "--log-level", "error"}
			with := func(args ...string) []string {
				return append(append([]string{}, args...), common...)
			}

			execute(t, with("init")...)
			execute(t, with("contribute", "--identity", "git|1|alice", "--entropy", "alice")...)

			signer := test.Participants(1)[0]
			execute(t, with("contribute", "--identity=", "--key", hexutil.Encode(signer.Key.Serialize()))...)

			out := execute(t, with("info")...)
			assert.Contains(t, out, "participants: 2")
			assert.Contains(t, out, "transcript 1: 8 G1 powers, 4 G2 powers")
			assert.Contains(t, out, "last contributor: "+signer.Identity.String())
			assert.Contains(t, out, "last signature: 0x")

			execute(t, with("verify")...)
			if store == "file" {
				execute(t, with("verify", path, path)...)
			}
		})
	}
}

func TestParseSizes(t *testing.T) {
	sizes, err := parseSizes(formatSizes(params.EthereumSizes))
	require.NoError(t, err)
	assert.Equal(t, params.EthereumSizes, sizes)

	for _, bad := range []string{"4096", "ax65", "4096xb"} {
		_, err := parseSizes([]string{bad})
		assert.Error(t, err, bad)
	}
}

package identity

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_String(t *testing.T) {
	addr := common.HexToAddress("0x00000000219ab540356cBB839Cbe05303d7705Fa")
	assert.Equal(t, "", None.String())
	assert.Equal(t, "eth|0x00000000219ab540356cbb839cbe05303d7705fa", Ethereum(addr).String())
	assert.Equal(t, "git|1234|@someone", GitHub(1234, "@someone").String())
}

func TestParse(t *testing.T) {
	addr := common.HexToAddress("0x00000000219ab540356cBB839Cbe05303d7705Fa")
	for _, id := range []Identity{None, Ethereum(addr), GitHub(42, "octocat"), GitHub(7, ""), GitHub(8, "a|b")} {
		parsed, err := Parse(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}

	for _, bad := range []string{
		"eth",
		"eth|0x1234",
		"eth|00000000219ab540356cBB839Cbe05303d7705Fa",
		"git|abc|name",
		"git|12",
		"btc|1",
	} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidIdentity, bad)
	}
}

func TestIdentity_Accessors(t *testing.T) {
	addr := common.HexToAddress("0x01")
	got, ok := Ethereum(addr).Address()
	assert.True(t, ok)
	assert.Equal(t, addr, got)
	_, ok = None.Address()
	assert.False(t, ok)

	id, name, ok := GitHub(7, "seven").GitHubAccount()
	assert.True(t, ok)
	assert.Equal(t, uint64(7), id)
	assert.Equal(t, "seven", name)

	assert.True(t, None.IsNone())
	assert.Equal(t, KindGitHub, GitHub(7, "seven").Kind())
	assert.Equal(t, "eth", KindEthereum.String())
}

func TestIdentity_JSON(t *testing.T) {
	ids := []Identity{None, GitHub(1, "a"), Ethereum(common.HexToAddress("0xdead"))}
	data, err := json.Marshal(ids)
	require.NoError(t, err)
	assert.Equal(t, `["","git|1|a","eth|0x000000000000000000000000000000000000dead"]`, string(data))

	var out []Identity
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, ids, out)

	assert.Error(t, json.Unmarshal([]byte(`["nope"]`), &out))
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type redisOptions struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func TestMarshal_EscapesEchoedTokens(t *testing.T) {
	data, err := SonicCodec{}.Marshal(map[string]string{"data": "<script>"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "<script>")

	var decoded map[string]string
	require.NoError(t, Unmarshal(data, &decoded))
	assert.Equal(t, "<script>", decoded["data"])
}

func TestUnmarshalConfig(t *testing.T) {
	var opts redisOptions
	require.NoError(t, UnmarshalConfig(map[string]interface{}{"host": "redis", "port": 6380}, &opts))
	assert.Equal(t, redisOptions{Host: "redis", Port: 6380}, opts)

	var typed redisOptions
	require.NoError(t, UnmarshalConfig(&redisOptions{Host: "local"}, &typed))
	assert.Equal(t, "local", typed.Host)

	assert.Error(t, UnmarshalConfig[redisOptions](nil, &typed))
}

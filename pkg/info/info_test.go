package info

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest(t *testing.T) {
	req := BuildRequest("node", "partitions")
	assert.Equal(t, "node\npartitions\n", string(req))
}

func TestParseResponse(t *testing.T) {
	body := []byte("node\tBB9020011AC4202\npartition-generation\t7\n")
	got, err := ParseResponse(body)
	require.NoError(t, err)
	assert.Equal(t, "BB9020011AC4202", got["node"])
	assert.Equal(t, "7", got["partition-generation"])
}

func TestParseResponseRejectsMissingTab(t *testing.T) {
	_, err := ParseResponse([]byte("malformed-line-without-tab\n"))
	assert.Error(t, err)
}

func TestKeyValuePairs(t *testing.T) {
	got := KeyValuePairs("context=namespace;id=5")
	assert.Equal(t, "namespace", got["context"])
	assert.Equal(t, "5", got["id"])
}

func TestParsePartitionReplicas(t *testing.T) {
	bits := []byte{0x01, 0x02}
	b64 := base64.StdEncoding.EncodeToString(bits)
	value := "test:" + b64
	got, err := ParsePartitionReplicas(value)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "test", got[0].Namespace)
	assert.True(t, OwnsPartition(got[0].Bits, 0))
	assert.False(t, OwnsPartition(got[0].Bits, 1))
	assert.True(t, OwnsPartition(got[0].Bits, 9))
}

func TestParseServices(t *testing.T) {
	got := ParseServices("10.0.0.1:3000;10.0.0.2:3000")
	assert.Equal(t, []string{"10.0.0.1:3000", "10.0.0.2:3000"}, got)
}

package cdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/aeroclient/pkg/aerotypes"
)

func TestContextBase64RoundTrip(t *testing.T) {
	ctx := Context{
		{Type: StepMapKey, Value: aerotypes.StringValue("nested"), Create: true},
		{Type: StepListIndex, Value: aerotypes.IntegerValue(2)},
	}
	b64, err := ctx.Base64()
	require.NoError(t, err)
	require.NotEmpty(t, b64)

	got, err := FromBase64(b64)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, StepMapKey, got[0].Type)
	assert.True(t, got[0].Create)
	assert.Equal(t, aerotypes.StringValue("nested"), got[0].Value)
	assert.Equal(t, StepListIndex, got[1].Type)
	assert.False(t, got[1].Create)
	assert.Equal(t, aerotypes.IntegerValue(2), got[1].Value)
}

func TestEmptyContextBase64(t *testing.T) {
	var ctx Context
	b64, err := ctx.Base64()
	require.NoError(t, err)
	assert.Equal(t, "", b64)

	got, err := FromBase64("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

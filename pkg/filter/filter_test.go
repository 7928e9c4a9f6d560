package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/aeroclient/pkg/aerotypes"
)

func TestBase64RoundTripSimpleComparison(t *testing.T) {
	e := Eq(BinInt("age"), Const(aerotypes.IntegerValue(30)))
	b64, err := Base64(e)
	require.NoError(t, err)
	require.NotEmpty(t, b64)

	got, err := FromBase64(b64)
	require.NoError(t, err)
	assert.Equal(t, OpEq, got.Op)
	require.Len(t, got.Args, 2)
	assert.Equal(t, OpBinInt, got.Args[0].Op)
	assert.Equal(t, "age", got.Args[0].BinName)
	assert.Equal(t, OpConst, got.Args[1].Op)
	assert.Equal(t, aerotypes.IntegerValue(30), got.Args[1].Const)
}

func TestBase64RoundTripBooleanTree(t *testing.T) {
	e := And(
		Gt(BinInt("age"), Const(aerotypes.IntegerValue(18))),
		Or(
			BinExists("vip"),
			Eq(BinStr("country"), Const(aerotypes.StringValue("US"))),
		),
	)
	b64, err := Base64(e)
	require.NoError(t, err)

	got, err := FromBase64(b64)
	require.NoError(t, err)
	assert.Equal(t, OpAnd, got.Op)
	require.Len(t, got.Args, 2)
	assert.Equal(t, OpGt, got.Args[0].Op)
	assert.Equal(t, OpOr, got.Args[1].Op)
	require.Len(t, got.Args[1].Args, 2)
	assert.Equal(t, OpBinExists, got.Args[1].Args[0].Op)
}

func TestBase64RoundTripNot(t *testing.T) {
	e := Not(BinExists("deleted"))
	b64, err := Base64(e)
	require.NoError(t, err)
	got, err := FromBase64(b64)
	require.NoError(t, err)
	assert.Equal(t, OpNot, got.Op)
	require.Len(t, got.Args, 1)
	assert.Equal(t, "deleted", got.Args[0].BinName)
}

func TestUnmarshalRejectsMalformedStream(t *testing.T) {
	raw, err := Marshal(Eq(BinInt("a"), Const(aerotypes.IntegerValue(1))))
	require.NoError(t, err)
	_, err = Unmarshal(raw[:len(raw)-3])
	assert.Error(t, err)
}

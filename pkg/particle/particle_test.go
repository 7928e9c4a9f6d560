package particle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/aeroclient/pkg/aerotypes"
)

func roundTrip(t *testing.T, v aerotypes.Value) aerotypes.Value {
	t.Helper()
	raw, err := Encode(v)
	require.NoError(t, err)
	got, err := Decode(v.ParticleType(), raw)
	require.NoError(t, err)
	return got
}

func TestRoundTripScalars(t *testing.T) {
	cases := []aerotypes.Value{
		aerotypes.NullValue{},
		aerotypes.IntegerValue(-42),
		aerotypes.IntegerValue(0),
		aerotypes.FloatValue(3.14159),
		aerotypes.BoolValue(true),
		aerotypes.BoolValue(false),
		aerotypes.StringValue("hello world"),
		aerotypes.BytesValue([]byte{0x01, 0x02, 0xff}),
		aerotypes.GeoJSONValue(`{"type":"Point"}`),
	}
	for _, c := range cases {
		got := roundTrip(t, c)
		assert.Equal(t, c, got)
	}
}

func TestRoundTripList(t *testing.T) {
	list := aerotypes.ListValue{
		aerotypes.IntegerValue(1),
		aerotypes.StringValue("two"),
		aerotypes.ListValue{aerotypes.IntegerValue(3), aerotypes.BoolValue(true)},
	}
	got := roundTrip(t, list)
	assert.Equal(t, list, got)
}

func TestRoundTripMapUnordered(t *testing.T) {
	m := aerotypes.MapValue{
		Order: aerotypes.MapOrderUnordered,
		Entries: []aerotypes.MapEntry{
			{Key: aerotypes.StringValue("b"), Value: aerotypes.IntegerValue(2)},
			{Key: aerotypes.StringValue("a"), Value: aerotypes.IntegerValue(1)},
		},
	}
	got := roundTrip(t, m)
	assert.Equal(t, m, got)
}

func TestRoundTripMapKeyOrdered(t *testing.T) {
	m := aerotypes.MapValue{
		Order: aerotypes.MapOrderKeyOrdered,
		Entries: []aerotypes.MapEntry{
			{Key: aerotypes.StringValue("a"), Value: aerotypes.IntegerValue(1)},
			{Key: aerotypes.StringValue("b"), Value: aerotypes.IntegerValue(2)},
			{Key: aerotypes.StringValue("c"), Value: aerotypes.IntegerValue(3)},
		},
	}
	got := roundTrip(t, m)
	assert.Equal(t, m, got)
}

func TestDecodeRejectsUnsortedKeyOrderedMap(t *testing.T) {
	m := aerotypes.MapValue{
		Order: aerotypes.MapOrderKeyOrdered,
		Entries: []aerotypes.MapEntry{
			{Key: aerotypes.StringValue("z"), Value: aerotypes.IntegerValue(1)},
			{Key: aerotypes.StringValue("a"), Value: aerotypes.IntegerValue(2)},
		},
	}
	raw, err := Encode(m)
	require.NoError(t, err)
	_, err = Decode(m.ParticleType(), raw)
	assert.Error(t, err)
}

func TestRoundTripNestedMapInList(t *testing.T) {
	inner := aerotypes.MapValue{
		Order: aerotypes.MapOrderKeyOrdered,
		Entries: []aerotypes.MapEntry{
			{Key: aerotypes.IntegerValue(1), Value: aerotypes.StringValue("one")},
			{Key: aerotypes.IntegerValue(2), Value: aerotypes.StringValue("two")},
		},
	}
	list := aerotypes.ListValue{aerotypes.IntegerValue(7), inner}
	got := roundTrip(t, list)
	assert.Equal(t, list, got)
}

func TestDecodeUnknownParticleType(t *testing.T) {
	_, err := Decode(250, []byte{1, 2, 3})
	assert.Error(t, err)
}

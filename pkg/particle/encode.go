package particle

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/ugorji/go/codec"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
	"github.com/cuemby/aeroclient/pkg/aerotypes"
)

// extTagOrder is the msgpack extension tag carrying a list/map's
// ordering metadata as the first element of the encoded container, the
// same position the server uses for its own extended-type marker.
const extTagOrder int8 = 0

var mpHandle = newMsgpackHandle()

func newMsgpackHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	h.RawToString = true
	return h
}

// mapSlice is a []interface{} that codec encodes as a msgpack map
// (alternating key, value) rather than an array, preserving the caller's
// entry order — required since MapValue's server-visible ordering
// contract depends on it.
type mapSlice []interface{}

// MapBySlice signals to the msgpack encoder that this slice's elements
// are key/value pairs, not array elements.
func (mapSlice) MapBySlice() {}

// Encode renders v as the bytes that belong in an op's value field.
// It does not return the particle type; callers obtain it from
// v.ParticleType() and set it on the op alongside these bytes (see
// binToOp in pkg/command).
func Encode(v aerotypes.Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, aerotypes.NullValue:
		return nil, nil
	case aerotypes.IntegerValue:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(val))
		return b, nil
	case aerotypes.FloatValue:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, math.Float64bits(float64(val)))
		return b, nil
	case aerotypes.BoolValue:
		if val {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case aerotypes.StringValue:
		return []byte(val), nil
	case aerotypes.GeoJSONValue:
		return []byte(val), nil
	case aerotypes.BytesValue:
		return append([]byte(nil), val...), nil
	case aerotypes.HLLValue:
		return append([]byte(nil), val...), nil
	case aerotypes.ListValue:
		return encodeContainer(val)
	case aerotypes.MapValue:
		return encodeContainer(val)
	case aerotypes.WildcardValue, aerotypes.InfinityValue:
		return nil, nil
	default:
		return nil, aeroerr.New(aeroerr.ClientError, "particle: unencodable value type %T", v)
	}
}

// encodeContainer produces a [type-marker byte][msgpack bytes] payload
// for a list or map value.
func encodeContainer(v aerotypes.Value) ([]byte, error) {
	wire, err := toWire(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, mpHandle)
	if err := enc.Encode(wire); err != nil {
		return nil, aeroerr.Wrap(aeroerr.ClientError, err, "particle: msgpack encode failed")
	}
	out := make([]byte, 1+buf.Len())
	out[0] = 0
	copy(out[1:], buf.Bytes())
	return out, nil
}

// toWire converts an aerotypes.Value tree into the interface{} shape
// codec's msgpack encoder understands, inserting the order extension
// header as the first list element / first map pair.
func toWire(v aerotypes.Value) (interface{}, error) {
	switch val := v.(type) {
	case nil, aerotypes.NullValue:
		return nil, nil
	case aerotypes.IntegerValue:
		return int64(val), nil
	case aerotypes.FloatValue:
		return float64(val), nil
	case aerotypes.BoolValue:
		return bool(val), nil
	case aerotypes.StringValue:
		return string(val), nil
	case aerotypes.GeoJSONValue:
		return string(val), nil
	case aerotypes.BytesValue:
		return []byte(val), nil
	case aerotypes.HLLValue:
		return []byte(val), nil
	case aerotypes.WildcardValue:
		return codec.RawExt{Tag: 1, Data: nil}, nil
	case aerotypes.InfinityValue:
		return codec.RawExt{Tag: 2, Data: nil}, nil
	case aerotypes.ListValue:
		elems := make([]interface{}, 0, len(val)+1)
		elems = append(elems, codec.RawExt{Tag: extTagOrder, Data: []byte{0}})
		for _, e := range val {
			w, err := toWire(e)
			if err != nil {
				return nil, err
			}
			elems = append(elems, w)
		}
		return elems, nil
	case aerotypes.MapValue:
		pairs := make(mapSlice, 0, 2*(len(val.Entries)+1))
		pairs = append(pairs, codec.RawExt{Tag: extTagOrder, Data: []byte{byte(val.Order)}}, nil)
		for _, e := range val.Entries {
			kw, err := toWire(e.Key)
			if err != nil {
				return nil, err
			}
			vw, err := toWire(e.Value)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, kw, vw)
		}
		return pairs, nil
	default:
		return nil, aeroerr.New(aeroerr.ClientError, "particle: unencodable nested value type %T", v)
	}
}

package particle

import (
	"bytes"
	"encoding/binary"
	"math"
	"reflect"

	"github.com/ugorji/go/codec"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
	"github.com/cuemby/aeroclient/pkg/aerotypes"
)

var mpDecodeHandle = newMsgpackDecodeHandle()

func newMsgpackDecodeHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.RawToString = true
	// Decoding every msgpack map into a flat, order-preserving slice
	// (rather than a Go map) is the only way to honor a key-ordered or
	// key-value-ordered MapValue's entry order on the way back in.
	h.MapType = reflect.TypeOf(mapSlice{})
	return h
}

// Decode reconstructs an aerotypes.Value from the raw op-value bytes for
// the given particle type. List and map payloads carry
// a one-byte marker followed by msgpack bytes; every other particle type
// is its fixed scalar encoding.
func Decode(particleType byte, raw []byte) (aerotypes.Value, error) {
	switch particleType {
	case aerotypes.ParticleTypeNull:
		return aerotypes.NullValue{}, nil
	case aerotypes.ParticleTypeInteger:
		if len(raw) != 8 {
			return nil, aeroerr.New(aeroerr.UnknownParticleType, "particle: integer value must be 8 bytes, got %d", len(raw))
		}
		return aerotypes.IntegerValue(int64(binary.BigEndian.Uint64(raw))), nil
	case aerotypes.ParticleTypeFloat:
		if len(raw) != 8 {
			return nil, aeroerr.New(aeroerr.UnknownParticleType, "particle: float value must be 8 bytes, got %d", len(raw))
		}
		return aerotypes.FloatValue(math.Float64frombits(binary.BigEndian.Uint64(raw))), nil
	case aerotypes.ParticleTypeBool:
		if len(raw) != 1 {
			return nil, aeroerr.New(aeroerr.UnknownParticleType, "particle: bool value must be 1 byte, got %d", len(raw))
		}
		return aerotypes.BoolValue(raw[0] != 0), nil
	case aerotypes.ParticleTypeString:
		return aerotypes.StringValue(raw), nil
	case aerotypes.ParticleTypeGeoJSON:
		return aerotypes.GeoJSONValue(raw), nil
	case aerotypes.ParticleTypeBlob:
		return aerotypes.BytesValue(append([]byte(nil), raw...)), nil
	case aerotypes.ParticleTypeHLL:
		return aerotypes.HLLValue(append([]byte(nil), raw...)), nil
	case aerotypes.ParticleTypeList, aerotypes.ParticleTypeMap:
		return decodeContainer(raw)
	case aerotypes.ParticleTypeWildcard:
		return aerotypes.WildcardValue{}, nil
	case aerotypes.ParticleTypeInfinity:
		return aerotypes.InfinityValue{}, nil
	default:
		return nil, aeroerr.New(aeroerr.UnknownParticleType, "particle: unknown particle type %d", particleType)
	}
}

func decodeContainer(raw []byte) (aerotypes.Value, error) {
	if len(raw) < 1 {
		return nil, aeroerr.New(aeroerr.TruncatedField, "particle: container value missing type marker")
	}
	payload := raw[1:]
	var generic interface{}
	dec := codec.NewDecoderBytes(payload, mpDecodeHandle)
	if err := dec.Decode(&generic); err != nil {
		return nil, aeroerr.Wrap(aeroerr.ClientError, err, "particle: msgpack decode failed")
	}
	// NewDecoderBytes decodes straight out of payload with no read-ahead
	// buffering, so NumBytesRead() is exactly how much of it the decoded
	// value consumed. The map self-correction rule rejects any extra
	// trailing bytes left over, the same as an unsorted key-ordered map:
	// a well-formed container consumes its payload exactly.
	if consumed := dec.NumBytesRead(); consumed < len(payload) {
		return nil, aeroerr.New(aeroerr.ClientError, "particle: container value has %d trailing bytes after decode", len(payload)-consumed)
	}
	return fromWire(generic)
}

func fromWire(generic interface{}) (aerotypes.Value, error) {
	switch v := generic.(type) {
	case nil:
		return aerotypes.NullValue{}, nil
	case int64:
		return aerotypes.IntegerValue(v), nil
	case uint64:
		return aerotypes.IntegerValue(int64(v)), nil
	case float64:
		return aerotypes.FloatValue(v), nil
	case bool:
		return aerotypes.BoolValue(v), nil
	case string:
		return aerotypes.StringValue(v), nil
	case []byte:
		return aerotypes.BytesValue(append([]byte(nil), v...)), nil
	case codec.RawExt:
		return extValue(v)
	case []interface{}:
		return decodeList(v)
	case mapSlice:
		return decodeMap(v)
	default:
		return nil, aeroerr.New(aeroerr.UnknownParticleType, "particle: undecodable msgpack element of type %T", generic)
	}
}

func extValue(ext codec.RawExt) (aerotypes.Value, error) {
	switch ext.Tag {
	case 1:
		return aerotypes.WildcardValue{}, nil
	case 2:
		return aerotypes.InfinityValue{}, nil
	default:
		return nil, aeroerr.New(aeroerr.UnknownParticleType, "particle: unexpected extension tag %d", ext.Tag)
	}
}

func decodeList(elems []interface{}) (aerotypes.Value, error) {
	if len(elems) == 0 {
		return aerotypes.ListValue{}, nil
	}
	if _, ok := elems[0].(codec.RawExt); !ok {
		return nil, aeroerr.New(aeroerr.OpSizeMismatch, "particle: list payload missing order marker")
	}
	out := make(aerotypes.ListValue, 0, len(elems)-1)
	for _, e := range elems[1:] {
		val, err := fromWire(e)
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
	return out, nil
}

func decodeMap(pairs mapSlice) (aerotypes.Value, error) {
	if len(pairs) < 2 {
		return nil, aeroerr.New(aeroerr.OpSizeMismatch, "particle: map payload missing order marker")
	}
	ext, ok := pairs[0].(codec.RawExt)
	if !ok || len(ext.Data) != 1 {
		return nil, aeroerr.New(aeroerr.OpSizeMismatch, "particle: map payload order marker malformed")
	}
	order := aerotypes.MapOrder(ext.Data[0])
	rest := pairs[2:]
	if len(rest)%2 != 0 {
		return nil, aeroerr.New(aeroerr.TruncatedField, "particle: map payload has an unpaired key")
	}
	entries := make([]aerotypes.MapEntry, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		k, err := fromWire(rest[i])
		if err != nil {
			return nil, err
		}
		v, err := fromWire(rest[i+1])
		if err != nil {
			return nil, err
		}
		entries = append(entries, aerotypes.MapEntry{Key: k, Value: v})
	}
	if order == aerotypes.MapOrderKeyOrdered || order == aerotypes.MapOrderKeyValueOrdered {
		if !entriesSortedByKey(entries) {
			return nil, aeroerr.New(aeroerr.ClientError, "particle: key-ordered map entries are not actually sorted")
		}
	}
	return aerotypes.MapValue{Order: order, Entries: entries}, nil
}

// entriesSortedByKey implements the map self-correction rule: a
// key-ordered map whose entries are not sorted is rejected on read
// rather than silently accepted.
func entriesSortedByKey(entries []aerotypes.MapEntry) bool {
	for i := 1; i < len(entries); i++ {
		if compareValues(entries[i-1].Key, entries[i].Key) > 0 {
			return false
		}
	}
	return true
}

// compareValues orders two scalar map keys. Mixed-type comparisons fall
// back to comparing their particle type byte, matching the server's
// total ordering across particle kinds.
func compareValues(a, b aerotypes.Value) int {
	if a.ParticleType() != b.ParticleType() {
		if a.ParticleType() < b.ParticleType() {
			return -1
		}
		return 1
	}
	switch av := a.(type) {
	case aerotypes.IntegerValue:
		bv := b.(aerotypes.IntegerValue)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case aerotypes.StringValue:
		bv := b.(aerotypes.StringValue)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case aerotypes.BytesValue:
		bv := b.(aerotypes.BytesValue)
		return bytes.Compare(av, bv)
	default:
		return 0
	}
}

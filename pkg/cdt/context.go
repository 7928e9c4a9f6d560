package cdt

import (
	"bytes"
	"encoding/base64"
	"reflect"

	"github.com/ugorji/go/codec"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
	"github.com/cuemby/aeroclient/pkg/aerotypes"
	"github.com/cuemby/aeroclient/pkg/particle"
)

// StepType selects how a context step navigates into a list or map.
type StepType byte

const (
	StepListIndex StepType = 0x10
	StepListValue StepType = 0x11
	StepListRank  StepType = 0x12
	StepMapKey    StepType = 0x20
	StepMapIndex  StepType = 0x21
	StepMapValue  StepType = 0x22
	StepMapRank   StepType = 0x23
)

// createFlag is or'd into a step's type byte to request that the server
// create the nested container if it doesn't already exist.
const createFlag StepType = 0x40

// Step is one hop of a Context path.
type Step struct {
	Type   StepType
	Value  aerotypes.Value
	Create bool
}

// Context is an ordered path into a nested list/map/bit/HLL value.
type Context []Step

// extTag is the msgpack extension tag used for a context element, kept
// distinct from the tags pkg/particle assigns wildcard/infinity/order
// markers since the two never share a decode call.
const extTag int8 = 10

var ctxHandle = newCtxHandle()

func newCtxHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	h.RawToString = true
	return h
}

// Marshal renders ctx as the msgpack extension element that must be
// prepended to a sub-op's argument array. An empty context marshals to
// the zero RawExt (tag 0, no data) — callers should omit the element
// entirely in that case.
func (ctx Context) Marshal() (codec.RawExt, error) {
	if len(ctx) == 0 {
		return codec.RawExt{}, nil
	}
	flat := make([]interface{}, 0, len(ctx)*2)
	for _, step := range ctx {
		typeByte := step.Type
		if step.Create {
			typeByte |= createFlag
		}
		wire, err := toWireValue(step.Value)
		if err != nil {
			return codec.RawExt{}, err
		}
		flat = append(flat, int64(typeByte), wire)
	}
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, ctxHandle)
	if err := enc.Encode(flat); err != nil {
		return codec.RawExt{}, aeroerr.Wrap(aeroerr.ClientError, err, "cdt: context encode failed")
	}
	return codec.RawExt{Tag: extTag, Data: buf.Bytes()}, nil
}

// Unmarshal decodes a context extension element back into its steps.
func Unmarshal(ext codec.RawExt) (Context, error) {
	if ext.Tag != extTag {
		return nil, aeroerr.New(aeroerr.ClientError, "cdt: extension tag %d is not a context", ext.Tag)
	}
	var flat []interface{}
	dec := codec.NewDecoder(bytes.NewReader(ext.Data), ctxDecodeHandle())
	if err := dec.Decode(&flat); err != nil {
		return nil, aeroerr.Wrap(aeroerr.ClientError, err, "cdt: context decode failed")
	}
	if len(flat)%2 != 0 {
		return nil, aeroerr.New(aeroerr.TruncatedField, "cdt: context has an unpaired step")
	}
	ctx := make(Context, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		typeVal, ok := flat[i].(int64)
		if !ok {
			return nil, aeroerr.New(aeroerr.ClientError, "cdt: context step type is not an integer")
		}
		rawType := StepType(typeVal)
		create := rawType&createFlag != 0
		val, err := fromWireValue(flat[i+1])
		if err != nil {
			return nil, err
		}
		ctx = append(ctx, Step{Type: rawType &^ createFlag, Value: val, Create: create})
	}
	return ctx, nil
}

func ctxDecodeHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.RawToString = true
	h.MapType = reflect.TypeOf(map[string]interface{}{})
	return h
}

// Base64 renders ctx as base64 text suitable for a filter-expression or
// persisted-index field.
func (ctx Context) Base64() (string, error) {
	ext, err := ctx.Marshal()
	if err != nil {
		return "", err
	}
	if len(ext.Data) == 0 && ext.Tag == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	buf.WriteByte(byte(ext.Tag))
	buf.Write(ext.Data)
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// FromBase64 reconstructs a Context from the text Base64 produced.
func FromBase64(s string) (Context, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, aeroerr.Wrap(aeroerr.ClientError, err, "cdt: context base64 decode failed")
	}
	if len(raw) < 1 {
		return nil, aeroerr.New(aeroerr.TruncatedField, "cdt: context base64 payload empty")
	}
	return Unmarshal(codec.RawExt{Tag: int8(raw[0]), Data: raw[1:]})
}

// toWireValue converts integer, string, bytes, float, bool, wildcard and
// infinity values itself; any other value type is handed to
// particle.Encode and embedded as its encoded bytes.
func toWireValue(v aerotypes.Value) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case aerotypes.IntegerValue:
		return int64(val), nil
	case aerotypes.StringValue:
		return string(val), nil
	case aerotypes.BytesValue:
		return []byte(val), nil
	case aerotypes.FloatValue:
		return float64(val), nil
	case aerotypes.BoolValue:
		return bool(val), nil
	case aerotypes.WildcardValue:
		return codec.RawExt{Tag: 1}, nil
	case aerotypes.InfinityValue:
		return codec.RawExt{Tag: 2}, nil
	default:
		raw, err := particle.Encode(v)
		if err != nil {
			return nil, err
		}
		return raw, nil
	}
}

func fromWireValue(generic interface{}) (aerotypes.Value, error) {
	switch v := generic.(type) {
	case nil:
		return aerotypes.NullValue{}, nil
	case int64:
		return aerotypes.IntegerValue(v), nil
	case uint64:
		return aerotypes.IntegerValue(int64(v)), nil
	case string:
		return aerotypes.StringValue(v), nil
	case []byte:
		return aerotypes.BytesValue(append([]byte(nil), v...)), nil
	case float64:
		return aerotypes.FloatValue(v), nil
	case bool:
		return aerotypes.BoolValue(v), nil
	case codec.RawExt:
		switch v.Tag {
		case 1:
			return aerotypes.WildcardValue{}, nil
		case 2:
			return aerotypes.InfinityValue{}, nil
		default:
			return nil, aeroerr.New(aeroerr.ClientError, "cdt: unexpected step value extension tag %d", v.Tag)
		}
	default:
		return nil, aeroerr.New(aeroerr.ClientError, "cdt: undecodable step value of type %T", generic)
	}
}

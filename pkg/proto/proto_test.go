package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Type: MessageTypeMessage, Size: 12345}
	packed := h.Pack()
	got, err := UnpackHeader(packed[:])
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestUnpackHeaderRejectsBadVersion(t *testing.T) {
	buf := []byte{9, 1, 0, 0, 0, 0, 0, 0}
	_, err := UnpackHeader(buf)
	assert.Error(t, err)
}

func TestUnpackHeaderRejectsBadType(t *testing.T) {
	buf := []byte{2, 200, 0, 0, 0, 0, 0, 0}
	_, err := UnpackHeader(buf)
	assert.Error(t, err)
}

func TestClMsgHeaderRoundTrip(t *testing.T) {
	h := ClMsgHeader{
		Info1:      Info1Read,
		Info2:      Info2Write,
		Info3:      Info3Last,
		ResultCode: 0,
		Generation: 7,
		NFields:    2,
		NOps:       3,
	}
	packed := h.Pack()
	got, err := UnpackClMsgHeader(packed[:])
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestFieldRoundTrip(t *testing.T) {
	f := Field{Type: FieldNamespace, Value: []byte("test")}
	buf := f.Pack(nil)
	got, consumed, err := UnpackField(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), consumed)
	assert.Equal(t, f, got)
}

func TestOpRoundTrip(t *testing.T) {
	o := Op{Code: OpWrite, ParticleType: 1, Name: "bin1", Value: []byte{0, 0, 0, 0, 0, 0, 0, 42}}
	buf, err := o.Pack(nil)
	require.NoError(t, err)
	got, consumed, err := UnpackOp(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), consumed)
	assert.Equal(t, o, got)
}

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{
		Header: ClMsgHeader{Info1: Info1Read, ResultCode: 0},
		Fields: []Field{
			{Type: FieldNamespace, Value: []byte("test")},
			{Type: FieldSet, Value: []byte("demo")},
		},
		Ops: []Op{
			{Code: OpRead, ParticleType: 0, Name: "", Value: nil},
		},
	}
	buf, err := Pack(msg)
	require.NoError(t, err)
	got, err := Unpack(buf, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, uint16(len(msg.Fields)), got.Header.NFields)
	assert.Equal(t, uint16(len(msg.Ops)), got.Header.NOps)
	assert.Equal(t, msg.Fields, got.Fields)
	assert.Equal(t, msg.Ops, got.Ops)
}

func TestUnpackRejectsOversizedMessage(t *testing.T) {
	msg := Message{Header: ClMsgHeader{}, Fields: []Field{{Type: FieldNamespace, Value: make([]byte, 100)}}}
	buf, err := Pack(msg)
	require.NoError(t, err)
	_, err = Unpack(buf, 8)
	assert.Error(t, err)
}

func TestUnpackRejectsTrailingBytes(t *testing.T) {
	msg := Message{Header: ClMsgHeader{}}
	buf, err := Pack(msg)
	require.NoError(t, err)
	buf = append(buf, 0xff, 0xff)
	// bump the declared proto size to match, so only the trailing-bytes
	// check (not the truncation check) is exercised
	buf[7] = byte(len(buf) - HeaderSize)
	_, err = Unpack(buf, 1<<20)
	assert.Error(t, err)
}

func TestUnpackRejectsTruncatedOp(t *testing.T) {
	msg := Message{
		Header: ClMsgHeader{NOps: 1},
		Ops:    []Op{{Code: OpRead, Name: "bin"}},
	}
	buf, err := Pack(msg)
	require.NoError(t, err)
	truncated := buf[:len(buf)-2]
	// fix the proto size to reflect the truncated body length
	truncated[7] = byte(len(truncated) - HeaderSize)
	_, err = Unpack(truncated, 1<<20)
	assert.Error(t, err)
}

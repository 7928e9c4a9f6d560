package proto

import (
	"encoding/binary"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
)

// HeaderSize is the fixed length of the proto header in bytes.
const HeaderSize = 8

// MessageType identifies the payload that follows a proto header.
type MessageType byte

const (
	MessageTypeInfo       MessageType = 1
	MessageTypeSecurity   MessageType = 2
	MessageTypeMessage    MessageType = 3
	MessageTypeCompressed MessageType = 4
)

const protoVersion byte = 2

// Header is the 8-byte envelope carried by every request/response: one
// version byte, one type byte, and a 48-bit big-endian payload size.
type Header struct {
	Type MessageType
	Size uint64
}

// Pack serializes h into an 8-byte proto header.
func (h Header) Pack() [HeaderSize]byte {
	var buf [HeaderSize]byte
	buf[0] = protoVersion
	buf[1] = byte(h.Type)
	var sizeBuf [8]byte
	binary.BigEndian.PutUint64(sizeBuf[:], h.Size)
	copy(buf[2:], sizeBuf[2:])
	return buf
}

// UnpackHeader validates and parses an 8-byte proto header.
func UnpackHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, aeroerr.New(aeroerr.TruncatedField, "proto: header requires %d bytes, got %d", HeaderSize, len(buf))
	}
	if buf[0] != protoVersion {
		return Header{}, aeroerr.New(aeroerr.InvalidProtoVersion, "proto: unsupported proto version %d", buf[0])
	}
	t := MessageType(buf[1])
	switch t {
	case MessageTypeInfo, MessageTypeSecurity, MessageTypeMessage, MessageTypeCompressed:
	default:
		return Header{}, aeroerr.New(aeroerr.InvalidProtoType, "proto: unknown proto type %d", buf[1])
	}
	var sizeBuf [8]byte
	copy(sizeBuf[2:], buf[2:8])
	size := binary.BigEndian.Uint64(sizeBuf[:])
	return Header{Type: t, Size: size}, nil
}

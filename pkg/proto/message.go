package proto

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
)

// Message is a fully decoded transaction: its cl_msg header plus the
// fields and ops that followed it.
type Message struct {
	Header ClMsgHeader
	Fields []Field
	Ops    []Op
}

// Pack serializes msg into a complete wire buffer, including its
// leading 8-byte proto header.
func Pack(msg Message) ([]byte, error) {
	msg.Header.NFields = uint16(len(msg.Fields))
	msg.Header.NOps = uint16(len(msg.Ops))

	body := make([]byte, 0, ClMsgHeaderSize+64)
	hdr := msg.Header.Pack()
	body = append(body, hdr[:]...)
	for _, f := range msg.Fields {
		body = f.Pack(body)
	}
	for _, op := range msg.Ops {
		var err error
		body, err = op.Pack(body)
		if err != nil {
			return nil, err
		}
	}

	proto := Header{Type: MessageTypeMessage, Size: uint64(len(body))}
	protoHdr := proto.Pack()
	out := make([]byte, 0, HeaderSize+len(body))
	out = append(out, protoHdr[:]...)
	out = append(out, body...)
	return out, nil
}

// Unpack parses a complete wire buffer (proto header plus cl_msg
// header, fields, and ops) into a Message. maxMessageSize bounds the
// proto header's declared payload size; a declared size above it is
// rejected before any allocation happens.
func Unpack(buf []byte, maxMessageSize uint64) (*Message, error) {
	if len(buf) < HeaderSize {
		return nil, aeroerr.New(aeroerr.TruncatedField, "proto: buffer shorter than proto header")
	}
	ph, err := UnpackHeader(buf)
	if err != nil {
		return nil, err
	}
	if ph.Size > maxMessageSize {
		return nil, aeroerr.New(aeroerr.MessageTooLarge, "proto: declared message size %d exceeds max %d", ph.Size, maxMessageSize)
	}
	body := buf[HeaderSize:]
	if uint64(len(body)) < ph.Size {
		return nil, aeroerr.New(aeroerr.TruncatedField, "proto: body shorter than declared size %d", ph.Size)
	}
	body = body[:ph.Size]

	if ph.Type == MessageTypeCompressed {
		body, err = inflate(body)
		if err != nil {
			return nil, err
		}
	}

	clHeader, err := UnpackClMsgHeader(body)
	if err != nil {
		return nil, err
	}
	offset := ClMsgHeaderSize
	fields, consumed, err := UnpackFields(body[offset:], int(clHeader.NFields))
	if err != nil {
		return nil, err
	}
	offset += consumed
	ops, consumed, err := UnpackOps(body[offset:], int(clHeader.NOps))
	if err != nil {
		return nil, err
	}
	offset += consumed
	if offset != len(body) {
		return nil, aeroerr.New(aeroerr.OpSizeMismatch, "proto: %d trailing bytes after declared fields/ops", len(body)-offset)
	}

	return &Message{Header: clHeader, Fields: fields, Ops: ops}, nil
}

func inflate(compressed []byte) ([]byte, error) {
	if len(compressed) < 8 {
		return nil, aeroerr.New(aeroerr.TruncatedField, "proto: compressed payload missing uncompressed-size prefix")
	}
	uncompressedSize := binary.BigEndian.Uint64(compressed[:8])
	r, err := zlib.NewReader(bytes.NewReader(compressed[8:]))
	if err != nil {
		return nil, aeroerr.Wrap(aeroerr.ClientError, err, "proto: zlib reader init failed")
	}
	defer r.Close()
	out := make([]byte, 0, uncompressedSize)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, aeroerr.Wrap(aeroerr.ClientError, err, "proto: zlib decompress failed")
	}
	return buf.Bytes(), nil
}

package proto

import (
	"encoding/binary"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
)

// ClMsgHeaderSize is the fixed length of a cl_msg header in bytes.
const ClMsgHeaderSize = 22

// Info1 flags select read-side behavior.
type Info1 byte

const (
	Info1Read           Info1 = 0x01
	Info1GetAll         Info1 = 0x02
	Info1Batch          Info1 = 0x08
	Info1NoBinData      Info1 = 0x20
	Info1ConsistencyAll Info1 = 0x40
)

// Info2 flags select write-side behavior.
type Info2 byte

const (
	Info2Write           Info2 = 0x01
	Info2Delete          Info2 = 0x02
	Info2GenerationEqual Info2 = 0x04
	Info2GenerationGT    Info2 = 0x08
	Info2DurableDelete   Info2 = 0x10
	Info2CreateOnly      Info2 = 0x20
	Info2RespondAllOps   Info2 = 0x80
)

// Info3 flags carry stream termination and exists-action semantics.
type Info3 byte

const (
	Info3Last            Info3 = 0x01
	Info3CommitMaster    Info3 = 0x02
	Info3UpdateOnly      Info3 = 0x04
	Info3CreateOrReplace Info3 = 0x08
	Info3ReplaceOnly     Info3 = 0x10
)

// ClMsgHeader is the 22-byte header that precedes a transaction's fields
// and ops.
type ClMsgHeader struct {
	Info1          Info1
	Info2          Info2
	Info3          Info3
	ResultCode     byte
	Generation     uint32
	RecordTTL      uint32
	TransactionTTL uint32
	NFields        uint16
	NOps           uint16
}

// Pack serializes h into its 22-byte wire form.
func (h ClMsgHeader) Pack() [ClMsgHeaderSize]byte {
	var buf [ClMsgHeaderSize]byte
	buf[0] = ClMsgHeaderSize
	buf[1] = byte(h.Info1)
	buf[2] = byte(h.Info2)
	buf[3] = byte(h.Info3)
	buf[4] = 0 // pad
	buf[5] = h.ResultCode
	binary.BigEndian.PutUint32(buf[6:10], h.Generation)
	binary.BigEndian.PutUint32(buf[10:14], h.RecordTTL)
	binary.BigEndian.PutUint32(buf[14:18], h.TransactionTTL)
	binary.BigEndian.PutUint16(buf[18:20], h.NFields)
	binary.BigEndian.PutUint16(buf[20:22], h.NOps)
	return buf
}

// UnpackClMsgHeader parses a 22-byte cl_msg header.
func UnpackClMsgHeader(buf []byte) (ClMsgHeader, error) {
	if len(buf) < ClMsgHeaderSize {
		return ClMsgHeader{}, aeroerr.New(aeroerr.TruncatedField, "proto: cl_msg header requires %d bytes, got %d", ClMsgHeaderSize, len(buf))
	}
	if buf[0] != ClMsgHeaderSize {
		return ClMsgHeader{}, aeroerr.New(aeroerr.TruncatedField, "proto: cl_msg header_sz field is %d, expected %d", buf[0], ClMsgHeaderSize)
	}
	return ClMsgHeader{
		Info1:          Info1(buf[1]),
		Info2:          Info2(buf[2]),
		Info3:          Info3(buf[3]),
		ResultCode:     buf[5],
		Generation:     binary.BigEndian.Uint32(buf[6:10]),
		RecordTTL:      binary.BigEndian.Uint32(buf[10:14]),
		TransactionTTL: binary.BigEndian.Uint32(buf[14:18]),
		NFields:        binary.BigEndian.Uint16(buf[18:20]),
		NOps:           binary.BigEndian.Uint16(buf[20:22]),
	}, nil
}

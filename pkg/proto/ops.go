package proto

import (
	"encoding/binary"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
)

// OpCode identifies the operation an Op performs.
type OpCode byte

const (
	OpRead       OpCode = 1
	OpWrite      OpCode = 2
	OpCDTRead    OpCode = 3
	OpCDTModify  OpCode = 4
	OpMapRead    OpCode = 5
	OpMapModify  OpCode = 6
	OpIncr       OpCode = 7
	OpExpRead    OpCode = 8
	OpExpModify  OpCode = 9
	OpAppend     OpCode = 10
	OpPrepend    OpCode = 11
	OpTouch      OpCode = 12
	OpBitRead    OpCode = 13
	OpBitModify  OpCode = 14
	OpDelete     OpCode = 15
	OpHLLRead    OpCode = 16
	OpHLLModify  OpCode = 17
)

// opWireVersion is the constant "version" byte every op carries; the
// server-side meaning of a nonzero value is obsolete and unused here.
const opWireVersion = 0

// opHeaderSize is op_sz(4) + op(1) + particle_type(1) + version(1) + name_sz(1).
const opHeaderSize = 8

// Op is a single transaction operation: an op code, the bin it targets,
// and its particle-encoded value.
type Op struct {
	Code         OpCode
	ParticleType byte
	Name         string
	Value        []byte
}

// Size returns the number of bytes Pack writes for this op.
func (o Op) Size() int {
	return opHeaderSize - 4 + len(o.Name) + len(o.Value) + 4
}

// Pack appends o's wire form to buf and returns the extended slice.
func (o Op) Pack(buf []byte) ([]byte, error) {
	if len(o.Name) > 255 {
		return nil, aeroerr.New(aeroerr.ParamError, "proto: op name %q exceeds 255 bytes", o.Name)
	}
	body := 1 + 1 + 1 + 1 + len(o.Name) + len(o.Value)
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(body))
	hdr[4] = byte(o.Code)
	hdr[5] = o.ParticleType
	hdr[6] = opWireVersion
	hdr[7] = byte(len(o.Name))
	buf = append(buf, hdr[:]...)
	buf = append(buf, o.Name...)
	buf = append(buf, o.Value...)
	return buf, nil
}

// UnpackOp parses a single op starting at buf[0] and returns the op plus
// the number of bytes consumed.
func UnpackOp(buf []byte) (Op, int, error) {
	if len(buf) < 4 {
		return Op{}, 0, aeroerr.New(aeroerr.TruncatedOp, "proto: op size prefix truncated")
	}
	opSz := binary.BigEndian.Uint32(buf[0:4])
	total := 4 + int(opSz)
	if total < 4+4 {
		return Op{}, 0, aeroerr.New(aeroerr.OpSizeMismatch, "proto: op_sz %d too small for op header", opSz)
	}
	if len(buf) < total {
		return Op{}, 0, aeroerr.New(aeroerr.TruncatedOp, "proto: op declares %d bytes, only %d available", total, len(buf))
	}
	code := OpCode(buf[4])
	particleType := buf[5]
	nameSz := int(buf[7])
	nameStart := 8
	nameEnd := nameStart + nameSz
	if nameEnd > total {
		return Op{}, 0, aeroerr.New(aeroerr.OpSizeMismatch, "proto: op name_sz %d overruns declared op size", nameSz)
	}
	name := string(buf[nameStart:nameEnd])
	value := append([]byte(nil), buf[nameEnd:total]...)
	return Op{Code: code, ParticleType: particleType, Name: name, Value: value}, total, nil
}

// UnpackOps parses n consecutive ops starting at buf[0].
func UnpackOps(buf []byte, n int) ([]Op, int, error) {
	ops := make([]Op, 0, n)
	offset := 0
	for i := 0; i < n; i++ {
		op, consumed, err := UnpackOp(buf[offset:])
		if err != nil {
			return nil, 0, err
		}
		ops = append(ops, op)
		offset += consumed
	}
	return ops, offset, nil
}

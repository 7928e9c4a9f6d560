package proto

import (
	"encoding/binary"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
)

// FieldType tags a length-prefixed field in a transaction's field list.
type FieldType byte

const (
	FieldNamespace       FieldType = 0
	FieldSet             FieldType = 1
	FieldKey             FieldType = 2
	FieldDigestRIPE      FieldType = 4
	FieldTransactionID   FieldType = 7
	FieldScanOptions     FieldType = 8
	FieldIndexRange      FieldType = 9
	FieldIndexName       FieldType = 10
	FieldQueryBinList    FieldType = 11
	FieldUDFFilename     FieldType = 12
	FieldUDFFunction     FieldType = 13
	FieldUDFArgList      FieldType = 14
	FieldUDFOp           FieldType = 15
	FieldFilterExpr      FieldType = 16
	FieldRecordVersion   FieldType = 17
)

// Field is one self-describing entry of a transaction's field list.
type Field struct {
	Type  FieldType
	Value []byte
}

// fieldHeaderSize is the 4-byte size prefix plus the 1-byte type tag.
const fieldHeaderSize = 5

// Size returns the number of bytes Pack writes for this field.
func (f Field) Size() int {
	return fieldHeaderSize + len(f.Value)
}

// Pack appends f's wire form to buf and returns the extended slice.
func (f Field) Pack(buf []byte) []byte {
	var hdr [fieldHeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(1+len(f.Value)))
	hdr[4] = byte(f.Type)
	buf = append(buf, hdr[:]...)
	buf = append(buf, f.Value...)
	return buf
}

// UnpackField parses a single field starting at buf[0] and returns the
// field plus the number of bytes consumed.
func UnpackField(buf []byte) (Field, int, error) {
	if len(buf) < 4 {
		return Field{}, 0, aeroerr.New(aeroerr.TruncatedField, "proto: field size prefix truncated")
	}
	sz := binary.BigEndian.Uint32(buf[0:4])
	if sz < 1 {
		return Field{}, 0, aeroerr.New(aeroerr.TruncatedField, "proto: field size %d smaller than type tag", sz)
	}
	total := 4 + int(sz)
	if len(buf) < total {
		return Field{}, 0, aeroerr.New(aeroerr.TruncatedField, "proto: field declares %d bytes, only %d available", total, len(buf))
	}
	f := Field{
		Type:  FieldType(buf[4]),
		Value: append([]byte(nil), buf[5:total]...),
	}
	return f, total, nil
}

// UnpackFields parses n consecutive fields starting at buf[0].
func UnpackFields(buf []byte, n int) ([]Field, int, error) {
	fields := make([]Field, 0, n)
	offset := 0
	for i := 0; i < n; i++ {
		f, consumed, err := UnpackField(buf[offset:])
		if err != nil {
			return nil, 0, err
		}
		fields = append(fields, f)
		offset += consumed
	}
	return fields, offset, nil
}

package aerotypes

import (
	"github.com/cuemby/aeroclient/pkg/aeroerr"
	"github.com/cuemby/aeroclient/pkg/digest"
)

const (
	maxNamespaceLen = 31
	maxSetLen       = 63
)

// KeyValue is the user-supplied identifier inside a Key. Only the three
// particle kinds the server accepts as a record key implement it:
// integers, strings, and opaque byte strings.
type KeyValue interface {
	// ParticleType returns the one-byte wire tag used when hashing and
	// when serializing the digest/key field.
	ParticleType() byte
	// CanonicalBytes returns the exact byte sequence fed to the digest
	// hash: 8-byte big-endian for integers, raw UTF-8 for strings, raw
	// bytes for blobs.
	CanonicalBytes() []byte
	// String renders the value for logging/diagnostics.
	String() string
}

// IntegerValue is a signed 64-bit integer key.
type IntegerValue int64

// ParticleType implements KeyValue.
func (v IntegerValue) ParticleType() byte { return ParticleTypeInteger }

// CanonicalBytes implements KeyValue.
func (v IntegerValue) CanonicalBytes() []byte {
	b := make([]byte, 8)
	u := uint64(v)
	for i := 7; i >= 0; i-- {
		b[i] = byte(u)
		u >>= 8
	}
	return b
}

func (v IntegerValue) String() string { return int64ToString(int64(v)) }

// StringValue is a UTF-8 string key.
type StringValue string

// ParticleType implements KeyValue.
func (v StringValue) ParticleType() byte { return ParticleTypeString }

// CanonicalBytes implements KeyValue.
func (v StringValue) CanonicalBytes() []byte { return []byte(v) }

func (v StringValue) String() string { return string(v) }

// BytesValue is an opaque blob key.
type BytesValue []byte

// ParticleType implements KeyValue.
func (v BytesValue) ParticleType() byte { return ParticleTypeBlob }

// CanonicalBytes implements KeyValue.
func (v BytesValue) CanonicalBytes() []byte { return v }

func (v BytesValue) String() string { return "<bytes>" }

// Key identifies a single record: a namespace, an optional set, and a
// user-supplied value. The digest — not the user key — is the
// authoritative on-wire identifier; Digest is computed once at
// construction and cached.
type Key struct {
	Namespace string
	Set       string
	Value     KeyValue
	digestVal [digest.Size]byte
}

// NewKey validates namespace/set lengths and computes the record digest.
func NewKey(namespace, set string, value KeyValue) (*Key, error) {
	if len(namespace) == 0 || len(namespace) > maxNamespaceLen {
		return nil, aeroerr.New(aeroerr.ParamError, "namespace length %d out of range (1..%d)", len(namespace), maxNamespaceLen)
	}
	if len(set) > maxSetLen {
		return nil, aeroerr.New(aeroerr.ParamError, "set length %d exceeds max %d", len(set), maxSetLen)
	}
	if value == nil {
		return nil, aeroerr.New(aeroerr.ParamError, "key value must not be nil")
	}
	k := &Key{
		Namespace: namespace,
		Set:       set,
		Value:     value,
		digestVal: digest.Compute(set, value.ParticleType(), value.CanonicalBytes()),
	}
	return k, nil
}

// NewKeyWithDigest builds a Key from a digest the caller already holds
// (e.g. one read back from a scan callback), without a user key value.
func NewKeyWithDigest(namespace, set string, d [digest.Size]byte) *Key {
	return &Key{Namespace: namespace, Set: set, digestVal: d}
}

// Digest returns the 20-byte RIPEMD-160 record digest.
func (k *Key) Digest() [digest.Size]byte { return k.digestVal }

// PartitionID returns the partition id this key's digest maps to for a
// cluster with the given partition count (must be a power of two).
func (k *Key) PartitionID(nPartitions int) int {
	return digest.PartitionID(k.digestVal, nPartitions)
}

func int64ToString(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	var buf [20]byte
	i := len(buf)
	u := uint64(v)
	if neg {
		u = uint64(-v)
	}
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

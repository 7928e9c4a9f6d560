package digest

import (
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required for bit-exact server compatibility
)

// Size is the length in bytes of a record digest.
const Size = 20

// Compute hashes set||typeByte||keyBytes into a 20-byte digest, exactly as
// the server does when it receives a digest-less write and must derive
// one itself.
func Compute(set string, typeByte byte, keyBytes []byte) [Size]byte {
	h := ripemd160.New()
	_, _ = h.Write([]byte(set))
	_, _ = h.Write([]byte{typeByte})
	_, _ = h.Write(keyBytes)
	var out [Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// PartitionID computes the partition id: the first two digest bytes
// read little-endian, masked to n_partitions-1. n_partitions must be a
// power of two.
func PartitionID(d [Size]byte, nPartitions int) int {
	id := uint16(d[0]) | uint16(d[1])<<8
	return int(id) & (nPartitions - 1)
}

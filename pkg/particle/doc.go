// Package particle converts between aerotypes.Value — the tagged-union
// bin value — and the byte representations the wire protocol carries in
// an op's value field. Scalar particles (integer, float, string, blob,
// bool, GeoJSON) use their server-defined fixed encodings; list and map
// particles are msgpack, built with github.com/ugorji/go/codec, plus a
// one-byte extension header carrying the map's ordering mode.
//
// Type definitions live in pkg/aerotypes, not here, so that aerotypes
// (including its key hashing via pkg/digest) can be imported by this
// package without a cycle back into the codec.
package particle

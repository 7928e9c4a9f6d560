/*
Package digest computes the 20-byte RIPEMD-160 record digest used as the
on-wire identity of every key, and derives a partition id from it.

	digest = RIPEMD160(set || type_byte || canonical_key_bytes)

The digest, not the user-supplied key, is what travels in the
digest-ripe wire field and what the partition table is keyed by.
RIPEMD-160 is absent from the standard library, so this package is built
on golang.org/x/crypto/ripemd160.
*/
package digest

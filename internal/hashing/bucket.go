// Package hashing maps stable record identifiers onto sampling buckets.
//
// A bucket is the SHA-256 digest of the identifier, read as a big-endian
// unsigned integer, modulo Buckets. The mapping has no seed and no state, so
// the same identifier lands in the same bucket on every machine and run.
package hashing

import "crypto/sha256"

// Buckets is the number of buckets; Bucket always returns a value in [0, Buckets).
const Buckets = 100

// Bucket returns the bucket of identifier.
func Bucket(identifier string) int {
	digest := sha256.Sum256([]byte(identifier))
	return reduce(digest[:], Buckets)
}

// reduce computes the big-endian integer held in digest modulo m without
// materialising the 256-bit value.
func reduce(digest []byte, m int) int {
	remainder := 0
	for _, b := range digest {
		remainder = (remainder<<8 | int(b)) % m
	}
	return remainder
}

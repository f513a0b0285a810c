// Package hashing supplies the 64-bit hash functions used to place strings in an
// intern table. A Hasher provides two independent functions: Hash picks the home
// slot and HashSeed the probe step.
package hashing

import (
	"unsafe"

	"github.com/philpearl/aeshash"
	"github.com/zeebo/xxh3"
)

// Hasher hashes byte strings. Implementations must be deterministic for the life
// of the process.
type Hasher interface {
	Hash(b []byte) uint64
	HashSeed(b []byte, seed uint64) uint64
}

// Default is the hasher used when none is configured.
var Default Hasher = XXH3{}

// XXH3 hashes with xxh3. Hash and HashSeed are independent for any seed other
// than zero.
type XXH3 struct{}

// Hash returns the xxh3 hash of b
func (XXH3) Hash(b []byte) uint64 {
	return xxh3.Hash(b)
}

// HashSeed returns the xxh3 hash of b with the given seed
func (XXH3) HashSeed(b []byte, seed uint64) uint64 {
	return xxh3.HashSeed(b, seed)
}

// AES hashes with the AES-NI based aeshash. aeshash produces 32 bits, so the result
// is spread over 64 bits with a finalizer. Strings whose 32-bit hashes collide
// share a probe sequence, which costs probes but not correctness.
type AES struct{}

// Hash returns the aeshash of b mixed with its length
func (AES) Hash(b []byte) uint64 {
	return mix(uint64(aeshash.Hash(unsafeString(b))) | uint64(len(b))<<32)
}

// HashSeed returns the aeshash of b mixed with seed
func (AES) HashSeed(b []byte, seed uint64) uint64 {
	h := uint64(aeshash.Hash(unsafeString(b)))
	return mix(h<<32 | h ^ seed)
}

// mix is the splitmix64 finalizer
func mix(h uint64) uint64 {
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	return h
}

func unsafeString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

package util

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// --------------------------------------------------------------------------
// General Utility Functions
// --------------------------------------------------------------------------

// GenerateSeed creates a random seed for internal hash distribution
func GenerateSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// the clock is good enough when the system random source is unavailable
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// --------------------------------------------------------------------------
// Hash Functions
// --------------------------------------------------------------------------

const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

// fnvMix folds the 8 bytes of v into an FNV-1a state
func fnvMix(hash uint64, v uint64) uint64 {
	for i := 0; i < 8; i++ {
		hash ^= v & 0xff
		hash *= fnvPrime64
		v >>= 8
	}
	return hash
}

// finalize spreads the entropy of the FNV state over all 64 bits (splitmix64 finalizer)
func finalize(h uint64) uint64 {
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	return h
}

// HashInt64 generates a 64-bit hash value for a single id with a seed
func HashInt64(v int64, seed uint64) uint64 {
	return finalize(fnvMix(uint64(fnvOffset64)^seed, uint64(v)))
}

// HashLedgerEntry generates a 64-bit hash value for a (ledger, entry) pair with a seed.
// Both ids contribute with their full width, so keys differing only in the
// upper 32 bits of either id do not collide.
func HashLedgerEntry(ledgerID, entryID int64, seed uint64) uint64 {
	hash := fnvMix(uint64(fnvOffset64)^seed, uint64(ledgerID))
	hash = fnvMix(hash, uint64(entryID))
	return finalize(hash)
}

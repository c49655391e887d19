// Package util provides small building blocks shared by the dLedger packages.
//
// The package contains:
//   - lockfreempsc: A lock-free Multi-Producer Single-Consumer (MPSC) queue used by
//     the ordered executor and the transport write path
//   - functions: Seeded 64-bit hash functions for ledger and entry ids
//   - statistics: Summary statistics and a SizeHistogram for entry payload sizes
package util

// Package lstore implements a local, in-memory ledger store based on the
// store.ILedgerStore interface. Data is stored entirely in memory and is not
// persisted between process restarts.
//
// Implementation Details:
//
//   - Ledgers live in an xsync.MapOf keyed by ledger id. A ledger is created
//     atomically by its first add (LoadOrCompute), so two concurrent first adds
//     agree on the master key.
//
//   - Each ledger has its own RWMutex guarding the entries, the fenced flag and
//     the id of the last entry. Operations on different ledgers never contend.
//
//   - Entry payloads are copied on add. The slices returned by ReadEntry are
//     shared and must not be modified.
//
// Usage Example:
//
//	s := lstore.NewLocalStore()
//	err := s.AddEntry(1, 0, masterKey, []byte("hello"), false)
//	id, data, err := s.ReadEntry(1, common.LastAddConfirmed)
//	err = s.Fence(1, masterKey)
package lstore

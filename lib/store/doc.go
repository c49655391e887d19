// Package store defines the storage interface of a bookie.
//
// The package focuses on:
//   - A unified interface (ILedgerStore) for the entry operations a bookie serves
//   - Structured errors with return codes that map onto bookie wire status codes
//
// Key Components:
//
//   - ILedgerStore Interface: add, read (including the last add confirmed
//     entry) and fence operations on ledgers identified by their id. A ledger
//     is created by its first add, which binds its master key.
//
//   - Error System: *Error carries a RetCode. Errors compare with errors.Is
//     by code, so callers can test against ErrNoLedger, ErrNoEntry, ErrFenced
//     and ErrUnauthorized.
//
// Implementations:
//
//   - Local Store (lstore): an in-memory store for a single process. It is
//     used by the dledger serve command and by tests. Durability is not a goal.
package store

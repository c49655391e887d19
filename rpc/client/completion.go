package client

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dLedger/lib/util"
	"github.com/ValentinKolb/dLedger/rpc/common"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Callbacks
// --------------------------------------------------------------------------

// WriteCallback is invoked exactly once per AddEntry call
type WriteCallback func(code common.Code, ledgerID, entryID int64, addr string, ctx any)

// ReadEntryCallback is invoked exactly once per ReadEntry / ReadEntryAndFence call.
// data is only set when code is common.OK
type ReadEntryCallback func(code common.Code, ledgerID, entryID int64, data []byte, ctx any)

// GenericCallback receives the outcome of a connect attempt
type GenericCallback func(code common.Code)

// --------------------------------------------------------------------------
// Completion Key
// --------------------------------------------------------------------------

// CompletionKey identifies one outstanding request. The add and read registries
// are separate namespaces, so an add and a read of the same entry may be
// outstanding at the same time.
type CompletionKey struct {
	LedgerID int64
	EntryID  int64
}

func (k CompletionKey) String() string {
	return fmt.Sprintf("(lid=%d, eid=%d)", k.LedgerID, k.EntryID)
}

// hashCompletionKey uses both ids with their full 64 bit width
func hashCompletionKey(k CompletionKey, seed uint64) uint64 {
	return util.HashLedgerEntry(k.LedgerID, k.EntryID, seed)
}

// --------------------------------------------------------------------------
// Completion Records
// --------------------------------------------------------------------------

// addCompletion is the pending state of one add. cb already records the
// ADD_ENTRY latency before calling the user callback.
type addCompletion struct {
	cb        WriteCallback
	ctx       any
	requestAt time.Time
	size      int
	state     atomic.Int32 // addPending -> addWritten -> addDone, BYTES_OUTSTANDING bookkeeping
}

const (
	addPending int32 = iota
	addWritten
	addDone
)

// readCompletion is the pending state of one read. cb already records the
// READ_ENTRY latency before calling the user callback.
type readCompletion struct {
	cb        ReadEntryCallback
	ctx       any
	requestAt time.Time
}

// --------------------------------------------------------------------------
// Completion Registry
// --------------------------------------------------------------------------

// completionRegistry maps outstanding keys to their completion record.
// Removing a key is the only way to obtain the right to invoke its callback.
type completionRegistry[T any] struct {
	m *xsync.MapOf[CompletionKey, T]
}

func newCompletionRegistry[T any]() *completionRegistry[T] {
	return &completionRegistry[T]{
		m: xsync.NewMapOfWithHasher[CompletionKey, T](hashCompletionKey),
	}
}

// register inserts the record if the key is not outstanding yet
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *completionRegistry[T]) register(key CompletionKey, value T) bool {
	_, loaded := r.m.LoadOrStore(key, value)
	return !loaded
}

// remove atomically removes and returns the record of key.
// The caller that gets ok == true owns the completion.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *completionRegistry[T]) remove(key CompletionKey) (T, bool) {
	return r.m.LoadAndDelete(key)
}

// removeIf removes the record of key only if pred accepts it
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *completionRegistry[T]) removeIf(key CompletionKey, pred func(T) bool) (removed T, ok bool) {
	r.m.Compute(key, func(old T, loaded bool) (T, bool) {
		if !loaded {
			return old, true // nothing to remove, do not insert
		}
		if pred(old) {
			removed, ok = old, true
			return old, true
		}
		return old, false
	})
	return removed, ok
}

// load returns the record of key without removing it
func (r *completionRegistry[T]) load(key CompletionKey) (T, bool) {
	return r.m.Load(key)
}

// rangeEntries calls f for a snapshot-free iteration over the registry.
// Concurrent inserts and removals are allowed, f may see or miss them.
func (r *completionRegistry[T]) rangeEntries(f func(key CompletionKey, value T) bool) {
	r.m.Range(f)
}

// registryEntry is a key and the record registered under it
type registryEntry[T any] struct {
	key   CompletionKey
	value T
}

// entries returns the keys and records outstanding at the time of the call
func (r *completionRegistry[T]) entries() []registryEntry[T] {
	entries := make([]registryEntry[T], 0, r.m.Size())
	r.m.Range(func(key CompletionKey, value T) bool {
		entries = append(entries, registryEntry[T]{key: key, value: value})
		return true
	})
	return entries
}

func (r *completionRegistry[T]) size() int {
	return r.m.Size()
}

package lstore

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/ValentinKolb/dLedger/lib/store"
	"github.com/ValentinKolb/dLedger/lib/util"
	"github.com/ValentinKolb/dLedger/rpc/common"
	"github.com/puzpuzpuz/xsync/v3"
)

// ledger holds the entries of one ledger
type ledger struct {
	mu        sync.RWMutex
	masterKey []byte
	fenced    bool
	entries   map[int64][]byte
	lastEntry int64
	bytes     int64
}

func newLedger(masterKey []byte) *ledger {
	return &ledger{
		masterKey: bytes.Clone(masterKey),
		entries:   make(map[int64][]byte),
		lastEntry: common.LastAddConfirmed,
	}
}

type storeImpl struct {
	ledgers *xsync.MapOf[int64, *ledger]
}

// NewLocalStore creates a new local store instance.
// This store implementation is not durable and only works on a single node.
func NewLocalStore() store.ILedgerStore {
	return &storeImpl{
		ledgers: xsync.NewMapOfWithHasher[int64, *ledger](util.HashInt64),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) AddEntry(ledgerID, entryID int64, masterKey, data []byte, recovery bool) error {
	if entryID < 0 {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("invalid entry id %d", entryID))
	}

	l, _ := s.ledgers.LoadOrCompute(ledgerID, func() *ledger {
		return newLedger(masterKey)
	})

	l.mu.Lock()
	defer l.mu.Unlock()

	if !bytes.Equal(l.masterKey, masterKey) {
		return store.NewError(store.RetCUnauthorized, fmt.Sprintf("master key mismatch for ledger %d", ledgerID))
	}
	if l.fenced && !recovery {
		return store.NewError(store.RetCFenced, fmt.Sprintf("ledger %d is fenced", ledgerID))
	}

	if old, ok := l.entries[entryID]; ok {
		l.bytes -= int64(len(old))
	}
	l.entries[entryID] = bytes.Clone(data)
	l.bytes += int64(len(data))
	l.lastEntry = max(l.lastEntry, entryID)
	return nil
}

func (s *storeImpl) ReadEntry(ledgerID, entryID int64) (int64, []byte, error) {
	l, ok := s.ledgers.Load(ledgerID)
	if !ok {
		return entryID, nil, store.NewError(store.RetCNoLedger, fmt.Sprintf("ledger %d does not exist", ledgerID))
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if entryID == common.LastAddConfirmed {
		if l.lastEntry == common.LastAddConfirmed {
			return entryID, nil, store.NewError(store.RetCNoEntry, fmt.Sprintf("ledger %d has no entries", ledgerID))
		}
		entryID = l.lastEntry
	}

	data, ok := l.entries[entryID]
	if !ok {
		return entryID, nil, store.NewError(store.RetCNoEntry, fmt.Sprintf("entry %d of ledger %d does not exist", entryID, ledgerID))
	}
	return entryID, data, nil
}

func (s *storeImpl) Fence(ledgerID int64, masterKey []byte) error {
	l, ok := s.ledgers.Load(ledgerID)
	if !ok {
		return store.NewError(store.RetCNoLedger, fmt.Sprintf("ledger %d does not exist", ledgerID))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !bytes.Equal(l.masterKey, masterKey) {
		return store.NewError(store.RetCUnauthorized, fmt.Sprintf("master key mismatch for ledger %d", ledgerID))
	}
	l.fenced = true
	return nil
}

func (s *storeImpl) GetInfo() store.Info {
	var info store.Info
	s.ledgers.Range(func(_ int64, l *ledger) bool {
		l.mu.RLock()
		info.Ledgers++
		info.Entries += int64(len(l.entries))
		info.Bytes += l.bytes
		if l.fenced {
			info.Fenced++
		}
		l.mu.RUnlock()
		return true
	})
	return info
}

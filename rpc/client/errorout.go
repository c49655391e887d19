package client

import (
	"github.com/ValentinKolb/dLedger/rpc/common"
)

// submitOrdered runs fn on the executor queue of ledgerID. Once the executor
// is closed fn runs inline, so a callback is never lost.
func (c *BookieClient) submitOrdered(ledgerID int64, fn func()) {
	if err := c.executor.Submit(ledgerID, fn); err != nil {
		fn()
	}
}

// errorOutAdd fails the add outstanding under key with common.NodeUnavailable.
// Only expected is failed, a newer add that reused the key stays untouched.
// onRemoved runs before the callback.
func (c *BookieClient) errorOutAdd(key CompletionKey, expected *addCompletion, onRemoved func(*addCompletion)) {
	c.submitOrdered(key.LedgerID, func() {
		completion, ok := c.addCompletions.removeIf(key, func(cur *addCompletion) bool {
			return cur == expected
		})
		if !ok {
			return
		}
		if onRemoved != nil {
			onRemoved(completion)
		}
		Logger.Debugf("Erroring out add of %s to bookie %s", key, c.addr)
		completion.cb(common.NodeUnavailable, key.LedgerID, key.EntryID, c.addr.String(), completion.ctx)
	})
}

// errorOutRead fails the read outstanding under key with common.NodeUnavailable,
// see errorOutAdd
func (c *BookieClient) errorOutRead(key CompletionKey, expected *readCompletion, onRemoved func(*readCompletion)) {
	c.submitOrdered(key.LedgerID, func() {
		completion, ok := c.readCompletions.removeIf(key, func(cur *readCompletion) bool {
			return cur == expected
		})
		if !ok {
			return
		}
		if onRemoved != nil {
			onRemoved(completion)
		}
		Logger.Debugf("Erroring out read of %s from bookie %s", key, c.addr)
		completion.cb(common.NodeUnavailable, key.LedgerID, key.EntryID, nil, completion.ctx)
	})
}

// errorOutOutstandingEntries fails every add and read outstanding at the time
// of the call. Each error-out only fails the completion seen here, an op that
// reuses the key later is left alone.
func (c *BookieClient) errorOutOutstandingEntries() {
	adds := c.addCompletions.entries()
	reads := c.readCompletions.entries()
	if len(adds)+len(reads) > 0 {
		Logger.Infof("Erroring out %d adds and %d reads outstanding on bookie %s", len(adds), len(reads), c.addr)
	}

	for _, e := range adds {
		c.errorOutAdd(e.key, e.value, nil)
	}
	for _, e := range reads {
		c.errorOutRead(e.key, e.value, nil)
	}
}

package client

import (
	"errors"
	"time"

	"github.com/ValentinKolb/dLedger/lib/stats"
	"github.com/ValentinKolb/dLedger/rpc/common"
	"github.com/ValentinKolb/dLedger/rpc/transport"
)

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

// AddEntry sends entry entryID of ledgerID to the bookie. flags may contain
// common.FlagRecoveryAdd to write to a fenced ledger. data must not be modified
// until cb was invoked.
//
// cb is invoked exactly once. If the bookie is unreachable it may be invoked
// before AddEntry returns.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *BookieClient) AddEntry(ledgerID int64, masterKey []byte, entryID int64, data []byte, cb WriteCallback, ctx any, flags common.Flag) {
	key := CompletionKey{LedgerID: ledgerID, EntryID: entryID}
	completion := c.newAddCompletion(cb, ctx, len(data))

	if !c.addCompletions.register(key, completion) {
		Logger.Warningf("Rejecting add of %s to bookie %s, an add of this entry is outstanding", key, c.addr)
		c.submitOrdered(ledgerID, func() {
			completion.cb(common.WriteFailure, ledgerID, entryID, c.addr.String(), ctx)
		})
		return
	}

	req := common.NewAddRequest(ledgerID, entryID, flags&^common.FlagDoFencing, masterKey, data)
	c.EnsureConnected(func(code common.Code) {
		if code != common.OK {
			c.errorOutAdd(key, completion, nil)
			return
		}
		c.writeAdd(req, key, completion)
	})
}

// ReadEntry reads entry entryID of ledgerID. entryID may be
// common.LastAddConfirmed to read the last entry the bookie has.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *BookieClient) ReadEntry(ledgerID, entryID int64, cb ReadEntryCallback, ctx any) {
	c.readEntryInternal(common.NewReadRequest(ledgerID, entryID), cb, ctx)
}

// ReadEntryAndFence reads entry entryID of ledgerID and fences the ledger on
// the bookie, later adds without common.FlagRecoveryAdd fail with
// common.LedgerFenced.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *BookieClient) ReadEntryAndFence(ledgerID int64, masterKey []byte, entryID int64, cb ReadEntryCallback, ctx any) {
	c.readEntryInternal(common.NewFencingReadRequest(ledgerID, entryID, masterKey), cb, ctx)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (c *BookieClient) readEntryInternal(req *common.ReadRequest, cb ReadEntryCallback, ctx any) {
	key := CompletionKey{LedgerID: req.LedgerID, EntryID: req.EntryID}
	completion := c.newReadCompletion(cb, ctx)

	if !c.readCompletions.register(key, completion) {
		Logger.Warningf("Rejecting read of %s from bookie %s, a read of this entry is outstanding", key, c.addr)
		c.submitOrdered(req.LedgerID, func() {
			completion.cb(common.ReadFailure, req.LedgerID, req.EntryID, nil, ctx)
		})
		return
	}

	c.EnsureConnected(func(code common.Code) {
		if code != common.OK {
			c.errorOutRead(key, completion, nil)
			return
		}
		c.writeRead(req, key, completion)
	})
}

// newAddCompletion wraps cb with the ADD_ENTRY latency stats
func (c *BookieClient) newAddCompletion(cb WriteCallback, ctx any, size int) *addCompletion {
	completion := &addCompletion{ctx: ctx, requestAt: c.now(), size: size}
	completion.cb = func(code common.Code, ledgerID, entryID int64, addr string, ctx any) {
		c.recordLatency(c.addEntryOpLogger, code, completion.requestAt)
		if completion.state.Swap(addDone) == addWritten {
			c.bytesOutstanding.Add(-int64(completion.size))
		}
		if cb != nil {
			cb(code, ledgerID, entryID, addr, ctx)
		}
	}
	return completion
}

// newReadCompletion wraps cb with the READ_ENTRY latency stats
func (c *BookieClient) newReadCompletion(cb ReadEntryCallback, ctx any) *readCompletion {
	completion := &readCompletion{ctx: ctx, requestAt: c.now()}
	completion.cb = func(code common.Code, ledgerID, entryID int64, data []byte, ctx any) {
		c.recordLatency(c.readEntryOpLogger, code, completion.requestAt)
		if cb != nil {
			cb(code, ledgerID, entryID, data, ctx)
		}
	}
	return completion
}

func (c *BookieClient) recordLatency(opLogger stats.OpStatsLogger, code common.Code, start time.Time) {
	latency := c.now().Sub(start)
	if code == common.OK {
		opLogger.RegisterSuccessfulEvent(latency)
	} else {
		opLogger.RegisterFailedEvent(latency)
	}
}

// writeAdd writes an add on the live channel
func (c *BookieClient) writeAdd(req *common.AddRequest, key CompletionKey, completion *addCompletion) {
	ch := c.currentChannel()
	if ch == nil {
		c.errorOutAdd(key, completion, nil)
		return
	}
	// resolved while waiting for the connection (timeout or disconnect)
	if current, ok := c.addCompletions.load(key); !ok || current != completion {
		return
	}

	start := c.now()
	ch.Write(req, func(err error) {
		if err == nil {
			Logger.Debugf("Successfully wrote request %v to %s in %s", req, ch.RemoteAddr(), c.now().Sub(start))
			if completion.state.CompareAndSwap(addPending, addWritten) {
				c.bytesOutstanding.Add(int64(completion.size))
				c.entrySizes.AddSample(completion.size)
			}
			return
		}
		c.logWriteFailure(req, ch, err)
		c.errorOutAdd(key, completion, nil)
	})
}

// writeRead writes a read on the live channel
func (c *BookieClient) writeRead(req *common.ReadRequest, key CompletionKey, completion *readCompletion) {
	ch := c.currentChannel()
	if ch == nil {
		c.errorOutRead(key, completion, nil)
		return
	}
	if current, ok := c.readCompletions.load(key); !ok || current != completion {
		return
	}

	start := c.now()
	ch.Write(req, func(err error) {
		if err == nil {
			Logger.Debugf("Successfully wrote request %v to %s in %s", req, ch.RemoteAddr(), c.now().Sub(start))
			return
		}
		c.logWriteFailure(req, ch, err)
		c.errorOutRead(key, completion, nil)
	})
}

// logWriteFailure logs a failed write, a closed channel is expected during disconnects
func (c *BookieClient) logWriteFailure(req common.Request, ch transport.IChannel, err error) {
	if errors.Is(err, common.ErrChannelClosed) {
		return
	}
	Logger.Warningf("Writing request %v to channel %s failed: %v", req, ch.RemoteAddr(), err)
}

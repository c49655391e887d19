package client

import (
	"errors"
	"io"
	"net"

	"github.com/ValentinKolb/dLedger/rpc/common"
	"github.com/ValentinKolb/dLedger/rpc/transport"
)

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IChannelHandler)
// --------------------------------------------------------------------------

func (c *BookieClient) ChannelDisconnected(ch transport.IChannel) {
	Logger.Infof("Disconnected from bookie channel %s", ch.RemoteAddr())

	c.mu.Lock()
	if c.channel != ch {
		// a channel that was never adopted or is already replaced
		c.mu.Unlock()
		return
	}
	state := c.state
	if state != StateClosed {
		state = StateDisconnected
	}
	c.setStateLocked(state, nil)
	c.mu.Unlock()

	c.errorOutOutstandingEntries()
}

func (c *BookieClient) MessageReceived(ch transport.IChannel, resp *common.Response) {
	switch resp.OpCode {
	case common.OpAddEntry:
		c.submitOrdered(resp.LedgerID, func() { c.handleAddResponse(resp) })
	case common.OpReadEntry:
		c.submitOrdered(resp.LedgerID, func() { c.handleReadResponse(resp) })
	default:
		Logger.Errorf("Unexpected response received from bookie %s: %v", c.addr, resp)
	}
}

func (c *BookieClient) ExceptionCaught(ch transport.IChannel, err error) {
	if errors.Is(err, common.ErrCorruptedFrame) || errors.Is(err, common.ErrFrameTooLong) {
		Logger.Errorf("Corrupted frame received from bookie %s: %v", ch.RemoteAddr(), err)
		return
	}

	// write failures already report broken connections to the callers
	if isConnectionError(err) {
		Logger.Debugf("Connection error on channel to bookie %s: %v", ch.RemoteAddr(), err)
		return
	}

	if c.State() == StateClosed {
		Logger.Debugf("Unexpected exception caught by bookie client channel handler, but the client is closed: %v", err)
	} else {
		Logger.Errorf("Unexpected exception caught by bookie client channel handler: %v", err)
	}
}

// --------------------------------------------------------------------------
// Response Handling (runs on the ordered executor)
// --------------------------------------------------------------------------

func (c *BookieClient) handleAddResponse(resp *common.Response) {
	code := common.AddStatusToCode(resp.Status)
	key := CompletionKey{LedgerID: resp.LedgerID, EntryID: resp.EntryID}

	if code != common.OK {
		Logger.Warningf("Add of %s failed on bookie %s: %s (%s)", key, c.addr, code, resp.Status)
	}

	completion, ok := c.addCompletions.remove(key)
	if !ok {
		Logger.Warningf("Unexpected add response from bookie %s for %s", c.addr, key)
		return
	}
	completion.cb(code, resp.LedgerID, resp.EntryID, c.addr.String(), completion.ctx)
}

func (c *BookieClient) handleReadResponse(resp *common.Response) {
	code := common.ReadStatusToCode(resp.Status)
	key := CompletionKey{LedgerID: resp.LedgerID, EntryID: resp.EntryID}

	switch code {
	case common.OK:
	case common.NoSuchEntry:
		Logger.Debugf("Entry %s not found on bookie %s", key, c.addr)
	default:
		Logger.Warningf("Read of %s failed on bookie %s: %s (%s)", key, c.addr, code, resp.Status)
	}

	completion, ok := c.readCompletions.remove(key)
	if !ok {
		// a read of the last add confirmed entry is answered with the real entry id
		completion, ok = c.readCompletions.remove(CompletionKey{LedgerID: resp.LedgerID, EntryID: common.LastAddConfirmed})
	}
	if !ok {
		Logger.Warningf("Unexpected read response from bookie %s for %s", c.addr, key)
		return
	}

	var data []byte
	if code == common.OK {
		data = resp.Data
	}
	completion.cb(code, resp.LedgerID, resp.EntryID, data, completion.ctx)
}

// isConnectionError reports i/o errors of the connection itself
func isConnectionError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed)
}

// Package client implements the per channel bookie client of dLedger: one
// BookieClient talks to exactly one bookie over one channel and multiplexes
// concurrent adds and reads over it.
//
// The package focuses on:
//   - Lazy connection management with a small state machine
//     (DISCONNECTED -> CONNECTING -> CONNECTED, CLOSED is terminal)
//   - Matching asynchronous responses to their callers by (ledger id, entry id)
//   - Resolving every operation exactly once, even when a response, a timeout
//     and a connection loss race for the same request
//
// Key Components:
//
//   - CompletionKey / completionRegistry: outstanding adds and reads, kept in
//     two lock-free maps. Removing a key is the only way to obtain the right
//     to invoke its callback, every completion path (response, timeout sweep,
//     disconnect, write failure) removes first and calls back afterwards.
//
//   - EnsureConnected: runs an operation once a channel exists. While a connect
//     attempt is in flight further operations are queued and all of them run
//     with the outcome of that single attempt, outside the state lock.
//
//   - AddEntry / ReadEntry / ReadEntryAndFence: register the completion, make
//     sure a channel exists and write the request. A second request for a key
//     that is still outstanding fails immediately with WriteFailure / ReadFailure.
//
//   - Response handling: responses are delivered on an ordered executor keyed
//     by ledger id, so callbacks of one ledger run in wire order while different
//     ledgers proceed in parallel. Wire status codes are mapped to common.Code.
//
//   - Timeout sweep: a ticker fails adds and reads older than their configured
//     timeout with NodeUnavailable.
//
// Usage:
//
//	c := client.NewBookieClient(conf, addr, tcp.NewTCPClientTransport(s, conf.Transport), nil, statsLogger)
//	defer c.Close()
//	c.AddEntry(ledgerID, masterKey, entryID, data, func(code common.Code, lid, eid int64, addr string, ctx any) {
//	    // code is common.OK or the reason of the failure
//	}, nil, common.FlagNone)
package client

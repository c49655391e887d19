// Package executor provides an ordered executor: a fixed pool of single-consumer
// FIFO queues where a key (typically a ledger id) is hashed to one queue.
//
// All tasks submitted with the same key are executed sequentially in submission
// order, without serializing tasks of unrelated keys. The bookie client uses it to
// deliver completion callbacks of one ledger in the order the responses arrived.
//
// Usage Example:
//
//	exec := executor.NewOrderedExecutor("callbacks", 4)
//	defer exec.Close()
//
//	_ = exec.Submit(ledgerID, func() {
//		// runs after every task previously submitted for ledgerID
//	})
package executor

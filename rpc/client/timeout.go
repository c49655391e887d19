package client

import (
	"runtime/debug"
	"time"
)

// startSweeper starts the periodic timeout sweep, a non positive interval disables it
func (c *BookieClient) startSweeper() {
	interval := c.config.TimeoutTaskInterval
	if interval <= 0 {
		close(c.sweeperDone)
		return
	}

	go func() {
		defer close(c.sweeperDone)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-c.stopSweeper:
				return
			case <-ticker.C:
				c.errorOutTimedOutEntries()
			}
		}
	}()
}

// errorOutTimedOutEntries fails every add and read whose age exceeds its timeout.
// Completions resolved concurrently are skipped, removal decides who completes.
func (c *BookieClient) errorOutTimedOutEntries() {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("Timeout sweep for bookie %s panicked: %v\n%s", c.addr, r, debug.Stack())
		}
	}()

	now := c.now()
	numAdds, numReads := 0, 0

	if timeout := c.config.AddEntryTimeout; timeout > 0 {
		c.addCompletions.rangeEntries(func(key CompletionKey, completion *addCompletion) bool {
			if now.Sub(completion.requestAt) <= timeout {
				return true
			}
			numAdds++
			c.errorOutAdd(key, completion, func(timedOut *addCompletion) {
				c.addTimeoutOpLogger.RegisterSuccessfulEvent(c.now().Sub(timedOut.requestAt))
			})
			return true
		})
	}

	if timeout := c.config.ReadEntryTimeout; timeout > 0 {
		c.readCompletions.rangeEntries(func(key CompletionKey, completion *readCompletion) bool {
			if now.Sub(completion.requestAt) <= timeout {
				return true
			}
			numReads++
			c.errorOutRead(key, completion, func(timedOut *readCompletion) {
				c.readTimeoutOpLogger.RegisterSuccessfulEvent(c.now().Sub(timedOut.requestAt))
			})
			return true
		})
	}

	if numAdds+numReads > 0 {
		Logger.Infof("Timed out %d adds and %d reads on bookie %s", numAdds, numReads, c.addr)
	}
}

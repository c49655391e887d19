package executor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestOrderPerKey verifies that tasks of the same key run in submission order
func TestOrderPerKey(t *testing.T) {
	e := NewOrderedExecutor("test", 4)
	defer e.Close()

	const keys = 16
	const tasksPerKey = 500

	var mu sync.Mutex
	seen := make(map[int64][]int, keys)

	var wg sync.WaitGroup
	wg.Add(keys * tasksPerKey)
	for i := 0; i < tasksPerKey; i++ {
		for k := int64(0); k < keys; k++ {
			i, k := i, k
			if err := e.Submit(k, func() {
				defer wg.Done()
				mu.Lock()
				seen[k] = append(seen[k], i)
				mu.Unlock()
			}); err != nil {
				t.Fatalf("Submit failed: %v", err)
			}
		}
	}

	waitTimeout(t, &wg, 5*time.Second)

	for k, order := range seen {
		for i, v := range order {
			if v != i {
				t.Fatalf("key %d: task %d ran at position %d", k, v, i)
			}
		}
	}
}

// TestDifferentKeysRunConcurrently verifies that a blocked key does not block other workers
func TestDifferentKeysRunConcurrently(t *testing.T) {
	e := NewOrderedExecutor("test", 8)
	defer e.Close()

	// find two keys owned by different workers
	var other int64 = 1
	for e.workerFor(other) == e.workerFor(0) {
		other++
	}

	release := make(chan struct{})
	_ = e.Submit(0, func() { <-release })

	done := make(chan struct{})
	_ = e.Submit(other, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task of an unrelated key was blocked")
	}
	close(release)
}

// TestPanicDoesNotKillWorker verifies that a panicking task is recovered
func TestPanicDoesNotKillWorker(t *testing.T) {
	e := NewOrderedExecutor("test", 1)
	defer e.Close()

	_ = e.Submit(1, func() { panic("boom") })

	done := make(chan struct{})
	_ = e.Submit(1, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive a panicking task")
	}
}

// TestCloseRunsQueuedTasks verifies that Close drains the queues and rejects new tasks
func TestCloseRunsQueuedTasks(t *testing.T) {
	e := NewOrderedExecutor("test", 2)

	var ran atomic.Int64
	for i := 0; i < 100; i++ {
		_ = e.Submit(int64(i), func() {
			time.Sleep(time.Microsecond)
			ran.Add(1)
		})
	}

	e.Close()
	if ran.Load() != 100 {
		t.Errorf("Expected 100 tasks to run before Close returned, got %d", ran.Load())
	}

	if err := e.Submit(1, func() {}); err != ErrExecutorClosed {
		t.Errorf("Expected ErrExecutorClosed, got %v", err)
	}

	// second close must not block or panic
	e.Close()
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("timeout after %s", d)
	}
}

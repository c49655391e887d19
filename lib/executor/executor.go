package executor

import (
	"errors"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dLedger/lib/util"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("executor")

// ErrExecutorClosed is returned by Submit after Close was called
var ErrExecutorClosed = errors.New("ordered executor is closed")

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// task is the unit of work stored in the worker queues
type task func()

// worker is a single FIFO queue with exactly one consumer goroutine
type worker struct {
	queue *util.LockFreeMPSC[task]
}

// OrderedExecutor runs tasks in FIFO order per key. Tasks submitted with the same
// key run one after another on the same worker, tasks with different keys may run
// concurrently on different workers.
type OrderedExecutor struct {
	name    string
	seed    uint64
	workers []*worker
	wg      sync.WaitGroup
	closed  atomic.Bool
}

// --------------------------------------------------------------------------
// Factory
// --------------------------------------------------------------------------

// NewOrderedExecutor creates an executor with numWorkers single-consumer queues.
// A non-positive numWorkers defaults to runtime.NumCPU().
func NewOrderedExecutor(name string, numWorkers int) *OrderedExecutor {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	e := &OrderedExecutor{
		name:    name,
		seed:    util.GenerateSeed(),
		workers: make([]*worker, numWorkers),
	}

	e.wg.Add(numWorkers)
	for i := range e.workers {
		w := &worker{queue: util.NewLockFreeMPSC[task]()}
		e.workers[i] = w
		go e.run(i, w)
	}

	Logger.Debugf("Started ordered executor %s with %d workers", name, numWorkers)
	return e
}

// --------------------------------------------------------------------------
// Public Methods
// --------------------------------------------------------------------------

// Submit queues fn on the worker owning key.
// Returns ErrExecutorClosed if the executor no longer accepts tasks, fn is not run in that case.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (e *OrderedExecutor) Submit(key int64, fn func()) error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}

	t := task(fn)
	if !e.workerFor(key).queue.Push(&t) {
		return ErrExecutorClosed
	}
	return nil
}

// NumWorkers returns the number of worker queues
func (e *OrderedExecutor) NumWorkers() int {
	return len(e.workers)
}

// Close stops accepting tasks, runs all queued tasks and waits for the workers to exit.
// Close is idempotent.
func (e *OrderedExecutor) Close() {
	if e.closed.CompareAndSwap(false, true) {
		for _, w := range e.workers {
			w.queue.Close()
		}
	}
	e.wg.Wait()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// workerFor maps a key to its worker
func (e *OrderedExecutor) workerFor(key int64) *worker {
	if len(e.workers) == 1 {
		return e.workers[0]
	}
	return e.workers[util.HashInt64(key, e.seed)%uint64(len(e.workers))]
}

// run is the consumer loop of one worker
func (e *OrderedExecutor) run(index int, w *worker) {
	defer e.wg.Done()
	for t := range w.queue.Recv() {
		e.safeRun(index, *t)
	}
}

// safeRun runs a task and keeps the worker alive if the task panics
func (e *OrderedExecutor) safeRun(index int, t task) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("Task on %s worker %d panicked: %v\n%s", e.name, index, r, debug.Stack())
		}
	}()
	t()
}

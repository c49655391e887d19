package client

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dLedger/lib/stats"
	"github.com/ValentinKolb/dLedger/rpc/common"
	"github.com/ValentinKolb/dLedger/rpc/transport"
)

// --------------------------------------------------------------------------
// Fake Channel
// --------------------------------------------------------------------------

// fakeChannel records written requests. Close delivers ChannelDisconnected
// before it returns, like the real channel does.
type fakeChannel struct {
	handler transport.IChannelHandler

	mu       sync.Mutex
	written  []common.Request
	writeErr error

	active    atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
	onWrite   func(ch *fakeChannel, req common.Request)
}

func newFakeChannel(handler transport.IChannelHandler) *fakeChannel {
	ch := &fakeChannel{handler: handler}
	ch.active.Store(true)
	return ch
}

func (f *fakeChannel) Write(req common.Request, done func(err error)) {
	if f.closed.Load() {
		done(common.ErrChannelClosed)
		return
	}
	f.mu.Lock()
	err := f.writeErr
	if err == nil {
		f.written = append(f.written, req)
	}
	onWrite := f.onWrite
	f.mu.Unlock()

	done(err)
	if err == nil && onWrite != nil {
		onWrite(f, req)
	}
}

func (f *fakeChannel) IsActive() bool     { return f.active.Load() }
func (f *fakeChannel) RemoteAddr() string { return "fake:3181" }

func (f *fakeChannel) Close() error {
	f.closeOnce.Do(func() {
		f.closed.Store(true)
		f.active.Store(false)
		f.handler.ChannelDisconnected(f)
	})
	return nil
}

func (f *fakeChannel) setWriteErr(err error) {
	f.mu.Lock()
	f.writeErr = err
	f.mu.Unlock()
}

func (f *fakeChannel) numWritten() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}

// waitWritten waits until n requests were written
func (f *fakeChannel) waitWritten(t *testing.T, n int) []common.Request {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		if len(f.written) >= n {
			out := append([]common.Request(nil), f.written...)
			f.mu.Unlock()
			return out
		}
		f.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timeout waiting for %d written requests, got %d", n, f.numWritten())
	return nil
}

// --------------------------------------------------------------------------
// Fake Transport
// --------------------------------------------------------------------------

type connectMode int

const (
	connectManual connectMode = iota
	connectSucceed
	connectFail
)

// connectAttempt is one Connect call that the test resolves by hand
type connectAttempt struct {
	handler transport.IChannelHandler
	result  chan transport.ConnectResult
}

func (a *connectAttempt) succeed() *fakeChannel {
	ch := newFakeChannel(a.handler)
	a.result <- transport.ConnectResult{Channel: ch}
	return ch
}

// resolve hands a prepared channel to the client
func (a *connectAttempt) resolve(ch *fakeChannel) {
	a.result <- transport.ConnectResult{Channel: ch}
}

func (a *connectAttempt) fail() {
	a.result <- transport.ConnectResult{Err: errConnectRefused}
}

type fakeTransport struct {
	mode     connectMode
	attempts chan *connectAttempt
	count    atomic.Int32

	mu       sync.Mutex
	channels []*fakeChannel
	onWrite  func(ch *fakeChannel, req common.Request)
}

type fakeError string

func (e fakeError) Error() string { return string(e) }

const errConnectRefused = fakeError("connection refused")

func newFakeTransport(mode connectMode) *fakeTransport {
	return &fakeTransport{mode: mode, attempts: make(chan *connectAttempt, 64)}
}

func (f *fakeTransport) GetName() string { return "fake" }

func (f *fakeTransport) Connect(addr string, handler transport.IChannelHandler) <-chan transport.ConnectResult {
	f.count.Add(1)
	result := make(chan transport.ConnectResult, 1)

	switch f.mode {
	case connectSucceed:
		ch := newFakeChannel(handler)
		f.mu.Lock()
		ch.onWrite = f.onWrite
		f.channels = append(f.channels, ch)
		f.mu.Unlock()
		result <- transport.ConnectResult{Channel: ch}
	case connectFail:
		result <- transport.ConnectResult{Err: errConnectRefused}
	default:
		f.attempts <- &connectAttempt{handler: handler, result: result}
	}
	return result
}

// lastChannel returns the most recent channel created in connectSucceed mode
func (f *fakeTransport) lastChannel(t *testing.T) *fakeChannel {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.channels) == 0 {
		t.Fatal("no channel was created")
	}
	return f.channels[len(f.channels)-1]
}

func (f *fakeTransport) nextAttempt(t *testing.T) *connectAttempt {
	t.Helper()
	select {
	case a := <-f.attempts:
		return a
	case <-time.After(2 * time.Second):
		t.Fatal("no connect attempt")
		return nil
	}
}

// --------------------------------------------------------------------------
// Fake Stats
// --------------------------------------------------------------------------

// fakeStats counts events per metric name, scopes are ignored
type fakeStats struct {
	mu       sync.Mutex
	success  map[string]int
	failure  map[string]int
	counters map[string]*fakeCounter
}

type fakeOpStats struct {
	s    *fakeStats
	name string
}

type fakeCounter struct{ v atomic.Int64 }

func newFakeStats() *fakeStats {
	return &fakeStats{success: map[string]int{}, failure: map[string]int{}, counters: map[string]*fakeCounter{}}
}

func (s *fakeStats) OpStatsLogger(name string) stats.OpStatsLogger {
	return &fakeOpStats{s: s, name: name}
}
func (s *fakeStats) Scope(string) stats.StatsLogger { return s }

func (s *fakeStats) Counter(name string) stats.Counter {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[name]
	if !ok {
		c = &fakeCounter{}
		s.counters[name] = c
	}
	return c
}

func (s *fakeStats) successes(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.success[name]
}

func (s *fakeStats) failures(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure[name]
}

func (o *fakeOpStats) RegisterSuccessfulEvent(time.Duration) {
	o.s.mu.Lock()
	o.s.success[o.name]++
	o.s.mu.Unlock()
}

func (o *fakeOpStats) RegisterFailedEvent(time.Duration) {
	o.s.mu.Lock()
	o.s.failure[o.name]++
	o.s.mu.Unlock()
}

func (c *fakeCounter) Inc()            { c.v.Add(1) }
func (c *fakeCounter) Dec()            { c.v.Add(-1) }
func (c *fakeCounter) Add(delta int64) { c.v.Add(delta) }
func (c *fakeCounter) Get() int64      { return c.v.Load() }

// --------------------------------------------------------------------------
// Fake Clock
// --------------------------------------------------------------------------

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// --------------------------------------------------------------------------
// Callback Recorder
// --------------------------------------------------------------------------

type addResult struct {
	code     common.Code
	ledgerID int64
	entryID  int64
	addr     string
	ctx      any
}

type readResult struct {
	code     common.Code
	ledgerID int64
	entryID  int64
	data     []byte
	ctx      any
}

// recorder collects callback invocations
type recorder struct {
	adds  chan addResult
	reads chan readResult
}

func newRecorder() *recorder {
	return &recorder{adds: make(chan addResult, 1024), reads: make(chan readResult, 1024)}
}

func (r *recorder) addCb(code common.Code, ledgerID, entryID int64, addr string, ctx any) {
	r.adds <- addResult{code, ledgerID, entryID, addr, ctx}
}

func (r *recorder) readCb(code common.Code, ledgerID, entryID int64, data []byte, ctx any) {
	r.reads <- readResult{code, ledgerID, entryID, data, ctx}
}

func (r *recorder) nextAdd(t *testing.T) addResult {
	t.Helper()
	select {
	case res := <-r.adds:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("add callback was not invoked")
		return addResult{}
	}
}

func (r *recorder) nextRead(t *testing.T) readResult {
	t.Helper()
	select {
	case res := <-r.reads:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("read callback was not invoked")
		return readResult{}
	}
}

// expectNoMore fails if another callback arrives within a short grace period
func (r *recorder) expectNoMore(t *testing.T) {
	t.Helper()
	select {
	case res := <-r.adds:
		t.Fatalf("unexpected add callback %+v", res)
	case res := <-r.reads:
		t.Fatalf("unexpected read callback %+v", res)
	case <-time.After(50 * time.Millisecond):
	}
}

package client

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dLedger/lib/executor"
	"github.com/ValentinKolb/dLedger/lib/stats"
	"github.com/ValentinKolb/dLedger/lib/util"
	"github.com/ValentinKolb/dLedger/rpc/common"
	"github.com/ValentinKolb/dLedger/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("client")

// stats names
const (
	statsScope            = "per_channel_bookie_client"
	statsAddEntry         = "ADD_ENTRY"
	statsReadEntry        = "READ_ENTRY"
	statsTimeoutAddEntry  = "TIMEOUT_ADD_ENTRY"
	statsTimeoutReadEntry = "TIMEOUT_READ_ENTRY"
	statsBytesOutstanding = "BYTES_OUTSTANDING"
)

// --------------------------------------------------------------------------
// Connection State
// --------------------------------------------------------------------------

// ConnectionState is the state of the connection of a BookieClient
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	// StateClosed is terminal, the client never connects again
	StateClosed
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// liveChannel boxes the channel handle for atomic publication
type liveChannel struct {
	ch transport.IChannel
}

// --------------------------------------------------------------------------
// Bookie Client
// --------------------------------------------------------------------------

// BookieClient talks to a single bookie over one channel. It multiplexes
// concurrent adds and reads, matches responses to their callbacks and
// reconnects lazily on the next operation after a connection loss.
//
// Every operation invokes its callback exactly once. Callbacks of the same
// ledger are delivered in order on the ordered executor.
//
// BookieClient implements transport.IChannelHandler for its channels.
type BookieClient struct {
	addr      common.BookieAddress
	config    common.ClientConfig
	transport transport.IRPCClientTransport

	executor     *executor.OrderedExecutor
	ownsExecutor bool

	addCompletions  *completionRegistry[*addCompletion]
	readCompletions *completionRegistry[*readCompletion]

	// connection state, state and channel always change together under mu
	mu         sync.Mutex
	state      ConnectionState
	channel    transport.IChannel
	pendingOps []GenericCallback

	// lock free mirrors of state and channel for the fast path
	fastState   atomic.Int32
	fastChannel atomic.Pointer[liveChannel]

	// stats
	addEntryOpLogger    stats.OpStatsLogger
	readEntryOpLogger   stats.OpStatsLogger
	addTimeoutOpLogger  stats.OpStatsLogger
	readTimeoutOpLogger stats.OpStatsLogger
	bytesOutstanding    stats.Counter
	entrySizes          *util.SizeHistogram

	// timeout sweeper
	stopSweeper chan struct{}
	sweeperDone chan struct{}
	closeOnce   sync.Once

	now func() time.Time
}

// NewBookieClient creates a client for the bookie at addr. No connection is
// made until the first operation.
// exec delivers the callbacks, if it is nil the client creates its own executor
// with config.NumWorkers workers and closes it on Close. A nil statsLogger
// disables stats.
func NewBookieClient(
	config common.ClientConfig,
	addr common.BookieAddress,
	t transport.IRPCClientTransport,
	exec *executor.OrderedExecutor,
	statsLogger stats.StatsLogger,
) *BookieClient {
	ownsExecutor := false
	if exec == nil {
		exec = executor.NewOrderedExecutor("bookie-client-"+addr.String(), config.NumWorkers)
		ownsExecutor = true
	}
	if statsLogger == nil {
		statsLogger = stats.NullStatsLogger
	}
	scope := statsLogger.Scope(statsScope).Scope(addr.ScopeName())

	c := &BookieClient{
		addr:                addr,
		config:              config,
		transport:           t,
		executor:            exec,
		ownsExecutor:        ownsExecutor,
		addCompletions:      newCompletionRegistry[*addCompletion](),
		readCompletions:     newCompletionRegistry[*readCompletion](),
		state:               StateDisconnected,
		addEntryOpLogger:    scope.OpStatsLogger(statsAddEntry),
		readEntryOpLogger:   scope.OpStatsLogger(statsReadEntry),
		addTimeoutOpLogger:  scope.OpStatsLogger(statsTimeoutAddEntry),
		readTimeoutOpLogger: scope.OpStatsLogger(statsTimeoutReadEntry),
		bytesOutstanding:    scope.Counter(statsBytesOutstanding),
		entrySizes:          util.NewSizeHistogram(),
		stopSweeper:         make(chan struct{}),
		sweeperDone:         make(chan struct{}),
		now:                 time.Now,
	}
	c.fastState.Store(int32(StateDisconnected))

	c.startSweeper()
	return c
}

// --------------------------------------------------------------------------
// Public Methods
// --------------------------------------------------------------------------

// State returns the current connection state
func (c *BookieClient) State() ConnectionState {
	return ConnectionState(c.fastState.Load())
}

// Address returns the address of the bookie
func (c *BookieClient) Address() common.BookieAddress {
	return c.addr
}

// EntrySizes returns the histogram of the entry sizes written by this client
func (c *BookieClient) EntrySizes() *util.SizeHistogram {
	return c.entrySizes
}

// EnsureConnected invokes op with common.OK once a usable channel exists, or
// with common.NodeUnavailable if none can be established. op may run before
// EnsureConnected returns.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (c *BookieClient) EnsureConnected(op GenericCallback) {
	if c.State() == StateConnected && c.currentChannel() != nil {
		op(common.OK)
		return
	}

	c.mu.Lock()
	switch c.state {
	case StateConnected:
		c.mu.Unlock()
		op(common.OK)
		return
	case StateClosed:
		c.mu.Unlock()
		op(common.NodeUnavailable)
		return
	}

	c.pendingOps = append(c.pendingOps, op)
	if c.state == StateConnecting {
		// an attempt is in flight, it will run op
		c.mu.Unlock()
		return
	}
	c.setStateLocked(StateConnecting, nil)
	c.mu.Unlock()

	c.connect()
}

// Disconnect closes the current channel and fails all outstanding operations.
// The next operation connects again.
func (c *BookieClient) Disconnect() {
	c.closeInternal(false)
}

// Close closes the client for good. Outstanding operations fail, later
// operations fail with common.NodeUnavailable without connecting.
// Close blocks until the channel is torn down. It must not be called from the
// reader goroutine of a channel (transport.IChannelHandler callbacks).
func (c *BookieClient) Close() {
	c.closeInternal(true)

	c.closeOnce.Do(func() {
		close(c.stopSweeper)
		<-c.sweeperDone

		if c.ownsExecutor {
			// queued callbacks still run, Close may be called from one of them
			go c.executor.Close()
		}
	})
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// setStateLocked updates state and channel together. c.mu must be held.
func (c *BookieClient) setStateLocked(state ConnectionState, ch transport.IChannel) {
	c.state = state
	c.channel = ch
	c.fastState.Store(int32(state))
	if ch == nil {
		c.fastChannel.Store(nil)
	} else {
		c.fastChannel.Store(&liveChannel{ch: ch})
	}
}

// currentChannel returns the live channel or nil
func (c *BookieClient) currentChannel() transport.IChannel {
	if live := c.fastChannel.Load(); live != nil {
		return live.ch
	}
	return nil
}

// connect starts a connect attempt, the result is handled on its own goroutine
func (c *BookieClient) connect() {
	Logger.Infof("Connecting to bookie %s using %s transport", c.addr, c.transport.GetName())
	result := c.transport.Connect(c.addr.String(), c)
	go func() {
		c.onConnectResult(<-result)
	}()
}

// onConnectResult resolves a connect attempt and runs the pending operations
func (c *BookieClient) onConnectResult(res transport.ConnectResult) {
	code := common.NodeUnavailable
	var discard transport.IChannel

	c.mu.Lock()
	switch {
	case res.Err != nil && c.state == StateConnected:
		// a losing attempt failed, the live channel stays
		c.mu.Unlock()
		Logger.Debugf("Ignoring failed connect to bookie %s, already connected: %v", c.addr, res.Err)
		return

	case res.Err != nil:
		Logger.Errorf("Could not connect to bookie %s: %v", c.addr, res.Err)
		if c.state != StateClosed {
			c.setStateLocked(StateDisconnected, nil)
		} else {
			c.setStateLocked(StateClosed, nil)
		}

	case c.state == StateConnected:
		// another attempt won the race and already ran the pending operations
		c.mu.Unlock()
		Logger.Debugf("Discarding connection to bookie %s, already connected", c.addr)
		_ = res.Channel.Close()
		return

	case c.state == StateConnecting && res.Channel.IsActive():
		Logger.Infof("Successfully connected to bookie %s", c.addr)
		c.setStateLocked(StateConnected, res.Channel)
		code = common.OK

	case c.state == StateConnecting:
		// the channel went down before it could be adopted
		Logger.Warningf("Connection to bookie %s was lost while connecting", c.addr)
		c.setStateLocked(StateDisconnected, nil)
		discard = res.Channel

	default:
		// closed or disconnected while connecting
		Logger.Infof("Discarding connection to bookie %s, client is %s", c.addr, c.state)
		c.setStateLocked(c.state, nil)
		discard = res.Channel
	}

	ops := c.pendingOps
	c.pendingOps = nil
	c.mu.Unlock()

	if discard != nil {
		_ = discard.Close()
	}
	for _, op := range ops {
		op(code)
	}
}

// closeInternal tears down the live channel and fails everything outstanding
func (c *BookieClient) closeInternal(permanent bool) {
	c.mu.Lock()
	ch := c.channel
	switch {
	case permanent:
		c.setStateLocked(StateClosed, nil)
	case c.state != StateClosed:
		c.setStateLocked(StateDisconnected, nil)
	default:
		c.setStateLocked(StateClosed, nil)
	}
	c.mu.Unlock()

	if ch != nil {
		if err := ch.Close(); err != nil {
			Logger.Warningf("Failed to close channel to bookie %s: %v", c.addr, err)
		}
	}

	c.errorOutOutstandingEntries()
}

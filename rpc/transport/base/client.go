package base

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dLedger/lib/util"
	"github.com/ValentinKolb/dLedger/rpc/common"
	"github.com/ValentinKolb/dLedger/rpc/serializer"
	"github.com/ValentinKolb/dLedger/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientTransportConfig) error
}

// -----------------------------------------------------------
// Channel
// -----------------------------------------------------------

// pendingWrite is an encoded request waiting for the writer goroutine
type pendingWrite struct {
	data []byte
	done func(error)
}

// channel implements transport.IChannel on top of a net.Conn.
// One reader goroutine decodes response frames and feeds the handler, one
// writer goroutine drains the write queue. Producers never block on the socket.
type channel struct {
	conn         net.Conn
	remote       string
	serializer   serializer.IRPCSerializer
	handler      transport.IChannelHandler
	maxFrameSize int
	readBufSize  int

	writeQueue *util.LockFreeMPSC[pendingWrite]
	closing    atomic.Bool // set by Close or when the socket failed
	active     atomic.Bool
	closeOnce  sync.Once
	readerDone chan struct{}
	writerDone chan struct{}
}

// newChannel wraps an established connection and starts the channel goroutines
func newChannel(conn net.Conn, s serializer.IRPCSerializer, handler transport.IChannelHandler, config common.ClientTransportConfig) *channel {
	maxFrameSize := config.MaxFrameSize
	if maxFrameSize <= 0 {
		maxFrameSize = common.MaxFrameSize
	}

	ch := &channel{
		conn:         conn,
		remote:       conn.RemoteAddr().String(),
		serializer:   s,
		handler:      handler,
		maxFrameSize: maxFrameSize,
		readBufSize:  config.SocketConf.ReadBufferSize,
		writeQueue:   util.NewLockFreeMPSC[pendingWrite](),
		readerDone:   make(chan struct{}),
		writerDone:   make(chan struct{}),
	}
	ch.active.Store(true)

	go ch.writeLoop()
	go ch.readLoop()
	return ch
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IChannel)
// --------------------------------------------------------------------------

func (c *channel) Write(req common.Request, done func(err error)) {
	if c.closing.Load() {
		done(common.ErrChannelClosed)
		return
	}

	data, err := c.serializer.EncodeRequest(req)
	if err != nil {
		done(fmt.Errorf("failed to encode %v: %w", req, err))
		return
	}

	if !c.writeQueue.Push(&pendingWrite{data: data, done: done}) {
		done(common.ErrChannelClosed)
	}
}

func (c *channel) IsActive() bool {
	return c.active.Load()
}

func (c *channel) RemoteAddr() string {
	return c.remote
}

func (c *channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closing.Store(true)
		if cerr := c.conn.Close(); cerr != nil && !isConnectionClosed(cerr) {
			err = cerr
		}
	})

	<-c.readerDone
	<-c.writerDone
	return err
}

func (c *channel) String() string {
	return fmt.Sprintf("channel(%s -> %s)", c.conn.LocalAddr(), c.remote)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// writeLoop writes queued frames until the queue is closed and drained.
// After the first socket error every remaining write fails.
func (c *channel) writeLoop() {
	defer close(c.writerDone)

	for w := range c.writeQueue.Recv() {
		if c.closing.Load() {
			w.done(common.ErrChannelClosed)
			continue
		}

		if err := writeFrame(c.conn, w.data); err != nil {
			if c.closing.Swap(true) {
				// the socket was closed under us, that is a plain closed channel
				w.done(common.ErrChannelClosed)
				continue
			}
			w.done(fmt.Errorf("failed to write to %s: %w", c.remote, err))
			// unblock the reader so the handler learns about the broken connection
			_ = c.conn.Close()
			continue
		}
		w.done(nil)
	}
}

// readLoop decodes response frames until the connection fails or is closed
func (c *channel) readLoop() {
	defer close(c.readerDone)

	r := bufio.NewReader(c.conn)
	if c.readBufSize > 0 {
		r = bufio.NewReaderSize(c.conn, c.readBufSize)
	}
	buf := make([]byte, 4096)

	for {
		data, err := readFrame(r, buf, c.maxFrameSize)
		if err != nil {
			if errors.Is(err, common.ErrFrameTooLong) {
				c.handler.ExceptionCaught(c, err)
				continue
			}
			if !c.closing.Load() {
				c.handler.ExceptionCaught(c, err)
			}
			break
		}
		if cap(data) > cap(buf) {
			buf = data[:cap(data)]
		}

		resp, err := c.serializer.DecodeResponse(data)
		if err != nil {
			c.handler.ExceptionCaught(c, err)
			continue
		}
		c.handler.MessageReceived(c, resp)
	}

	c.closing.Store(true)
	c.active.Store(false)
	_ = c.conn.Close()
	c.writeQueue.Close()

	Logger.Debugf("%s disconnected", c)
	c.handler.ChannelDisconnected(c)
}

// -----------------------------------------------------------
// Client Transport
// -----------------------------------------------------------

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector  IClientConnector
	serializer serializer.IRPCSerializer
	config     common.ClientTransportConfig
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector, s serializer.IRPCSerializer, config common.ClientTransportConfig) transport.IRPCClientTransport {
	return &clientTransport{
		connector:  connector,
		serializer: s,
		config:     config,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) GetName() string {
	return t.connector.GetName()
}

func (t *clientTransport) Connect(addr string, handler transport.IChannelHandler) <-chan transport.ConnectResult {
	result := make(chan transport.ConnectResult, 1)

	go func() {
		start := time.Now()

		conn, err := t.connector.Connect(addr, t.config.ConnectTimeout)
		if err != nil {
			result <- transport.ConnectResult{Err: fmt.Errorf("failed to connect to %s: %w", addr, err)}
			return
		}

		if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
			_ = conn.Close()
			result <- transport.ConnectResult{Err: fmt.Errorf("failed to upgrade connection to %s: %w", addr, err)}
			return
		}

		Logger.Debugf("Connected to %s using %s transport in %s", addr, t.connector.GetName(), time.Since(start))
		result <- transport.ConnectResult{Channel: newChannel(conn, t.serializer, handler, t.config)}
	}()

	return result
}

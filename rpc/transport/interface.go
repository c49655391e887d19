package transport

import (
	"github.com/ValentinKolb/dLedger/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer when a request frame is received
// It takes the frame payload as parameter and returns the payload of the response frame,
// a nil response sends nothing
type ServerHandleFunc func(req []byte) (resp []byte)

// IRPCServerTransport is the interface for the server side of the transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler is called for every request frame
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport layer and serves connections until Close is called
	Listen(config common.ServerConfig) error
	// Ready is closed once the listener is bound
	Ready() <-chan struct{}
	// Addr returns the bound address (empty before Ready is closed)
	Addr() string
	// Close stops the listener and closes all connections
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IChannel is one established connection to a bookie
type IChannel interface {
	// Write encodes and queues a request. done is called exactly once, with nil
	// after the frame was written to the socket or with the error that
	// prevented it (common.ErrChannelClosed once the channel is closing)
	Write(req common.Request, done func(err error))
	// IsActive reports whether the channel can still carry requests. It turns
	// false before the handler sees ChannelDisconnected
	IsActive() bool
	// RemoteAddr returns the address of the bookie
	RemoteAddr() string
	// Close closes the channel. It is idempotent and blocks until all channel
	// goroutines have exited and ChannelDisconnected was delivered.
	// Must not be called from a handler callback.
	Close() error
}

// IChannelHandler receives the events of a channel. All methods are called
// from the reader goroutine of the channel and must not block.
type IChannelHandler interface {
	// ChannelDisconnected is called exactly once when the channel goes down
	ChannelDisconnected(ch IChannel)
	// MessageReceived is called for every decoded response
	MessageReceived(ch IChannel, resp *common.Response)
	// ExceptionCaught is called for frame level errors (the channel stays up)
	// and for the error that terminated the reader
	ExceptionCaught(ch IChannel, err error)
}

// ConnectResult is the single outcome of a connect attempt
type ConnectResult struct {
	Channel IChannel
	Err     error
}

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect starts a connect attempt to addr. The returned channel yields
	// exactly one result. Events of the established channel go to handler.
	Connect(addr string, handler IChannelHandler) <-chan ConnectResult
	// GetName returns the name of the transport (e.g. "tcp", "unix")
	GetName() string
}

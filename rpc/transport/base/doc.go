// Package base provides the protocol independent part of the dLedger transports.
// Protocol specific connectors (tcp, unix) plug into it.
//
// Frames are a 4 byte big endian length followed by the payload. A frame that is
// larger than the configured maximum (2 MiB by default) is skipped and reported
// as common.ErrFrameTooLong, the connection stays up.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     (dial, listen, socket options).
//
//   - channel: client side connection. A reader goroutine decodes response frames
//     and hands them to the transport.IChannelHandler, a writer goroutine drains a
//     lock-free MPSC queue of encoded requests so callers never block on the socket.
//     The handler sees ChannelDisconnected exactly once, Close waits for both
//     goroutines.
//
//   - clientTransport: asynchronous connect returning a single ConnectResult.
//
//   - serverTransport: accepts connections and hands request frames to the
//     registered handler. Requests of one connection are processed by a bounded
//     number of workers, responses are written under a per connection mutex.
//
// Performance Optimizations:
//
//   - Buffer Pooling: The server uses a sync.Pool to reuse frame buffers.
//
//   - Frame Batching: header and payload are written with net.Buffers in a
//     single write call.
package base

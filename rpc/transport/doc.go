// Package transport defines the interfaces between the bookie client, the
// bookie server and the network. It provides a common contract that all
// transport implementations must fulfill.
//
// Key Components:
//
//   - IRPCClientTransport: asynchronous connect. A connect attempt yields one
//     ConnectResult carrying an IChannel or an error.
//
//   - IChannel: one established connection. Writes are queued and completed
//     through a callback, Close tears the connection down synchronously.
//
//   - IChannelHandler: the events of a channel (disconnect, decoded response,
//     frame errors), delivered from the reader goroutine of the channel.
//
//   - IRPCServerTransport: server side listener that hands request frames to a
//     ServerHandleFunc and writes the returned response frames.
package transport

// Package unix implements transports over Unix domain sockets on top of the base
// package, for a bookie running on the same machine as its client.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Creates Unix socket listeners (an existing socket file is removed)
//
// The default server buffer size is 64 KB.
package unix

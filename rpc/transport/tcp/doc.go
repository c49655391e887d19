// Package tcp implements tcp socket based transports on top of the base package.
//
// Key Components:
//
//   - clientConnector: dials with the configured connect timeout and applies
//     TCP_NODELAY, keep-alive, linger and socket buffer sizes
//
//   - serverConnector: creates tcp listeners and applies the same socket options
//     to accepted connections
package tcp

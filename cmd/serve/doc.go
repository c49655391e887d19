// Package serve implements the serve command, which runs an in-memory bookie.
//
// The bookie answers adds and reads of the bookie protocol over tcp or a unix
// socket, with the binary or json serializer selected by the global flags.
// It stops gracefully on SIGINT and SIGTERM and logs a summary of the stored
// ledgers on shutdown.
//
// Example:
//
//	dledger serve --endpoint 127.0.0.1:3181 --workers-per-conn 8
//	dledger serve --transport unix --endpoint /tmp/bookie.sock --read-only
package serve

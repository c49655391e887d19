// Package cmd implements the command-line interface of dLedger. It provides a
// hierarchical command structure with operations for running an in-memory
// bookie and for talking to a bookie through the per channel bookie client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts an in-memory bookie over tcp or a unix socket
//   - entry: Single add, read and fence operations through the client
//   - perf: Load generator that reports latency statistics and client metrics
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as an environment variable DLEDGER_<FLAG>
// (e.g. DLEDGER_ADD_TIMEOUT=10s), .env and .env.local are loaded on start.
//
// See dledger -help for a list of all commands.
package cmd

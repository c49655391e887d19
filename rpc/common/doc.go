// Package common provides the types shared by the dLedger client, the
// in-memory bookie and the CLI.
//
// The package focuses on:
//   - The bookie protocol: op codes, request flags, wire status codes and the
//     typed add/read requests and responses exchanged over a channel
//   - The client status taxonomy (Code) and the fixed tables that map a wire
//     status of an add or read response to a Code
//   - Configuration structures for the client and the server
//   - Transport error sentinels
//   - A custom logger factory integrated with dragonboats logger facade
//
// Key Components:
//
//   - AddRequest / ReadRequest / Response: the messages a client sends to a
//     bookie and receives back. A ReadRequest with FlagDoFencing carries the
//     ledger master key and fences the ledger on the bookie.
//
//   - Code: the status every client callback is invoked with. Code.Err turns a
//     status into an error value for callers that prefer errors.
//
//   - BookieAddress: identity of a remote bookie, also used to derive the stats
//     scope of a client.
//
//   - ClientConfig / ServerConfig: timeouts, worker counts and socket options.
package common

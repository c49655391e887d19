// Package server implements an in-memory bookie for dLedger.
// It answers the add and read requests of the bookie protocol from a local
// ledger store and exists to run the client end to end (CLI serve command and
// integration tests). Durability and replication are not goals.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for server adapters,
//     with the Handle method that processes a decoded request against a
//     store.ILedgerStore and returns the response carrying the wire status.
//
//   - NewBookieServerAdapter: Factory function creating the adapter for the
//     bookie protocol. It checks the protocol version, rejects adds on a read
//     only bookie, fences ledgers on fencing reads and maps store errors to
//     wire status codes (ENOLEDGER, ENOENTRY, EFENCED, EUA, EIO).
//
//   - NewRPCServer: Factory function creating a configured server with the
//     specified transport and serializer mechanisms.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Endpoint:       "0.0.0.0:3181",
//	  WorkersPerConn: 4,
//	  LogLevel:       "info",
//	}
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(config.WorkersPerConn),
//	  serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	The server handles concurrent requests across multiple connections, each
//	request is processed independently. Serve should be called only once.
package server

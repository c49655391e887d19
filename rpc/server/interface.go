package server

import (
	"github.com/ValentinKolb/dLedger/lib/store"
	"github.com/ValentinKolb/dLedger/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// It takes a decoded request and a store as parameters.
	// It returns a Response carrying the wire status of the operation.
	// Handle never returns nil
	Handle(req common.Request, store store.ILedgerStore) (resp *common.Response)
}

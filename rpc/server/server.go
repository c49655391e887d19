package server

import (
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"

	"github.com/ValentinKolb/dLedger/lib/store"
	"github.com/ValentinKolb/dLedger/lib/store/lstore"
	"github.com/ValentinKolb/dLedger/rpc/common"
	"github.com/ValentinKolb/dLedger/rpc/serializer"
	"github.com/ValentinKolb/dLedger/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc")

// NewRPCServer creates a new in-memory bookie
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(4),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		store:      lstore.NewLocalStore(),
		adapter:    NewBookieServerAdapter(config.ReadOnly),
	}
}

// RPCServer serves the bookie protocol from a local ledger store
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	store      store.ILedgerStore
	adapter    IRPCServerAdapter

	handled   atomic.Uint64
	malformed atomic.Uint64
}

func (s *RPCServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(req []byte) []byte {
		s.handled.Add(1)

		// Decode the request, an undecodable request carries no ids to answer with
		msg, err := s.serializer.DecodeRequest(req)
		if err != nil {
			s.malformed.Add(1)
			Logger.Warningf("Dropping request that could not be decoded: %v", err)
			return nil
		}

		// Let the adapter handle the request
		resp := s.adapter.Handle(msg, s.store)

		// Return result
		val, err := s.serializer.EncodeResponse(resp)
		if err != nil {
			Logger.Errorf("Failed to encode response %v: %v", resp, err)
			return nil
		}
		return val
	})
}

// Serve starts the RPC server and blocks until it is closed
func (s *RPCServer) Serve() error {
	s.registerTransportHandler()
	Logger.Infof("dLedger bookie serving with %s serializer", s.serializer.GetName())
	return s.transport.Listen(s.config)
}

// Ready is closed once the server accepts connections
func (s *RPCServer) Ready() <-chan struct{} {
	return s.transport.Ready()
}

// Addr returns the address the server listens on
func (s *RPCServer) Addr() string {
	return s.transport.Addr()
}

// Store returns the ledger store of the server
func (s *RPCServer) Store() store.ILedgerStore {
	return s.store
}

// Close stops the server and logs a summary of the stored data
func (s *RPCServer) Close() error {
	info := s.store.GetInfo()
	Logger.Infof("Closing bookie: handled %d requests (%d malformed), %d ledgers, %d entries, %d bytes",
		s.handled.Load(), s.malformed.Load(), info.Ledgers, info.Entries, info.Bytes)
	return s.transport.Close()
}

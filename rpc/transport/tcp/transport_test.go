package tcp

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/dLedger/rpc/common"
	"github.com/ValentinKolb/dLedger/rpc/serializer"
	"github.com/ValentinKolb/dLedger/rpc/transport"
)

type testHandler struct {
	messages     chan *common.Response
	disconnected chan struct{}
}

func (h *testHandler) ChannelDisconnected(transport.IChannel) { close(h.disconnected) }
func (h *testHandler) MessageReceived(_ transport.IChannel, resp *common.Response) {
	h.messages <- resp
}
func (h *testHandler) ExceptionCaught(transport.IChannel, error) {}

// startServer starts a tcp server that acknowledges every add with EOK
func startServer(t *testing.T) transport.IRPCServerTransport {
	t.Helper()
	s := serializer.NewBinarySerializer()

	server := NewTCPServerTransport(2)
	server.RegisterHandler(func(data []byte) []byte {
		req, err := s.DecodeRequest(data)
		if err != nil {
			t.Errorf("server failed to decode: %v", err)
			return nil
		}
		resp, _ := s.EncodeResponse(common.NewAddResponse(common.EOK, req.GetLedgerID(), req.GetEntryID()))
		return resp
	})

	go func() {
		if err := server.Listen(common.ServerConfig{Endpoint: "127.0.0.1:0"}); err != nil {
			t.Errorf("Listen failed: %v", err)
		}
	}()

	select {
	case <-server.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}
	t.Cleanup(func() { _ = server.Close() })
	return server
}

func TestTCPRoundTrip(t *testing.T) {
	server := startServer(t)

	config := common.DefaultClientConfig().Transport
	client := NewTCPClientTransport(serializer.NewBinarySerializer(), config)
	if client.GetName() != "tcp" {
		t.Errorf("unexpected transport name %s", client.GetName())
	}

	h := &testHandler{messages: make(chan *common.Response, 1), disconnected: make(chan struct{})}
	var res transport.ConnectResult
	select {
	case res = <-client.Connect(server.Addr(), h):
	case <-time.After(2 * time.Second):
		t.Fatal("connect did not finish")
	}
	if res.Err != nil {
		t.Fatalf("connect failed: %v", res.Err)
	}

	done := make(chan error, 1)
	key := bytes.Repeat([]byte{3}, common.MasterKeyLength)
	res.Channel.Write(common.NewAddRequest(11, 12, common.FlagNone, key, []byte("data")), func(err error) { done <- err })
	if err := <-done; err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case resp := <-h.messages:
		if resp.LedgerID != 11 || resp.EntryID != 12 || resp.Status != common.EOK {
			t.Errorf("unexpected response %v", resp)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no response")
	}

	if err := res.Channel.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
	select {
	case <-h.disconnected:
	default:
		t.Error("Close returned before ChannelDisconnected")
	}
}

func TestTCPConnectRefused(t *testing.T) {
	// reserve a port and free it again, nobody listens there afterwards
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	_ = l.Close()

	config := common.DefaultClientConfig().Transport
	config.ConnectTimeout = time.Second
	client := NewTCPClientTransport(serializer.NewBinarySerializer(), config)

	h := &testHandler{messages: make(chan *common.Response, 1), disconnected: make(chan struct{})}
	select {
	case res := <-client.Connect(addr, h):
		if res.Err == nil || res.Channel != nil {
			t.Errorf("expected a connect error, got %+v", res)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("connect did not finish")
	}
}

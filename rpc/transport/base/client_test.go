package base

import (
	"bytes"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dLedger/rpc/common"
	"github.com/ValentinKolb/dLedger/rpc/serializer"
	"github.com/ValentinKolb/dLedger/rpc/transport"
)

// recordingHandler records all channel events
type recordingHandler struct {
	messages     chan *common.Response
	exceptions   chan error
	disconnects  atomic.Int32
	disconnected chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		messages:     make(chan *common.Response, 16),
		exceptions:   make(chan error, 16),
		disconnected: make(chan struct{}),
	}
}

func (h *recordingHandler) ChannelDisconnected(ch transport.IChannel) {
	if h.disconnects.Add(1) == 1 {
		close(h.disconnected)
	}
}

func (h *recordingHandler) MessageReceived(ch transport.IChannel, resp *common.Response) {
	h.messages <- resp
}

func (h *recordingHandler) ExceptionCaught(ch transport.IChannel, err error) {
	h.exceptions <- err
}

// pipePeer is the bookie side of a net.Pipe
type pipePeer struct {
	conn net.Conn
	s    serializer.IRPCSerializer
}

func (p *pipePeer) readRequest() (common.Request, error) {
	data, err := readFrame(p.conn, nil, common.MaxFrameSize)
	if err != nil {
		return nil, err
	}
	return p.s.DecodeRequest(data)
}

func (p *pipePeer) writeResponse(resp *common.Response) error {
	data, err := p.s.EncodeResponse(resp)
	if err != nil {
		return err
	}
	return writeFrame(p.conn, data)
}

func newPipeChannel(t *testing.T, maxFrameSize int) (*channel, *pipePeer, *recordingHandler) {
	t.Helper()
	local, remote := net.Pipe()
	s := serializer.NewBinarySerializer()
	h := newRecordingHandler()
	ch := newChannel(local, s, h, common.ClientTransportConfig{MaxFrameSize: maxFrameSize})
	t.Cleanup(func() {
		_ = remote.Close()
		_ = ch.Close()
	})
	return ch, &pipePeer{conn: remote, s: s}, h
}

func writeAndWait(t *testing.T, ch transport.IChannel, req common.Request) error {
	t.Helper()
	done := make(chan error, 1)
	ch.Write(req, func(err error) { done <- err })
	select {
	case err := <-done:
		return err
	case <-time.After(time.Second):
		t.Fatal("write was not completed")
		return nil
	}
}

var masterKey = bytes.Repeat([]byte{1}, common.MasterKeyLength)

func TestChannelRequestResponse(t *testing.T) {
	ch, peer, h := newPipeChannel(t, 0)

	go func() {
		req, err := peer.readRequest()
		if err != nil {
			t.Errorf("peer failed to read request: %v", err)
			return
		}
		if err := peer.writeResponse(common.NewAddResponse(common.EOK, req.GetLedgerID(), req.GetEntryID())); err != nil {
			t.Errorf("peer failed to write response: %v", err)
		}
	}()

	if err := writeAndWait(t, ch, common.NewAddRequest(4, 2, common.FlagNone, masterKey, []byte("x"))); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case resp := <-h.messages:
		if resp.OpCode != common.OpAddEntry || resp.LedgerID != 4 || resp.EntryID != 2 || resp.Status != common.EOK {
			t.Errorf("unexpected response %v", resp)
		}
	case <-time.After(time.Second):
		t.Fatal("no response received")
	}

	if !ch.IsActive() || ch.RemoteAddr() == "" {
		t.Error("channel should be active with a remote address")
	}
}

func TestChannelEncodeFailure(t *testing.T) {
	ch, _, _ := newPipeChannel(t, 0)

	err := writeAndWait(t, ch, common.NewAddRequest(1, 1, common.FlagNone, []byte("bad"), nil))
	if !errors.Is(err, common.ErrBadMasterKey) {
		t.Errorf("expected ErrBadMasterKey, got %v", err)
	}
}

func TestChannelFrameErrorsKeepConnection(t *testing.T) {
	ch, peer, h := newPipeChannel(t, 64)

	go func() {
		_ = writeFrame(peer.conn, bytes.Repeat([]byte{9}, 128)) // too long
		_ = writeFrame(peer.conn, []byte{1, 2, 3})              // corrupted
		_ = peer.writeResponse(common.NewReadResponse(common.EOK, 1, 1, []byte("ok")))
	}()

	for _, want := range []error{common.ErrFrameTooLong, common.ErrCorruptedFrame} {
		select {
		case err := <-h.exceptions:
			if !errors.Is(err, want) {
				t.Errorf("expected %v, got %v", want, err)
			}
		case <-time.After(time.Second):
			t.Fatalf("no exception for %v", want)
		}
	}

	select {
	case resp := <-h.messages:
		if string(resp.Data) != "ok" {
			t.Errorf("unexpected payload %q", resp.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("valid frame after frame errors was not delivered")
	}
	if !ch.IsActive() {
		t.Error("frame errors must not close the channel")
	}
}

func TestChannelPeerClose(t *testing.T) {
	ch, peer, h := newPipeChannel(t, 0)

	_ = peer.conn.Close()

	select {
	case <-h.disconnected:
	case <-time.After(time.Second):
		t.Fatal("ChannelDisconnected not called")
	}
	if ch.IsActive() {
		t.Error("channel must be inactive after a disconnect")
	}

	err := writeAndWait(t, ch, common.NewReadRequest(1, 1))
	if !errors.Is(err, common.ErrChannelClosed) {
		t.Errorf("expected ErrChannelClosed, got %v", err)
	}

	_ = ch.Close()
	if n := h.disconnects.Load(); n != 1 {
		t.Errorf("ChannelDisconnected called %d times", n)
	}
}

func TestChannelCloseCompletesAllWrites(t *testing.T) {
	ch, _, h := newPipeChannel(t, 0)

	// nobody reads the pipe, so the first write blocks the writer
	const writes = 20
	var wg sync.WaitGroup
	var completed atomic.Int32
	wg.Add(writes)
	for i := 0; i < writes; i++ {
		ch.Write(common.NewReadRequest(1, int64(i)), func(err error) {
			completed.Add(1)
			wg.Done()
		})
	}

	closed := make(chan struct{})
	go func() {
		_ = ch.Close()
		_ = ch.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	wg.Wait()

	if completed.Load() != writes {
		t.Errorf("%d of %d writes completed", completed.Load(), writes)
	}
	if n := h.disconnects.Load(); n != 1 {
		t.Errorf("ChannelDisconnected called %d times", n)
	}
}

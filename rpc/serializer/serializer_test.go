package serializer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ValentinKolb/dLedger/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"Binary": NewBinarySerializer,
}

var testMasterKey = bytes.Repeat([]byte{0xab}, common.MasterKeyLength)

// TestRequestRoundTrip tests that requests keep ids, flags and payloads through every codec
func TestRequestRoundTrip(t *testing.T) {
	requests := []common.Request{
		common.NewAddRequest(1, 5, common.FlagNone, testMasterKey, []byte("entry-5")),
		common.NewAddRequest(1<<40, 1<<33, common.FlagRecoveryAdd, testMasterKey, nil),
		common.NewReadRequest(2, 3),
		common.NewReadRequest(9, common.LastAddConfirmed),
		common.NewFencingReadRequest(7, 0, testMasterKey),
	}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()

			for i, req := range requests {
				data, err := s.EncodeRequest(req)
				if err != nil {
					t.Fatalf("Failed to encode request %d: %v", i, err)
				}
				got, err := s.DecodeRequest(data)
				if err != nil {
					t.Fatalf("Failed to decode request %d: %v", i, err)
				}

				if got.GetOpCode() != req.GetOpCode() || got.GetLedgerID() != req.GetLedgerID() ||
					got.GetEntryID() != req.GetEntryID() || got.GetFlags() != req.GetFlags() {
					t.Errorf("Request %d doesn't match after round trip:\nOriginal: %v\nResult: %v", i, req, got)
				}

				switch want := req.(type) {
				case *common.AddRequest:
					add := got.(*common.AddRequest)
					if !bytes.Equal(add.Data, want.Data) || !bytes.Equal(add.MasterKey, want.MasterKey) {
						t.Errorf("Request %d payload mismatch: %v", i, add)
					}
				case *common.ReadRequest:
					read := got.(*common.ReadRequest)
					if read.IsFencing() != want.IsFencing() || !bytes.Equal(read.MasterKey, want.MasterKey) {
						t.Errorf("Request %d fencing mismatch: %v", i, read)
					}
				}
			}
		})
	}
}

// TestResponseRoundTrip tests responses through every codec
func TestResponseRoundTrip(t *testing.T) {
	responses := []*common.Response{
		common.NewAddResponse(common.EOK, 1, 5),
		common.NewAddResponse(common.EFENCED, 1, 6),
		common.NewReadResponse(common.EOK, 2, 3, []byte("payload")),
		common.NewReadResponse(common.ENOENTRY, 2, 4, nil),
	}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()

			for i, resp := range responses {
				data, err := s.EncodeResponse(resp)
				if err != nil {
					t.Fatalf("Failed to encode response %d: %v", i, err)
				}
				got, err := s.DecodeResponse(data)
				if err != nil {
					t.Fatalf("Failed to decode response %d: %v", i, err)
				}
				if got.OpCode != resp.OpCode || got.Status != resp.Status ||
					got.LedgerID != resp.LedgerID || got.EntryID != resp.EntryID ||
					!bytes.Equal(got.Data, resp.Data) {
					t.Errorf("Response %d doesn't match after round trip:\nOriginal: %v\nResult: %v", i, resp, got)
				}
			}
		})
	}
}

// TestBadMasterKey tests that requests needing a master key reject keys of the wrong length
func TestBadMasterKey(t *testing.T) {
	requests := map[string]common.Request{
		"add without key":   common.NewAddRequest(1, 1, common.FlagNone, nil, []byte("x")),
		"add short key":     common.NewAddRequest(1, 1, common.FlagNone, []byte("short"), []byte("x")),
		"fence without key": common.NewFencingReadRequest(1, 1, nil),
	}

	for name, factory := range testSerializers {
		for reqName, req := range requests {
			t.Run(name+"/"+reqName, func(t *testing.T) {
				_, err := factory().EncodeRequest(req)
				if !errors.Is(err, common.ErrBadMasterKey) {
					t.Errorf("Expected ErrBadMasterKey, got %v", err)
				}
			})
		}
	}

	// plain reads need no key
	if _, err := NewBinarySerializer().EncodeRequest(common.NewReadRequest(1, 1)); err != nil {
		t.Errorf("Plain read must not need a master key: %v", err)
	}
}

// TestBinaryLayout checks the exact wire layout of the binary serializer
func TestBinaryLayout(t *testing.T) {
	s := NewBinarySerializer()

	t.Run("add request", func(t *testing.T) {
		data, err := s.EncodeRequest(common.NewAddRequest(3, 4, common.FlagRecoveryAdd, testMasterKey, []byte("abc")))
		if err != nil {
			t.Fatal(err)
		}
		if len(data) != 4+16+common.MasterKeyLength+3 {
			t.Fatalf("Unexpected length %d", len(data))
		}
		header := binary.BigEndian.Uint32(data[:4])
		want := uint32(common.CurrentProtocolVersion)<<24 | uint32(common.OpAddEntry)<<16 | uint32(common.FlagRecoveryAdd)
		if header != want {
			t.Errorf("Header = %#x, want %#x", header, want)
		}
		if binary.BigEndian.Uint64(data[4:12]) != 3 || binary.BigEndian.Uint64(data[12:20]) != 4 {
			t.Error("Ledger or entry id at the wrong position")
		}
		if !bytes.Equal(data[20:40], testMasterKey) || string(data[40:]) != "abc" {
			t.Error("Master key or data at the wrong position")
		}
	})

	t.Run("read request", func(t *testing.T) {
		plain, _ := s.EncodeRequest(common.NewReadRequest(3, 4))
		fencing, _ := s.EncodeRequest(common.NewFencingReadRequest(3, 4, testMasterKey))
		if len(plain) != 20 {
			t.Errorf("Plain read has %d bytes, want 20", len(plain))
		}
		if len(fencing) != 20+common.MasterKeyLength {
			t.Errorf("Fencing read has %d bytes, want %d", len(fencing), 20+common.MasterKeyLength)
		}
	})

	t.Run("response", func(t *testing.T) {
		data, _ := s.EncodeResponse(common.NewReadResponse(common.EOK, 3, common.LastAddConfirmed, []byte("zz")))
		if int32(binary.BigEndian.Uint32(data[4:8])) != int32(common.EOK) {
			t.Error("Status at the wrong position")
		}
		if int64(binary.BigEndian.Uint64(data[16:24])) != common.LastAddConfirmed {
			t.Error("Negative entry id not preserved")
		}
		if string(data[24:]) != "zz" {
			t.Error("Read payload missing")
		}

		// an add response never carries data
		add := &common.Response{ProtocolVersion: common.CurrentProtocolVersion, OpCode: common.OpAddEntry, Data: []byte("ignored")}
		data, _ = s.EncodeResponse(add)
		if len(data) != 24 {
			t.Errorf("Add response has %d bytes, want 24", len(data))
		}
	})
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	s := NewBinarySerializer()

	validAdd, _ := s.EncodeRequest(common.NewAddRequest(1, 1, common.FlagNone, testMasterKey, nil))
	unknownOp := make([]byte, 24)
	unknownOp[1] = 9

	testCases := []struct {
		name     string
		data     []byte
		response bool
	}{
		{name: "Empty request", data: []byte{}},
		{name: "Too short request", data: []byte{1, 2, 3}},
		{name: "Add without master key", data: validAdd[:30]},
		{name: "Unknown request op", data: unknownOp},
		{name: "Empty response", data: []byte{}, response: true},
		{name: "Too short response", data: make([]byte, 23), response: true},
		{name: "Unknown response op", data: unknownOp, response: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			if tc.response {
				_, err = s.DecodeResponse(tc.data)
			} else {
				_, err = s.DecodeRequest(tc.data)
			}
			if !errors.Is(err, common.ErrCorruptedFrame) {
				t.Errorf("Expected ErrCorruptedFrame, got %v", err)
			}
		})
	}
}

// TestInvalidJSONData tests that malformed json is reported as a corrupted frame
func TestInvalidJSONData(t *testing.T) {
	s := NewJSONSerializer()

	for _, data := range []string{``, `{`, `{"opCode":"addEntry"}`, `{"opCode":"nope"}`} {
		if _, err := s.DecodeRequest([]byte(data)); !errors.Is(err, common.ErrCorruptedFrame) {
			t.Errorf("DecodeRequest(%q): expected ErrCorruptedFrame, got %v", data, err)
		}
	}
	if _, err := s.DecodeResponse([]byte(`{"opCode":"unknown"}`)); !errors.Is(err, common.ErrCorruptedFrame) {
		t.Errorf("DecodeResponse: expected ErrCorruptedFrame, got %v", err)
	}
}

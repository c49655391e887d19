package base

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/ValentinKolb/dLedger/rpc/common"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payloads := [][]byte{[]byte("first"), {}, bytes.Repeat([]byte{7}, 5000)}

	for _, p := range payloads {
		if err := writeFrame(&buf, p); err != nil {
			t.Fatalf("writeFrame failed: %v", err)
		}
	}

	scratch := make([]byte, 16)
	for i, want := range payloads {
		got, err := readFrame(&buf, scratch, common.MaxFrameSize)
		if err != nil {
			t.Fatalf("readFrame %d failed: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d: got %d bytes, want %d", i, len(got), len(want))
		}
	}

	if _, err := readFrame(&buf, scratch, common.MaxFrameSize); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF on an empty reader, got %v", err)
	}
}

func TestOversizeFrameIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	_ = writeFrame(&buf, bytes.Repeat([]byte{1}, 100))
	_ = writeFrame(&buf, []byte("next"))

	_, err := readFrame(&buf, nil, 64)
	if !errors.Is(err, common.ErrFrameTooLong) {
		t.Fatalf("expected ErrFrameTooLong, got %v", err)
	}

	got, err := readFrame(&buf, nil, 64)
	if err != nil || string(got) != "next" {
		t.Fatalf("the frame after an oversize frame must be readable, got %q, %v", got, err)
	}
}

func TestTruncatedFrame(t *testing.T) {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, 10)
	r := bytes.NewReader(append(header, []byte("abc")...))

	if _, err := readFrame(r, nil, common.MaxFrameSize); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

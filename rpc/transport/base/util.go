package base

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/ValentinKolb/dLedger/rpc/common"
)

// frameHeaderSize is the size of the length prefix of a frame
const frameHeaderSize = 4

// writeFrame writes a frame to the writer with the format:
// - 4 bytes: data length (uint32, big endian)
// - N bytes: data payload
func writeFrame(w io.Writer, data []byte) error {
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header, uint32(len(data)))

	b := net.Buffers{header, data}
	_, err := b.WriteTo(w)
	return err
}

// readFrame reads a frame from the reader using the provided buffer.
// If the buffer is too small, it will allocate a new temporary buffer for the data.
// A frame larger than maxFrameSize is skipped and reported as common.ErrFrameTooLong,
// the reader is positioned at the next frame afterwards.
func readFrame(r io.Reader, buf []byte, maxFrameSize int) ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	contentLength := int(binary.BigEndian.Uint32(header[:]))
	if contentLength == 0 {
		return []byte{}, nil
	}

	if maxFrameSize > 0 && contentLength > maxFrameSize {
		if _, err := io.CopyN(io.Discard, r, int64(contentLength)); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %d bytes exceed the limit of %d", common.ErrFrameTooLong, contentLength, maxFrameSize)
	}

	if len(buf) < contentLength {
		buf = make([]byte, contentLength)
	}
	if _, err := io.ReadFull(r, buf[:contentLength]); err != nil {
		return nil, err
	}
	return buf[:contentLength], nil
}

// isConnectionClosed reports errors that only mean the peer or we closed the connection
func isConnectionClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed)
}

package common

import "errors"

// Transport level errors. Callers compare with errors.Is, the transport wraps
// them with context.
var (
	// ErrChannelClosed is returned for writes on a channel that is closed or closing
	ErrChannelClosed = errors.New("channel closed")
	// ErrFrameTooLong is reported when an inbound frame exceeds the max frame size
	ErrFrameTooLong = errors.New("frame too long")
	// ErrCorruptedFrame is reported when a frame cannot be decoded
	ErrCorruptedFrame = errors.New("corrupted frame")
	// ErrBadMasterKey is returned when a master key does not have MasterKeyLength bytes
	ErrBadMasterKey = errors.New("master key must be 20 bytes")
)

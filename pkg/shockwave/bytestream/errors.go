package bytestream

import "errors"

// Sentinel errors returned by Stream operations. Pre-allocated, never
// wrapped, matching the flat sentinel-var convention used throughout
// this module.
var (
	// ErrEndOfStream is returned by Fill when the transport returns 0
	// bytes while a caller is mid-parse and expects more data.
	ErrEndOfStream = errors.New("bytestream: end of stream")

	// ErrEndOfBuffer is returned by the read primitives when the
	// readable window is empty and no more data is currently buffered.
	ErrEndOfBuffer = errors.New("bytestream: end of buffer")

	// ErrBufferFull is returned by ShiftAndFill when compacting the
	// buffer did not free any space (the buffer is already exhausted
	// and cannot be grown further by the caller's policy).
	ErrBufferFull = errors.New("bytestream: buffer full")

	// ErrClosed is returned by any operation attempted after Close.
	ErrClosed = errors.New("bytestream: stream closed")
)

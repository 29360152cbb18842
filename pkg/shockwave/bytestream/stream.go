// Package bytestream provides the zero-copy buffered I/O primitive that
// the HTTP/1.x parser and response writer are built on top of. A Stream
// owns an input buffer that can be swapped out from under it (so a
// parser can write request bytes directly into storage the Request
// itself owns) and an output buffer that batches writes until Flush.
package bytestream

import (
	"encoding/binary"
	"io"
)

// Stream wraps a transport (anything that reads and writes bytes — a
// net.Conn in production, a bytes.Buffer in tests) with a buffered
// input window and a buffered output window.
//
// Invariant: 0 <= readIndex <= writeEnd <= len(in) at all times.
//
// A Stream is not safe for concurrent use: reads and writes on the same
// stream are strictly serialized, matching the single-owner-at-a-time
// discipline the connection driver enforces.
type Stream struct {
	conn io.ReadWriter

	in        []byte
	readIndex int
	writeEnd  int

	out    []byte
	outLen int

	unbuffered bool
	closed     bool
}

// New wraps conn with the given input buffer. The caller supplies the
// initial input buffer (typically drawn from a pool) and an output
// buffer capacity; the output buffer grows via append if exceeded.
func New(conn io.ReadWriter, in []byte, outCap int) *Stream {
	return &Stream{
		conn: conn,
		in:   in,
		out:  make([]byte, 0, outCap),
	}
}

// Reset rewinds the stream to an empty state over a (possibly new)
// input buffer and transport, for reuse from a pool.
func (s *Stream) Reset(conn io.ReadWriter, in []byte) {
	s.conn = conn
	s.in = in
	s.readIndex = 0
	s.writeEnd = 0
	s.out = s.out[:0]
	s.unbuffered = false
	s.closed = false
}

// AmountBuffered returns the number of unread bytes currently in the
// input window.
func (s *Stream) AmountBuffered() int {
	return s.writeEnd - s.readIndex
}

// Capacity returns the size of the owned input buffer.
func (s *Stream) Capacity() int {
	return len(s.in)
}

// Fill pulls from the transport into the free tail of the input
// buffer (the region [writeEnd, len(in))) and returns the number of
// bytes read. Returns ErrEndOfStream if the transport yields 0 bytes
// and io.EOF, since a mid-parse caller always expects more data to
// follow a short read.
func (s *Stream) Fill() (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if s.writeEnd >= len(s.in) {
		return 0, ErrBufferFull
	}

	n, err := s.conn.Read(s.in[s.writeEnd:])
	s.writeEnd += n

	if n == 0 && err != nil {
		if err == io.EOF {
			return 0, ErrEndOfStream
		}
		return 0, err
	}
	return n, nil
}

// ShiftAndFill memmoves the unread bytes [from, writeEnd) to the start
// of the buffer, then calls Fill to pull in more data. Used by the
// parser when the current parse position needs to remain addressable
// (byte slices already handed out must stay valid relative to index 0)
// but the buffer's tail is full.
func (s *Stream) ShiftAndFill(from int) (int, error) {
	if from < 0 || from > s.writeEnd {
		from = s.readIndex
	}

	shifted := copy(s.in, s.in[from:s.writeEnd])
	s.writeEnd = shifted
	s.readIndex -= from
	if s.readIndex < 0 {
		s.readIndex = 0
	}

	if s.writeEnd >= len(s.in) {
		return 0, ErrBufferFull
	}
	return s.Fill()
}

// ReadU8Safe returns the next unread byte, advancing the read index,
// or ErrEndOfBuffer if the window is empty.
func (s *Stream) ReadU8Safe() (byte, error) {
	if s.readIndex >= s.writeEnd {
		return 0, ErrEndOfBuffer
	}
	b := s.in[s.readIndex]
	s.readIndex++
	return b, nil
}

// ReadU8Unsafe returns the next unread byte without a bounds check.
// The caller must have already verified AmountBuffered() > 0.
func (s *Stream) ReadU8Unsafe() byte {
	b := s.in[s.readIndex]
	s.readIndex++
	return b
}

// ReadUntilExpr advances the read index until pred(byte) returns true,
// returning the terminator byte that satisfied pred. Returns
// ErrEndOfBuffer if the window is exhausted before pred matches — the
// caller is expected to ShiftAndFill and retry from the start of the
// unconsumed region.
func (s *Stream) ReadUntilExpr(pred func(byte) bool) (byte, error) {
	for s.readIndex < s.writeEnd {
		b := s.in[s.readIndex]
		s.readIndex++
		if pred(b) {
			return b, nil
		}
	}
	return 0, ErrEndOfBuffer
}

// Advance skips n bytes of the readable window without copying them
// anywhere, for callers (the HTTP/1.x parser) that scanned ahead via
// ReadBuffered's borrowed slice and now need the stream's own read
// index to catch up to where they stopped looking.
func (s *Stream) Advance(n int) error {
	if n < 0 || s.readIndex+n > s.writeEnd {
		return ErrEndOfBuffer
	}
	s.readIndex += n
	return nil
}

// ReadBuffered exposes the current readable window as a borrowed byte
// slice without advancing the read index. The slice aliases the
// stream's owned buffer and is invalidated by the next Fill,
// ShiftAndFill, or SwapInputBuffer call.
func (s *Stream) ReadBuffered() []byte {
	return s.in[s.readIndex:s.writeEnd]
}

// SwapInputBuffer substitutes the owned input buffer with buf,
// returning the previously owned buffer. Used by the connection driver
// to hand the parser a buffer that belongs to the Request, so parsed
// header/URI slices stay valid for the request's whole lifetime
// without ever being copied.
func (s *Stream) SwapInputBuffer(buf []byte) []byte {
	old := s.in
	s.in = buf
	s.readIndex = 0
	s.writeEnd = 0
	return old
}

// SetUnbuffered toggles direct transport reads. When on, Read bypasses
// the input buffer entirely and reads straight into the caller's
// destination slice — used while spooling a body too large to fit in
// the buffered window to a temp file.
func (s *Stream) SetUnbuffered(flag bool) {
	s.unbuffered = flag
}

// Read implements io.Reader. In buffered mode it drains the input
// window first, refilling from the transport once exhausted, following
// the ordinary bufio.Reader contract. In unbuffered mode (see
// SetUnbuffered) it reads directly from the transport into p.
func (s *Stream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	if s.unbuffered {
		return s.conn.Read(p)
	}

	if s.readIndex >= s.writeEnd {
		if _, err := s.Fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, s.in[s.readIndex:s.writeEnd])
	s.readIndex += n
	return n, nil
}

// Write accumulates bytes into the output buffer. Flush transmits
// them to the transport.
func (s *Stream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	s.out = append(s.out, p...)
	return len(p), nil
}

// WriteIntBig appends the big-endian encoding of v, using width bytes
// (1, 2, 4, or 8), to the output buffer. Used for WebSocket extended
// payload lengths and other fixed-width wire integers.
func (s *Stream) WriteIntBig(v uint64, width int) error {
	var buf [8]byte
	switch width {
	case 1:
		buf[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(buf[:2], uint16(v))
	case 4:
		binary.BigEndian.PutUint32(buf[:4], uint32(v))
	case 8:
		binary.BigEndian.PutUint64(buf[:8], v)
	default:
		return ErrBufferFull
	}
	_, err := s.Write(buf[:width])
	return err
}

// Flush drains the output buffer to the transport. Must be called
// before the connection awaits new input from the peer, so response
// bytes are never withheld by buffering across a read boundary.
func (s *Stream) Flush() error {
	if s.closed {
		return ErrClosed
	}
	if s.outLen != 0 {
		s.outLen = 0
	}
	if len(s.out) == 0 {
		return nil
	}
	_, err := s.conn.Write(s.out)
	s.out = s.out[:0]
	return err
}

// Close marks the stream closed. The underlying transport is the
// caller's responsibility to close.
func (s *Stream) Close() error {
	s.closed = true
	return nil
}

package http1

import (
	"strconv"
	"time"

	"github.com/yourusername/shockwave/pkg/shockwave/bytestream"
)

// httpTimeFormat is the IMF-fixdate layout RFC 7231 §7.1.1.1 requires
// for the Date header.
const httpTimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// ResponseWriter writes an HTTP/1.x response onto a bytestream.Stream.
//
// It picks between two send modes on the first write: if a
// Content-Length header was set before any body byte was written, it
// streams exactly that many bytes under that framing; otherwise it
// switches transparently to Transfer-Encoding: chunked on the first
// Write call. Once headers are sent (HeadersSent() is true) neither
// the status nor any header may change — WriteHeader calls after that
// point are ignored, matching net/http's own contract.
type ResponseWriter struct {
	stream *bytestream.Stream

	status        int
	header        HeaderMap
	statusWritten bool
	headersSent   bool
	chunked       bool
	bytesWritten  int64

	// closeAfter is set by the connection driver before the handler
	// runs (e.g. max-requests-per-connection reached) so the
	// Connection: close header gets emitted even though the handler
	// itself never asked for it.
	closeAfter bool
}

// NewResponseWriter wraps stream. status defaults to 200.
func NewResponseWriter(stream *bytestream.Stream) *ResponseWriter {
	return &ResponseWriter{stream: stream, status: 200}
}

// Header returns the response header map. Must be populated before
// the first Write or Finish call, which send the headers; WriteHeader
// itself sends nothing.
func (rw *ResponseWriter) Header() *HeaderMap { return &rw.header }

// SetCloseAfter marks that the connection driver has already decided
// this is the last request on the connection, so Connection: close
// must be emitted regardless of what the handler sets.
func (rw *ResponseWriter) SetCloseAfter(close bool) { rw.closeAfter = close }

// WriteHeader records the status code to send. Only the first call
// has effect, and no call has effect once headers are sent.
func (rw *ResponseWriter) WriteHeader(statusCode int) {
	if rw.statusWritten || rw.headersSent {
		return
	}
	rw.status = statusCode
	rw.statusWritten = true
}

// HeadersSent reports whether the status line and headers have
// already been written to the stream.
func (rw *ResponseWriter) HeadersSent() bool { return rw.headersSent }

// Status returns the status code that will be (or was) sent.
func (rw *ResponseWriter) Status() int { return rw.status }

// BytesWritten returns the number of body bytes written so far.
func (rw *ResponseWriter) BytesWritten() int64 { return rw.bytesWritten }

// Write sends body bytes, emitting the status line and headers first
// if they have not been sent yet. If no Content-Length was set before
// this first call, the response switches to chunked encoding and each
// Write call is framed as its own chunk.
func (rw *ResponseWriter) Write(data []byte) (int, error) {
	if !rw.headersSent {
		rw.chunked = rw.header.Get(headerContentLength) == nil
		if rw.chunked {
			rw.header.Set(headerTransferEncoding, headerChunked)
		}
		if err := rw.sendHeaders(); err != nil {
			return 0, err
		}
	}

	if rw.chunked {
		if len(data) == 0 {
			return 0, nil
		}
		sizeHex := strconv.FormatInt(int64(len(data)), 16)
		if _, err := rw.stream.Write([]byte(sizeHex)); err != nil {
			return 0, err
		}
		if _, err := rw.stream.Write(crlf); err != nil {
			return 0, err
		}
		if _, err := rw.stream.Write(data); err != nil {
			return 0, err
		}
		if _, err := rw.stream.Write(crlf); err != nil {
			return 0, err
		}
	} else {
		if _, err := rw.stream.Write(data); err != nil {
			return 0, err
		}
	}

	rw.bytesWritten += int64(len(data))
	return len(data), nil
}

// Finish completes the response: for chunked mode it writes the
// terminating 0-length chunk, then flushes the stream either way. The
// driver calls this once per request after the handler returns, and
// it also covers the zero-body case (headers never sent by Write).
func (rw *ResponseWriter) Finish() error {
	if !rw.headersSent {
		// No Content-Length means an empty body; set it explicitly so
		// the framing is unambiguous rather than falling into chunked
		// mode for a response with nothing to send. Informational and
		// 204/304 responses never carry a body, so they're left alone.
		if rw.header.Get(headerContentLength) == nil && bodyAllowedForStatus(rw.status) {
			rw.header.Set(headerContentLength, []byte("0"))
		}
		rw.chunked = false
		if err := rw.sendHeaders(); err != nil {
			return err
		}
	}
	if rw.chunked {
		if _, err := rw.stream.Write([]byte("0\r\n\r\n")); err != nil {
			return err
		}
	}
	return rw.stream.Flush()
}

func (rw *ResponseWriter) sendHeaders() error {
	rw.headersSent = true

	if rw.header.Get(headerDate) == nil {
		rw.header.Set(headerDate, []byte(time.Now().UTC().Format(httpTimeFormat)))
	}
	if rw.header.Get(headerServer) == nil {
		rw.header.Set(headerServer, []byte(serverHeaderValue))
	}
	if rw.closeAfter {
		rw.header.Set(headerConnection, headerClose)
	}

	statusLine := getStatusLine(rw.status)
	if _, err := rw.stream.Write(statusLine); err != nil {
		return err
	}

	var writeErr error
	rw.header.VisitAll(func(name, value []byte) bool {
		if _, err := rw.stream.Write(name); err != nil {
			writeErr = err
			return false
		}
		if _, err := rw.stream.Write(colonSpace); err != nil {
			writeErr = err
			return false
		}
		if _, err := rw.stream.Write(value); err != nil {
			writeErr = err
			return false
		}
		if _, err := rw.stream.Write(crlf); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if writeErr != nil {
		return writeErr
	}

	_, err := rw.stream.Write(crlf)
	return err
}

// Reset reconfigures the ResponseWriter for reuse over stream.
func (rw *ResponseWriter) Reset(stream *bytestream.Stream) {
	rw.stream = stream
	rw.status = 200
	rw.header.Reset()
	rw.statusWritten = false
	rw.headersSent = false
	rw.chunked = false
	rw.bytesWritten = 0
	rw.closeAfter = false
}

// bodyAllowedForStatus reports whether a response with this status may
// carry a body, per RFC 7230 §3.3.
func bodyAllowedForStatus(status int) bool {
	return status >= 200 && status != 204 && status != 304
}

func getStatusLine(code int) []byte {
	switch code {
	case 100:
		return status100Bytes
	case 101:
		return status101Bytes
	case 200:
		return status200Bytes
	case 201:
		return status201Bytes
	case 202:
		return status202Bytes
	case 204:
		return status204Bytes
	case 206:
		return status206Bytes
	case 301:
		return status301Bytes
	case 302:
		return status302Bytes
	case 304:
		return status304Bytes
	case 400:
		return status400Bytes
	case 401:
		return status401Bytes
	case 403:
		return status403Bytes
	case 404:
		return status404Bytes
	case 405:
		return status405Bytes
	case 408:
		return status408Bytes
	case 411:
		return status411Bytes
	case 413:
		return status413Bytes
	case 414:
		return status414Bytes
	case 431:
		return status431Bytes
	case 500:
		return status500Bytes
	case 501:
		return status501Bytes
	case 505:
		return status505Bytes
	default:
		return buildStatusLine(code)
	}
}

func buildStatusLine(code int) []byte {
	return []byte("HTTP/1.1 " + strconv.Itoa(code) + " " + statusText(code) + "\r\n")
}

func statusText(code int) string {
	switch code {
	case 100:
		return "Continue"
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 202:
		return "Accepted"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 304:
		return "Not Modified"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 408:
		return "Request Timeout"
	case 411:
		return "Length Required"
	case 413:
		return "Payload Too Large"
	case 414:
		return "URI Too Long"
	case 431:
		return "Request Header Fields Too Large"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	case 505:
		return "HTTP Version Not Supported"
	default:
		return "Unknown"
	}
}

// Package http1 implements the HTTP/1.x wire protocol: request parsing,
// response writing, the keep-alive connection state machine, and the
// header/cookie maps they share. Header and URI bytes are borrowed
// directly from the connection's own input buffer rather than copied,
// so every type in this package documents how long its slices stay valid.
package http1

// Limits, per RFC 7230 recommendations and this server's own budget.
const (
	// MaxHeaders bounds the number of header pairs a single request or
	// response may carry.
	MaxHeaders = 32

	// MaxRequestLineSize bounds the method+URI+version line.
	MaxRequestLineSize = 8192

	// MaxURILength bounds the Request-URI alone.
	MaxURILength = 8192

	// MaxHeaderSize bounds the total bytes of the header block
	// (request line excluded).
	MaxHeaderSize = 8192

	// DefaultBufferSize is the initial output-buffer capacity of a
	// connection's stream. Input buffers come from the ObjectPool at
	// ParserBufferSize.
	DefaultBufferSize = 4096
)

// Pre-compiled status lines, avoiding an allocation for the common
// cases. Uncommon codes fall back to buildStatusLine.
var (
	status100Bytes = []byte("HTTP/1.1 100 Continue\r\n")
	status101Bytes = []byte("HTTP/1.1 101 Switching Protocols\r\n")
	status200Bytes = []byte("HTTP/1.1 200 OK\r\n")
	status201Bytes = []byte("HTTP/1.1 201 Created\r\n")
	status202Bytes = []byte("HTTP/1.1 202 Accepted\r\n")
	status204Bytes = []byte("HTTP/1.1 204 No Content\r\n")
	status206Bytes = []byte("HTTP/1.1 206 Partial Content\r\n")
	status301Bytes = []byte("HTTP/1.1 301 Moved Permanently\r\n")
	status302Bytes = []byte("HTTP/1.1 302 Found\r\n")
	status304Bytes = []byte("HTTP/1.1 304 Not Modified\r\n")
	status400Bytes = []byte("HTTP/1.1 400 Bad Request\r\n")
	status401Bytes = []byte("HTTP/1.1 401 Unauthorized\r\n")
	status403Bytes = []byte("HTTP/1.1 403 Forbidden\r\n")
	status404Bytes = []byte("HTTP/1.1 404 Not Found\r\n")
	status405Bytes = []byte("HTTP/1.1 405 Method Not Allowed\r\n")
	status408Bytes = []byte("HTTP/1.1 408 Request Timeout\r\n")
	status411Bytes = []byte("HTTP/1.1 411 Length Required\r\n")
	status413Bytes = []byte("HTTP/1.1 413 Payload Too Large\r\n")
	status414Bytes = []byte("HTTP/1.1 414 URI Too Long\r\n")
	status431Bytes = []byte("HTTP/1.1 431 Request Header Fields Too Large\r\n")
	status500Bytes = []byte("HTTP/1.1 500 Internal Server Error\r\n")
	status501Bytes = []byte("HTTP/1.1 501 Not Implemented\r\n")
	status505Bytes = []byte("HTTP/1.1 505 HTTP Version Not Supported\r\n")
)

var (
	crlf       = []byte("\r\n")
	colonSpace = []byte(": ")
)

// Common header names, as byte slices so comparisons against parsed
// (also-byte-slice) header names never allocate.
var (
	headerContentLength    = []byte("Content-Length")
	headerContentType      = []byte("Content-Type")
	headerConnection       = []byte("Connection")
	headerClose            = []byte("close")
	headerTransferEncoding = []byte("Transfer-Encoding")
	headerChunked          = []byte("chunked")
	headerHost             = []byte("Host")
	headerDate             = []byte("Date")
	headerServer           = []byte("Server")
	headerCookie           = []byte("Cookie")
	headerSetCookie        = []byte("Set-Cookie")
	headerUpgrade          = []byte("Upgrade")
)

const serverHeaderValue = "shockwave"

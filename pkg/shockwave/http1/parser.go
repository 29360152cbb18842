package http1

import (
	"bytes"
	"io"

	"github.com/yourusername/shockwave/pkg/shockwave/bytestream"
)

// Parser is a RequestParser: it reads a request head (request line
// plus headers) off a bytestream.Stream into a Request's own buffer,
// without ever copying a header name, value, or URI component.
//
// Parser itself holds no per-request state — everything belongs either
// to the Stream (the buffered transport window) or the Request (the
// parsed fields). A single Parser value can therefore drive any number
// of connections.
type Parser struct{}

// NewParser returns a ready-to-use Parser.
func NewParser() *Parser { return &Parser{} }

// Parse reads and parses one request head from s into req, then
// advances s past the head so any body starts at the stream's read
// position; the body reader itself is set up separately by SetupBody.
// req must have already had s's input buffer swapped into it via
// bytestream.Stream.SwapInputBuffer, so the zero-copy slices Parse
// hands back stay valid for the Request's full lifetime.
//
// If the head is not yet fully buffered, Parse pulls more bytes from
// the transport and returns ErrEndOfBuffer: the connection driver's
// ReadingHead state retries the call over the larger window. A head
// that fills the stream's whole input buffer without ending fails
// with ErrRequestHeaderFieldsHuge. A transport that reaches end of
// stream yields io.EOF, which the driver treats as a silent close; any
// other error is a terminal protocol violation the driver turns into
// an error response.
func (p *Parser) Parse(s *bytestream.Stream, req *Request) error {
	buf := s.ReadBuffered()

	headStart, headEnd, bodyStart, err := indexHeadEnd(buf)
	if err != nil {
		return err
	}
	if headEnd == -1 {
		if len(buf) >= MaxHeaderSize+MaxRequestLineSize {
			return ErrRequestHeaderFieldsHuge
		}
		if _, err := s.Fill(); err != nil {
			switch err {
			case bytestream.ErrBufferFull:
				return ErrRequestHeaderFieldsHuge
			case bytestream.ErrEndOfStream:
				return io.EOF
			default:
				return err
			}
		}
		return ErrEndOfBuffer
	}

	head := buf[headStart:headEnd]
	lineEnd, lineWidth, lerr := indexLineEnd(head)
	if lerr != nil {
		return lerr
	}
	if lineEnd == -1 {
		return ErrBadRequest
	}
	requestLine := head[:lineEnd]
	headerBlock := head[lineEnd+lineWidth:]

	if err := parseRequestLine(requestLine, req); err != nil {
		return err
	}

	contentLength, chunked, err := parseHeaderBlock(&req.Header, headerBlock)
	if err != nil {
		return err
	}
	req.ContentLength = contentLength
	req.Chunked = chunked
	req.primeCookies()
	req.Close = computeShouldClose(req)

	if err := s.Advance(bodyStart); err != nil {
		return err
	}
	return nil
}

// indexHeadEnd scans b for the blank line terminating a request head —
// two line terminators back to back, in any combination of CRLF and
// bare LF (§6: CRLF preferred, bare LF tolerated). Any blank lines
// leading the real request line are skipped first, per RFC 7230
// §3.5's robustness recommendation for servers reading pipelined
// requests, so they never get mistaken for the head's own terminating
// blank line.
//
// It returns headStart (the offset the real request line begins at),
// headEnd (the offset where the head's content ends, terminator of
// the last header line included), and bodyStart (the offset
// immediately following the terminating blank line's own
// terminator). All three are -1 if the full blank line isn't yet
// buffered.
func indexHeadEnd(b []byte) (headStart, headEnd, bodyStart int, err error) {
	pos := 0
	for {
		idx, width, lerr := indexLineEnd(b[pos:])
		if lerr != nil {
			return 0, 0, 0, lerr
		}
		if idx == -1 {
			return -1, -1, -1, nil
		}
		if idx != 0 {
			break
		}
		pos += width
	}
	headStart = pos

	for {
		idx, width, lerr := indexLineEnd(b[pos:])
		if lerr != nil {
			return 0, 0, 0, lerr
		}
		if idx == -1 {
			return -1, -1, -1, nil
		}
		if idx == 0 {
			return headStart, pos, pos + width, nil
		}
		pos += idx + width
	}
}

// parseRequestLine parses "METHOD SP request-target SP HTTP-version"
// into req. indexHeadEnd has already skipped any leading blank lines,
// so line always starts with real request-line content.
func parseRequestLine(line []byte, req *Request) error {
	if len(line) > MaxRequestLineSize {
		return ErrRequestURITooLong
	}

	method, methodBytes, rest, err := parseMethod(line)
	if err != nil {
		return err
	}

	sp := indexByte(rest, ' ')
	if sp <= 0 {
		return ErrInvalidPath
	}
	target := rest[:sp]
	rest = rest[sp+1:]

	if len(target) > MaxURILength {
		return ErrRequestURITooLong
	}

	form, scheme, hostBytes, pathBytes, queryBytes, err := parseRequestTarget(target)
	if err != nil {
		return err
	}

	version, versionErr := parseVersion(rest)

	req.Method = method
	req.methodBytes = methodBytes
	req.Form = form
	req.Scheme = scheme
	req.hostBytes = hostBytes
	req.pathBytes = pathBytes
	req.queryBytes = queryBytes
	req.Version = version
	return versionErr
}

// parseMethod matches the request line's method token against the
// fast 4-byte prefixes first, falling back to a full-token scan for
// CONNECT, TRACE, and any other unrecognized method. It returns the
// matched method, its raw bytes, and the remainder of the line after
// the separating space.
func parseMethod(line []byte) (Method, []byte, []byte, error) {
	if len(line) >= 4 {
		var window [4]byte
		copy(window[:], line[:4])
		if m, n := matchMethod4(window); m != MethodUnknown {
			name := m.String()
			if len(line) < len(name)+1 || !bytes.Equal(line[:len(name)], []byte(name)) || line[len(name)] != ' ' {
				return MethodUnknown, nil, nil, ErrInvalidMethod
			}
			_ = n
			return m, line[:len(name)], line[len(name)+1:], nil
		}
	}

	sp := indexByte(line, ' ')
	if sp <= 0 {
		return MethodUnknown, nil, nil, ErrInvalidMethod
	}
	token := line[:sp]
	switch {
	case bytes.Equal(token, []byte("CONNECT")):
		return MethodCONNECT, token, line[sp+1:], nil
	case bytes.Equal(token, []byte("TRACE")):
		return MethodTRACE, token, line[sp+1:], nil
	}
	return MethodUnknown, nil, nil, ErrInvalidMethod
}

// parseRequestTarget classifies and decomposes the request-target per
// RFC 7230 §5.3: asterisk-form ("*"), origin-form ("/path?query"), or
// absolute-form ("http://host[:port]/path?query").
func parseRequestTarget(target []byte) (form URIForm, scheme Scheme, host, path, query []byte, err error) {
	if len(target) == 1 && target[0] == '*' {
		return URIFormAsterisk, SchemeUnknown, nil, nil, nil, nil
	}

	if target[0] == '/' {
		p, q := splitQuery(target)
		return URIFormOrigin, SchemeUnknown, nil, p, q, nil
	}

	var schemeLen int
	switch {
	case len(target) > 7 && bytes.EqualFold(target[:7], []byte("http://")):
		scheme, schemeLen = SchemeHTTP, 7
	case len(target) > 8 && bytes.EqualFold(target[:8], []byte("https://")):
		scheme, schemeLen = SchemeHTTPS, 8
	default:
		return 0, 0, nil, nil, nil, ErrInvalidPath
	}

	rest := target[schemeLen:]
	slash := indexByte(rest, '/')
	if slash == -1 {
		return URIFormAbsolute, scheme, rest, []byte("/"), nil, nil
	}
	host = rest[:slash]
	if len(host) == 0 {
		return 0, 0, nil, nil, nil, ErrInvalidPath
	}
	p, q := splitQuery(rest[slash:])
	return URIFormAbsolute, scheme, host, p, q, nil
}

func splitQuery(pathAndQuery []byte) (path, query []byte) {
	if q := indexByte(pathAndQuery, '?'); q != -1 {
		return pathAndQuery[:q], pathAndQuery[q+1:]
	}
	return pathAndQuery, nil
}

// parseVersion parses the HTTP-version token. HTTP/2 and HTTP/3 are
// recognized (so the caller can answer 505 rather than misparsing the
// rest of the line as 1.x) but not implemented.
func parseVersion(proto []byte) (Version, error) {
	switch {
	case bytes.Equal(proto, []byte("HTTP/1.1")):
		return VersionHTTP11, nil
	case bytes.Equal(proto, []byte("HTTP/1.0")):
		return VersionHTTP10, nil
	case bytes.Equal(proto, []byte("HTTP/2.0")), bytes.Equal(proto, []byte("HTTP/2")):
		return VersionHTTP2, ErrUnsupportedHTTPVersion
	case bytes.Equal(proto, []byte("HTTP/3.0")), bytes.Equal(proto, []byte("HTTP/3")):
		return VersionHTTP3, ErrUnsupportedHTTPVersion
	default:
		return VersionUnknown, ErrUnsupportedHTTPVersion
	}
}

// computeShouldClose applies the keep-alive defaulting rules: HTTP/1.1
// defaults to persistent unless Connection: close was sent. HTTP/1.0
// always defaults to close — an HTTP/1.0 client sending
// Connection: keep-alive does not override that default, since
// persistent connections were never standardized for 1.0 and the
// header alone doesn't establish that the client implements the
// (informal) keep-alive handshake correctly.
func computeShouldClose(req *Request) bool {
	connection := req.Header.Get(headerConnection)
	if connection != nil && bytesEqualFoldList(connection, headerClose) {
		return true
	}
	return req.Version == VersionHTTP10
}

// bytesEqualFoldList reports whether token (case-insensitively) is one
// of the comma-separated values in the Connection header — in
// practice this header is almost always a single token, but the
// comma-list form is technically legal.
func bytesEqualFoldList(value, token []byte) bool {
	for len(value) > 0 {
		comma := indexByte(value, ',')
		var item []byte
		if comma == -1 {
			item = value
			value = nil
		} else {
			item = value[:comma]
			value = value[comma+1:]
		}
		if equalFold(trimSpaceBytes(item), token) {
			return true
		}
	}
	return false
}

// SetupBody wires req's Body-related fields to the appropriate reader
// given its already-parsed ContentLength/Chunked: a LimitReader over s
// for a fixed-length body, a ChunkedReader for chunked encoding, or
// nothing for a bodyless request. It does not itself decide between
// buffering and spooling — that policy lives in the connection driver,
// which knows the configured in-memory body ceiling.
func SetupBody(s *bytestream.Stream, req *Request) io.Reader {
	switch {
	case req.Chunked:
		return NewChunkedReader(s)
	case req.ContentLength > 0:
		return io.LimitReader(s, req.ContentLength)
	default:
		return nil
	}
}

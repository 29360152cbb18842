package http1

// headerPair is one name/value entry. Both slices are borrowed —
// either from the connection's input buffer (when parsed off the
// wire) or from a caller-supplied slice (when set programmatically on
// a response). Neither is ever copied by HeaderMap itself.
type headerPair struct {
	name  []byte
	value []byte
}

// HeaderMap is an ordered, case-insensitive, capacity-bounded
// collection of header name/value pairs. Unlike the fixed inline-array
// storage this module's ancestor used, HeaderMap stores only slice
// headers — the bytes themselves are never copied into HeaderMap, so
// parsed headers stay zero-copy slices into the Request's owning
// buffer for the lifetime of the request.
//
// A capacity-bounded design (MaxHeaders) still applies: there is no
// overflow map, because spilling to the heap would reintroduce the
// allocation this type exists to avoid. Exceeding the bound is a
// protocol error (ErrTooManyHeaders), not a degraded fallback path.
type HeaderMap struct {
	pairs [MaxHeaders]headerPair
	count int
}

// Add appends a header, without checking for an existing entry with
// the same name (HTTP permits repeated header fields). Returns
// ErrTooManyHeaders once MaxHeaders is reached.
func (h *HeaderMap) Add(name, value []byte) error {
	if h.count >= MaxHeaders {
		return ErrTooManyHeaders
	}
	for _, b := range name {
		if b == '\r' || b == '\n' || b == 0 {
			return ErrInvalidHeader
		}
	}
	for _, b := range value {
		if b == '\r' || b == '\n' || b == 0 {
			return ErrInvalidHeader
		}
	}
	h.pairs[h.count] = headerPair{name: name, value: value}
	h.count++
	return nil
}

// Get returns the first value stored under name (case-insensitive),
// or nil if absent. The returned slice aliases whatever backing store
// the pair was added with.
func (h *HeaderMap) Get(name []byte) []byte {
	for i := 0; i < h.count; i++ {
		if equalFold(h.pairs[i].name, name) {
			return h.pairs[i].value
		}
	}
	return nil
}

// GetString is a convenience wrapper around Get that allocates a
// string; prefer Get when the caller can work with []byte.
func (h *HeaderMap) GetString(name []byte) string {
	v := h.Get(name)
	if v == nil {
		return ""
	}
	return string(v)
}

// Has reports whether a header with the given name is present.
func (h *HeaderMap) Has(name []byte) bool {
	for i := 0; i < h.count; i++ {
		if equalFold(h.pairs[i].name, name) {
			return true
		}
	}
	return false
}

// Set replaces the first matching header's value, or appends a new
// pair if none matched.
func (h *HeaderMap) Set(name, value []byte) error {
	for i := 0; i < h.count; i++ {
		if equalFold(h.pairs[i].name, name) {
			h.pairs[i].value = value
			return nil
		}
	}
	return h.Add(name, value)
}

// Del removes the first matching header, shifting later entries down
// to keep the slice contiguous.
func (h *HeaderMap) Del(name []byte) {
	for i := 0; i < h.count; i++ {
		if equalFold(h.pairs[i].name, name) {
			copy(h.pairs[i:h.count-1], h.pairs[i+1:h.count])
			h.count--
			return
		}
	}
}

// Len returns the number of header pairs stored.
func (h *HeaderMap) Len() int { return h.count }

// Reset clears the map for reuse from a pool. Borrowed slices are
// dropped, not the bytes they point to — the owning buffer's lifetime
// is managed separately.
func (h *HeaderMap) Reset() {
	for i := 0; i < h.count; i++ {
		h.pairs[i] = headerPair{}
	}
	h.count = 0
}

// VisitAll calls visitor for each header pair in insertion order,
// stopping early if visitor returns false.
func (h *HeaderMap) VisitAll(visitor func(name, value []byte) bool) {
	for i := 0; i < h.count; i++ {
		if !visitor(h.pairs[i].name, h.pairs[i].value) {
			return
		}
	}
}

// parseHeaderBlock parses "Name: Value\r\n" lines from buf (which
// must not include the terminating empty line) into h, tracking the
// RFC 7230 §3.3.3 smuggling invariants the caller needs: at most one
// Content-Length value, and not both Content-Length and
// Transfer-Encoding. It returns the parsed Content-Length (-1 if
// absent) and whether Transfer-Encoding: chunked was present.
func parseHeaderBlock(h *HeaderMap, buf []byte) (contentLength int64, chunked bool, err error) {
	contentLength = -1
	var haveContentLength, haveTransferEncoding bool
	pos := 0

	for pos < len(buf) {
		lineEnd, width, lerr := indexLineEnd(buf[pos:])
		if lerr != nil {
			return 0, false, lerr
		}
		if lineEnd == -1 {
			return 0, false, ErrInvalidHeader
		}
		line := buf[pos : pos+lineEnd]
		pos += lineEnd + width

		colon := indexByte(line, ':')
		if colon <= 0 {
			return 0, false, ErrInvalidHeader
		}
		name := line[:colon]
		for _, b := range name {
			if !isTokenChar(b) {
				return 0, false, ErrInvalidHeader
			}
		}
		value := trimSpaceBytes(line[colon+1:])

		if err := h.Add(name, value); err != nil {
			return 0, false, err
		}

		switch {
		case equalFold(name, headerContentLength):
			n, perr := parseUint(value)
			if perr != nil {
				return 0, false, ErrInvalidContentLength
			}
			if haveContentLength {
				if n != contentLength {
					return 0, false, ErrSmuggledContentLength
				}
				continue
			}
			haveContentLength = true
			contentLength = n
		case equalFold(name, headerTransferEncoding):
			haveTransferEncoding = true
			if equalFold(value, headerChunked) {
				chunked = true
			}
		}
	}

	if haveContentLength && haveTransferEncoding {
		return 0, false, ErrSmuggledTransferEncoding
	}
	if !haveContentLength {
		contentLength = -1
	}
	return contentLength, chunked, nil
}

// indexLineEnd returns the offset and width of the next line
// terminator in b: a CRLF pair (width 2) or, per §6's bare-LF
// tolerance, a lone "\n" not preceded by "\r" (width 1). It returns
// (-1, 0, nil) if b doesn't yet contain a complete terminator. A '\r'
// not immediately followed by '\n' is rejected outright — the
// tolerance extends to a bare LF only, never to a bare CR.
func indexLineEnd(b []byte) (idx, width int, err error) {
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '\r':
			if i+1 == len(b) {
				return -1, 0, nil
			}
			if b[i+1] != '\n' {
				return 0, 0, ErrBadRequest
			}
			return i, 2, nil
		case '\n':
			return i, 1, nil
		}
	}
	return -1, 0, nil
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func parseUint(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, ErrInvalidContentLength
	}
	var n int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, ErrInvalidContentLength
		}
		n = n*10 + int64(c-'0')
		if n < 0 {
			return 0, ErrInvalidContentLength
		}
	}
	return n, nil
}

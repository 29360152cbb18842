package multipart

import "bytes"

// MaxPartHeaders bounds how many header lines a single part may carry,
// mirroring http1.HeaderMap's capacity-bounded, zero-copy design.
const MaxPartHeaders = 16

type headerPair struct {
	name  []byte
	value []byte
}

// PartHeader is a small, capacity-bounded header store for one
// multipart part, patterned after http1.HeaderMap: ordered,
// case-insensitive lookup, no heap overflow map, every stored slice
// borrowed from the part's own bytes.
type PartHeader struct {
	pairs [MaxPartHeaders]headerPair
	count int
}

// Get returns the first value stored under name (case-insensitive).
func (h *PartHeader) Get(name []byte) []byte {
	for i := 0; i < h.count; i++ {
		if bytes.EqualFold(h.pairs[i].name, name) {
			return h.pairs[i].value
		}
	}
	return nil
}

func (h *PartHeader) add(name, value []byte) error {
	if h.count >= MaxPartHeaders {
		return ErrMalformedPart
	}
	h.pairs[h.count] = headerPair{name: name, value: value}
	h.count++
	return nil
}

// parse reads "Name: Value\r\n"-delimited lines out of buf (which must
// not include the terminating blank line) into h.
func (h *PartHeader) parse(buf []byte) error {
	pos := 0
	for pos < len(buf) {
		lineEnd := bytes.Index(buf[pos:], []byte("\r\n"))
		var line []byte
		if lineEnd == -1 {
			line = buf[pos:]
			pos = len(buf)
		} else {
			line = buf[pos : pos+lineEnd]
			pos += lineEnd + 2
		}
		if len(line) == 0 {
			continue
		}
		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return ErrMalformedPart
		}
		name := line[:colon]
		value := bytes.TrimSpace(line[colon+1:])
		if err := h.add(name, value); err != nil {
			return err
		}
	}
	return nil
}

var (
	headerContentDisposition = []byte("Content-Disposition")
	paramName                = []byte("name=")
	paramFilename            = []byte("filename=")
	// paramFilenameStar is the RFC 2231 extended-parameter form
	// (filename*=charset'lang'value). Recognized but not decoded —
	// percent-decoding and charset conversion are left for a caller
	// that needs non-ASCII filenames badly enough to pull in a
	// dedicated RFC 2231 decoder.
	paramFilenameStar = []byte("filename*=")
)

// contentDisposition extracts the name and filename parameters from
// the part's Content-Disposition header, if present.
func (h *PartHeader) contentDisposition() (name, filename []byte) {
	cd := h.Get(headerContentDisposition)
	if cd == nil {
		return nil, nil
	}
	params := splitParams(cd)
	for _, p := range params {
		switch {
		case hasFoldPrefix(p, paramName):
			name = unquote(p[len(paramName):])
		case hasFoldPrefix(p, paramFilenameStar):
			// Continuation/extended form: left undecoded, reported
			// only so a caller can detect its presence.
			filename = p[len(paramFilenameStar):]
		case hasFoldPrefix(p, paramFilename):
			filename = unquote(p[len(paramFilename):])
		}
	}
	return name, filename
}

// splitParams splits a "; "-delimited Content-Disposition value into
// its trimmed parameter segments, skipping the leading disposition
// type token (e.g. "form-data").
func splitParams(v []byte) [][]byte {
	segs := bytes.Split(v, []byte(";"))
	if len(segs) <= 1 {
		return nil
	}
	out := make([][]byte, 0, len(segs)-1)
	for _, s := range segs[1:] {
		out = append(out, bytes.TrimSpace(s))
	}
	return out
}

func hasFoldPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	return bytes.EqualFold(b[:len(prefix)], prefix)
}

func unquote(b []byte) []byte {
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		return b[1 : len(b)-1]
	}
	return b
}

// Package multipart implements RFC 7578 multipart/form-data parsing
// on top of a request body that has already been fully materialized
// (buffered or spooled) by http1.Connection — there is no streaming
// reader here, since the zero-copy invariant this package follows
// requires the whole body to be addressable as one slice.
package multipart

import (
	"bytes"
	"errors"
)

// MaxBoundaryLength is RFC 2046 §5.1.1's limit on a boundary
// delimiter's length.
const MaxBoundaryLength = 70

var (
	ErrBoundaryTooLong  = errors.New("multipart: boundary too long")
	ErrEmptyBoundary    = errors.New("multipart: empty boundary")
	ErrMissingFinalTerm = errors.New("multipart: missing final boundary")
	ErrMalformedPart    = errors.New("multipart: malformed part")
)

// Part is one body part of a multipart/form-data message. Header and
// Data both borrow their bytes from the body slice Parse was given —
// neither is copied, so Part is only valid for as long as that slice
// is (the request's buffered or spooled body, in practice).
type Part struct {
	Header   PartHeader
	Name     []byte
	FileName []byte
	Data     []byte
}

// Form is the result of parsing one multipart/form-data body.
type Form struct {
	Parts []Part
}

// ValueParts returns the parts with no filename (i.e. ordinary form
// fields rather than file uploads).
func (f *Form) ValueParts() []Part {
	var out []Part
	for _, p := range f.Parts {
		if p.FileName == nil {
			out = append(out, p)
		}
	}
	return out
}

// FileParts returns the parts that carry a filename.
func (f *Form) FileParts() []Part {
	var out []Part
	for _, p := range f.Parts {
		if p.FileName != nil {
			out = append(out, p)
		}
	}
	return out
}

// Get returns the value of the first value-part (not a file) named
// name, or nil.
func (f *Form) Get(name string) []byte {
	for _, p := range f.Parts {
		if p.FileName == nil && string(p.Name) == name {
			return p.Data
		}
	}
	return nil
}

// BoundaryFromContentType extracts the boundary parameter from a
// multipart/form-data Content-Type header value, e.g.
// `multipart/form-data; boundary=----WebKitFormBoundary7MA4YWx`. It
// does not validate the media type itself — callers that care should
// check the type token before calling this.
func BoundaryFromContentType(contentType []byte) (string, error) {
	idx := bytes.Index(contentType, []byte("boundary="))
	if idx == -1 {
		return "", ErrEmptyBoundary
	}
	v := contentType[idx+len("boundary="):]
	if semi := bytes.IndexByte(v, ';'); semi != -1 {
		v = v[:semi]
	}
	v = bytes.TrimSpace(v)
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	if len(v) == 0 {
		return "", ErrEmptyBoundary
	}
	return string(v), nil
}

// Parse splits body into its constituent parts using boundary (the
// value of the Content-Type header's boundary= parameter, without the
// leading "--").
func Parse(boundary string, body []byte) (*Form, error) {
	if len(boundary) == 0 {
		return nil, ErrEmptyBoundary
	}
	if len(boundary) > MaxBoundaryLength {
		return nil, ErrBoundaryTooLong
	}

	delim := append([]byte("--"), boundary...)

	// The body should open with the delimiter immediately (no leading
	// CRLF before the very first part).
	if !bytes.HasPrefix(body, delim) {
		return nil, ErrMalformedPart
	}
	pos := len(delim)

	form := &Form{}
	for {
		if bytes.HasPrefix(body[pos:], []byte("--")) {
			// Reached "--boundary--": no more parts.
			return form, nil
		}
		if !bytes.HasPrefix(body[pos:], []byte("\r\n")) {
			return nil, ErrMalformedPart
		}
		pos += 2

		next := bytes.Index(body[pos:], append([]byte("\r\n"), delim...))
		if next == -1 {
			return nil, ErrMissingFinalTerm
		}
		partBytes := body[pos : pos+next]

		part, err := parsePart(partBytes)
		if err != nil {
			return nil, err
		}
		form.Parts = append(form.Parts, part)

		pos += next + 2 + len(delim)
	}
}

// parsePart splits one part's raw bytes into its header block and
// body on the first blank line, then extracts the Content-Disposition
// name/filename.
func parsePart(raw []byte) (Part, error) {
	headerEnd := bytes.Index(raw, []byte("\r\n\r\n"))
	if headerEnd == -1 {
		return Part{}, ErrMalformedPart
	}
	headerBlock := raw[:headerEnd]
	data := raw[headerEnd+4:]

	var header PartHeader
	if err := header.parse(headerBlock); err != nil {
		return Part{}, err
	}

	name, filename := header.contentDisposition()
	return Part{Header: header, Name: name, FileName: filename, Data: data}, nil
}

package http1

import "testing"

func TestHeaderMapAddAndGet(t *testing.T) {
	var h HeaderMap
	if err := h.Add([]byte("Content-Type"), []byte("text/plain")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := string(h.Get([]byte("content-type"))); got != "text/plain" {
		t.Fatalf("Get = %q, want %q", got, "text/plain")
	}
}

func TestHeaderMapGetIsFirstMatch(t *testing.T) {
	var h HeaderMap
	h.Add([]byte("X-Forwarded-For"), []byte("1.1.1.1"))
	h.Add([]byte("X-Forwarded-For"), []byte("2.2.2.2"))
	if got := string(h.Get([]byte("X-Forwarded-For"))); got != "1.1.1.1" {
		t.Fatalf("Get = %q, want first value", got)
	}
}

func TestHeaderMapSetReplacesExisting(t *testing.T) {
	var h HeaderMap
	h.Add([]byte("X-Foo"), []byte("1"))
	h.Set([]byte("x-foo"), []byte("2"))
	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}
	if got := string(h.Get([]byte("X-Foo"))); got != "2" {
		t.Fatalf("Get = %q, want %q", got, "2")
	}
}

func TestHeaderMapSetAppendsWhenAbsent(t *testing.T) {
	var h HeaderMap
	h.Set([]byte("X-New"), []byte("v"))
	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}
}

func TestHeaderMapDelRemovesAndShifts(t *testing.T) {
	var h HeaderMap
	h.Add([]byte("A"), []byte("1"))
	h.Add([]byte("B"), []byte("2"))
	h.Add([]byte("C"), []byte("3"))
	h.Del([]byte("b"))
	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}
	if !h.Has([]byte("A")) || !h.Has([]byte("C")) || h.Has([]byte("B")) {
		t.Fatalf("unexpected contents after Del")
	}
}

func TestHeaderMapRejectsTooManyHeaders(t *testing.T) {
	var h HeaderMap
	for i := 0; i < MaxHeaders; i++ {
		if err := h.Add([]byte("X"), []byte("v")); err != nil {
			t.Fatalf("Add #%d: %v", i, err)
		}
	}
	if err := h.Add([]byte("X"), []byte("v")); err != ErrTooManyHeaders {
		t.Fatalf("err = %v, want ErrTooManyHeaders", err)
	}
}

func TestHeaderMapRejectsCRLFInjection(t *testing.T) {
	var h HeaderMap
	if err := h.Add([]byte("X-Foo"), []byte("bar\r\nEvil: 1")); err != ErrInvalidHeader {
		t.Fatalf("err = %v, want ErrInvalidHeader", err)
	}
}

func TestHeaderMapResetClearsState(t *testing.T) {
	var h HeaderMap
	h.Add([]byte("A"), []byte("1"))
	h.Reset()
	if h.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after Reset", h.Len())
	}
}

func TestHeaderMapVisitAllStopsEarly(t *testing.T) {
	var h HeaderMap
	h.Add([]byte("A"), []byte("1"))
	h.Add([]byte("B"), []byte("2"))
	h.Add([]byte("C"), []byte("3"))

	var seen []string
	h.VisitAll(func(name, value []byte) bool {
		seen = append(seen, string(name))
		return len(seen) < 2
	})
	if len(seen) != 2 {
		t.Fatalf("VisitAll visited %d pairs, want 2", len(seen))
	}
}

func TestParseHeaderBlockParsesContentLength(t *testing.T) {
	var h HeaderMap
	buf := []byte("Host: example.com\r\nContent-Length: 42\r\n")
	cl, chunked, err := parseHeaderBlock(&h, buf)
	if err != nil {
		t.Fatalf("parseHeaderBlock: %v", err)
	}
	if cl != 42 || chunked {
		t.Fatalf("cl=%d chunked=%v, want 42/false", cl, chunked)
	}
}

func TestParseHeaderBlockDetectsChunked(t *testing.T) {
	var h HeaderMap
	buf := []byte("Transfer-Encoding: chunked\r\n")
	cl, chunked, err := parseHeaderBlock(&h, buf)
	if err != nil {
		t.Fatalf("parseHeaderBlock: %v", err)
	}
	if cl != -1 || !chunked {
		t.Fatalf("cl=%d chunked=%v, want -1/true", cl, chunked)
	}
}

func TestParseHeaderBlockRejectsSmuggledContentLength(t *testing.T) {
	var h HeaderMap
	buf := []byte("Content-Length: 4\r\nContent-Length: 5\r\n")
	if _, _, err := parseHeaderBlock(&h, buf); err != ErrSmuggledContentLength {
		t.Fatalf("err = %v, want ErrSmuggledContentLength", err)
	}
}

func TestParseHeaderBlockAllowsDuplicateIdenticalContentLength(t *testing.T) {
	var h HeaderMap
	buf := []byte("Content-Length: 4\r\nContent-Length: 4\r\n")
	cl, _, err := parseHeaderBlock(&h, buf)
	if err != nil {
		t.Fatalf("parseHeaderBlock: %v", err)
	}
	if cl != 4 {
		t.Fatalf("cl = %d, want 4", cl)
	}
}

func TestParseHeaderBlockRejectsContentLengthAndTransferEncoding(t *testing.T) {
	var h HeaderMap
	buf := []byte("Content-Length: 4\r\nTransfer-Encoding: chunked\r\n")
	if _, _, err := parseHeaderBlock(&h, buf); err != ErrSmuggledTransferEncoding {
		t.Fatalf("err = %v, want ErrSmuggledTransferEncoding", err)
	}
}

func TestParseHeaderBlockRejectsMalformedLine(t *testing.T) {
	var h HeaderMap
	buf := []byte("NoColonHere\r\n")
	if _, _, err := parseHeaderBlock(&h, buf); err != ErrInvalidHeader {
		t.Fatalf("err = %v, want ErrInvalidHeader", err)
	}
}

func TestParseHeaderBlockToleratesBareLF(t *testing.T) {
	var h HeaderMap
	buf := []byte("Host: example.com\nContent-Length: 42\n")
	cl, chunked, err := parseHeaderBlock(&h, buf)
	if err != nil {
		t.Fatalf("parseHeaderBlock: %v", err)
	}
	if cl != 42 || chunked {
		t.Fatalf("cl=%d chunked=%v, want 42/false", cl, chunked)
	}
	if got := string(h.Get([]byte("Host"))); got != "example.com" {
		t.Fatalf("Host = %q, want %q", got, "example.com")
	}
}

func TestParseHeaderBlockRejectsBareCR(t *testing.T) {
	var h HeaderMap
	buf := []byte("Host: example.com\rContent-Length: 42\r\n")
	if _, _, err := parseHeaderBlock(&h, buf); err != ErrBadRequest {
		t.Fatalf("err = %v, want ErrBadRequest for a bare CR not followed by LF", err)
	}
}

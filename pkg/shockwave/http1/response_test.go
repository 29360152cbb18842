package http1

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yourusername/shockwave/pkg/shockwave/bytestream"
)

func newResponseFixture() (*ResponseWriter, *bytestream.Stream, *bytes.Buffer) {
	conn := &loopConn{r: &bytes.Buffer{}, w: &bytes.Buffer{}}
	stream := bytestream.New(conn, make([]byte, 4096), 256)
	return NewResponseWriter(stream), stream, conn.w
}

func TestResponseWriteFixedContentLength(t *testing.T) {
	rw, _, out := newResponseFixture()
	rw.Header().Set(headerContentLength, []byte("5"))
	rw.Header().Set(headerContentType, []byte("text/plain"))
	rw.WriteHeader(200)

	if _, err := rw.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := rw.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got := out.String()
	if !strings.HasPrefix(got, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("status line missing, got %q", got)
	}
	if !strings.Contains(got, "Content-Length: 5\r\n") {
		t.Fatalf("Content-Length missing, got %q", got)
	}
	if !strings.HasSuffix(got, "\r\n\r\nhello") {
		t.Fatalf("body missing, got %q", got)
	}
	if rw.BytesWritten() != 5 {
		t.Errorf("BytesWritten = %d, want 5", rw.BytesWritten())
	}
}

func TestResponseSwitchesToChunkedWithoutContentLength(t *testing.T) {
	rw, _, out := newResponseFixture()
	rw.WriteHeader(200)

	if _, err := rw.Write([]byte("abc")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := rw.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Transfer-Encoding: chunked\r\n") {
		t.Fatalf("Transfer-Encoding missing, got %q", got)
	}
	if !strings.Contains(got, "3\r\nabc\r\n") {
		t.Fatalf("chunk framing missing, got %q", got)
	}
	if !strings.HasSuffix(got, "0\r\n\r\n") {
		t.Fatalf("terminating chunk missing, got %q", got)
	}
}

func TestResponseEmptyBodyGetsZeroContentLength(t *testing.T) {
	rw, _, out := newResponseFixture()
	rw.WriteHeader(200)
	if err := rw.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !strings.Contains(out.String(), "Content-Length: 0\r\n") {
		t.Fatalf("Content-Length: 0 missing, got %q", out.String())
	}
}

func TestResponse204OmitsContentLength(t *testing.T) {
	rw, _, out := newResponseFixture()
	rw.WriteHeader(204)
	if err := rw.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if strings.Contains(out.String(), "Content-Length") {
		t.Fatalf("204 response should not carry Content-Length, got %q", out.String())
	}
}

func TestResponseSecondWriteHeaderIgnored(t *testing.T) {
	rw, _, _ := newResponseFixture()
	rw.WriteHeader(200)
	rw.WriteHeader(500)
	if rw.Status() != 200 {
		t.Errorf("Status = %d, want 200 (first WriteHeader wins)", rw.Status())
	}
}

func TestResponseCloseAfterEmitsConnectionClose(t *testing.T) {
	rw, _, out := newResponseFixture()
	rw.SetCloseAfter(true)
	rw.WriteHeader(200)
	if err := rw.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !strings.Contains(out.String(), "Connection: close\r\n") {
		t.Fatalf("Connection: close missing, got %q", out.String())
	}
}

func TestResponseDateAndServerDefaulted(t *testing.T) {
	rw, _, out := newResponseFixture()
	rw.WriteHeader(200)
	if err := rw.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Date: ") {
		t.Fatalf("Date header missing, got %q", got)
	}
	if !strings.Contains(got, "Server: shockwave\r\n") {
		t.Fatalf("Server header missing, got %q", got)
	}
}

func TestResponseReset(t *testing.T) {
	rw, _, _ := newResponseFixture()
	rw.WriteHeader(500)
	rw.Header().Set(headerContentType, []byte("text/plain"))

	conn := &loopConn{r: &bytes.Buffer{}, w: &bytes.Buffer{}}
	stream := bytestream.New(conn, make([]byte, 4096), 256)
	rw.Reset(stream)

	if rw.Status() != 200 {
		t.Errorf("Status after Reset = %d, want 200", rw.Status())
	}
	if rw.Header().Len() != 0 {
		t.Errorf("Header().Len() after Reset = %d, want 0", rw.Header().Len())
	}
	if rw.HeadersSent() {
		t.Errorf("HeadersSent after Reset = true, want false")
	}
}

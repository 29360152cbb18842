package http1

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"
)

type testRouter struct {
	handler Handler
}

func (r *testRouter) Lookup(method Method, path []byte, captures *Captures) Handler {
	return r.handler
}

func (r *testRouter) LookupUpgrade(path []byte) (WebSocketHandler, bool) {
	return nil, false
}

func TestConnectionServesOneRequestThenCloses(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	router := &testRouter{handler: func(req *Request, resp *ResponseWriter) error {
		resp.Header().Set(headerContentType, []byte("text/plain"))
		resp.WriteHeader(200)
		_, err := resp.Write([]byte("ok"))
		return err
	}}

	pool := NewObjectPool(PoolStrategyStandard)
	cfg := DefaultConnectionConfig()
	cfg.MaxRequestsPerConnection = 1
	conn := NewConnection(serverConn, pool, router, cfg)

	done := make(chan error, 1)
	go func() { done <- conn.Serve() }()

	clientConn.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := clientConn.Write([]byte("GET /hello HTTP/1.1\r\nHost: example.com\r\n\r\n")); err != nil {
		t.Fatalf("client write: %v", err)
	}

	reader := bufio.NewReader(clientConn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if !strings.HasPrefix(statusLine, "HTTP/1.1 200") {
		t.Fatalf("status line = %q, want 200 prefix", statusLine)
	}

	var bodyFound bool
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		if strings.TrimSpace(line) == "ok" {
			bodyFound = true
		}
	}
	if !bodyFound {
		t.Errorf("response body %q not found", "ok")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after MaxRequestsPerConnection reached")
	}
}

func TestConnectionSendsNotFoundForUnmatchedRoute(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	router := &testRouter{handler: nil}
	pool := NewObjectPool(PoolStrategyStandard)
	cfg := DefaultConnectionConfig()
	cfg.MaxRequestsPerConnection = 1
	conn := NewConnection(serverConn, pool, router, cfg)

	go conn.Serve()

	clientConn.SetDeadline(time.Now().Add(5 * time.Second))
	clientConn.Write([]byte("GET /missing HTTP/1.1\r\n\r\n"))

	reader := bufio.NewReader(clientConn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if !strings.HasPrefix(statusLine, "HTTP/1.1 404") {
		t.Fatalf("status line = %q, want 404 prefix", statusLine)
	}
}

func TestConnectionClosesOnConnectionCloseHeader(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	router := &testRouter{handler: func(req *Request, resp *ResponseWriter) error {
		resp.WriteHeader(200)
		return nil
	}}
	pool := NewObjectPool(PoolStrategyStandard)
	cfg := DefaultConnectionConfig()
	conn := NewConnection(serverConn, pool, router, cfg)

	done := make(chan error, 1)
	go func() { done <- conn.Serve() }()

	clientConn.SetDeadline(time.Now().Add(5 * time.Second))
	clientConn.Write([]byte("GET / HTTP/1.1\r\nConnection: close\r\n\r\n"))

	reader := bufio.NewReader(clientConn)
	if _, err := reader.ReadString('\n'); err != nil {
		t.Fatalf("read status line: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not close connection after Connection: close")
	}
}

package http1

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/yourusername/shockwave/pkg/shockwave/bytestream"
)

// ConnectionState is one state of the connection's keep-alive state
// machine. Unlike this package's ancestor — which collapsed
// "reading", "routing", and "writing" into a single Active state —
// ConnectionState tracks each phase separately, so a stuck connection
// can be diagnosed by the state it's stuck in rather than just "active
// too long".
type ConnectionState int32

const (
	StateIdle ConnectionState = iota
	StateReadingHead
	StateDispatching
	StateWritingBody
	StateClosing
)

func (s ConnectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReadingHead:
		return "reading_head"
	case StateDispatching:
		return "dispatching"
	case StateWritingBody:
		return "writing_body"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// ConnectionConfig bounds one connection's resource usage and timeouts.
type ConnectionConfig struct {
	// MaxRequestsPerConnection closes the connection (after finishing
	// the current response) once this many requests have been served.
	// Zero means unlimited.
	MaxRequestsPerConnection int

	// IdleTimeout bounds how long the connection may sit between
	// requests waiting for the next one.
	IdleTimeout time.Duration

	// HeadTimeout bounds how long reading one request's head may take
	// once the first byte of it has arrived.
	HeadTimeout time.Duration

	// MaxBufferedBody is the largest request body kept entirely in
	// memory; anything larger (including any chunked body, whose final
	// size is unknown up front) is spooled to SpoolDir instead.
	MaxBufferedBody int64

	// SpoolDir is where oversized request bodies are written.
	SpoolDir string
}

// DefaultConnectionConfig returns reasonable defaults: 1000 requests
// per connection, a 60s idle timeout, a 10s head-read timeout, and a
// 1MiB in-memory body ceiling.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxRequestsPerConnection: 1000,
		IdleTimeout:              60 * time.Second,
		HeadTimeout:              10 * time.Second,
		MaxBufferedBody:          1 << 20,
		SpoolDir:                 os.TempDir(),
	}
}

var spoolSeq atomic.Uint64

// Connection drives one accepted TCP connection through its full
// keep-alive lifetime: ReadingHead -> Dispatching -> WritingBody, then
// back to Idle or through Closing, per request, until the peer or a
// configured limit ends it.
type Connection struct {
	conn   net.Conn
	stream *bytestream.Stream
	parser *Parser
	pool   *ObjectPool
	router Router
	cfg    ConnectionConfig

	state        atomic.Int32
	requestCount int

	// upgraded is set once tryUpgrade hands c.conn off to a
	// WebSocketHandler goroutine. It tells cleanup and Close that the
	// HTTP driver no longer owns the connection and must not close it
	// out from under that goroutine.
	upgraded bool
}

// NewConnection wraps conn for serving. pool supplies the Request,
// ResponseWriter, and buffer memory; router dispatches parsed
// requests.
func NewConnection(conn net.Conn, pool *ObjectPool, router Router, cfg ConnectionConfig) *Connection {
	buf := pool.GetRequestBuffer()
	return &Connection{
		conn:   conn,
		stream: bytestream.New(conn, buf, DefaultBufferSize),
		parser: NewParser(),
		pool:   pool,
		router: router,
		cfg:    cfg,
	}
}

// State returns the connection's current state.
func (c *Connection) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

func (c *Connection) setState(s ConnectionState) {
	c.state.Store(int32(s))
}

// Serve runs the connection's request loop until the peer closes, a
// fatal I/O error occurs, or a configured limit ends it. It never
// returns an error for an orderly close — callers that want to log
// abnormal terminations should check the returned error's type.
func (c *Connection) Serve() error {
	defer c.cleanup()

	for {
		c.setState(StateIdle)
		if c.cfg.MaxRequestsPerConnection > 0 && c.requestCount >= c.cfg.MaxRequestsPerConnection {
			return nil
		}
		c.setDeadline(c.cfg.IdleTimeout)

		triple := c.pool.Get()
		triple.Stream = c.stream
		triple.Response.Reset(c.stream)
		req := triple.Request
		resp := triple.Response

		c.setState(StateReadingHead)
		c.stream.SwapInputBuffer(c.pool.GetRequestBuffer())
		c.setDeadline(c.cfg.HeadTimeout)

		parseErr := c.readHead(req)
		if parseErr != nil {
			c.pool.Put(triple)
			if parseErr == io.EOF {
				return nil
			}
			return c.sendParseErrorAndClose(resp, parseErr)
		}

		c.requestCount++
		willClose := req.ShouldClose() ||
			(c.cfg.MaxRequestsPerConnection > 0 && c.requestCount >= c.cfg.MaxRequestsPerConnection)
		resp.SetCloseAfter(willClose)

		if c.tryUpgrade(req, resp) {
			c.pool.Put(triple)
			return nil
		}

		if err := materializeBody(c.stream, req, c.cfg.MaxBufferedBody, c.cfg.SpoolDir); err != nil {
			c.pool.Put(triple)
			return c.sendParseErrorAndClose(resp, err)
		}

		c.setState(StateDispatching)
		handlerErr := c.dispatch(req, resp)

		c.setState(StateWritingBody)
		flushErr := resp.Finish()

		c.pool.Put(triple)

		if handlerErr != nil || flushErr != nil {
			c.setState(StateClosing)
			return firstNonNil(handlerErr, flushErr)
		}
		if willClose {
			c.setState(StateClosing)
			return nil
		}
	}
}

// readHead drives the parser's resumable ReadingHead loop: each
// ErrEndOfBuffer means the parser pulled more bytes and wants another
// attempt at the same buffered window.
func (c *Connection) readHead(req *Request) error {
	for {
		err := c.parser.Parse(c.stream, req)
		if err == ErrEndOfBuffer {
			continue
		}
		return err
	}
}

// dispatch looks up and invokes the handler for req, writing a 404 if
// no route matched.
func (c *Connection) dispatch(req *Request, resp *ResponseWriter) error {
	var captures Captures
	handler := c.router.Lookup(req.Method, req.PathBytes(), &captures)
	if handler == nil {
		resp.WriteHeader(404)
		_, err := resp.Write([]byte("not found"))
		return err
	}
	return handler(req, resp)
}

// tryUpgrade answers a WebSocket handshake and hands the raw
// connection to the matched WebSocketHandler, returning true if an
// upgrade occurred (in which case Serve's HTTP loop must stop — the
// connection belongs to the WebSocket handler now).
func (c *Connection) tryUpgrade(req *Request, resp *ResponseWriter) bool {
	if !equalFold(req.Header.Get(headerUpgrade), []byte("websocket")) {
		return false
	}
	wsHandler, ok := c.router.LookupUpgrade(req.PathBytes())
	if !ok {
		return false
	}
	key := req.Header.Get([]byte("Sec-WebSocket-Key"))
	if key == nil {
		resp.WriteHeader(400)
		resp.Finish()
		return false
	}

	resp.WriteHeader(101)
	resp.Header().Set(headerUpgrade, []byte("websocket"))
	resp.Header().Set(headerConnection, []byte("Upgrade"))
	resp.Header().Set([]byte("Sec-WebSocket-Accept"), computeWebSocketAccept(key))
	if err := resp.Finish(); err != nil {
		return false
	}

	c.upgraded = true
	go func() {
		defer c.conn.Close()
		wsHandler(req, c.conn)
	}()
	return true
}

// websocketGUID is the fixed GUID RFC 6455 §1.3 concatenates onto the
// Sec-WebSocket-Key before hashing.
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

func computeWebSocketAccept(key []byte) []byte {
	h := sha1.New()
	h.Write(key)
	h.Write([]byte(websocketGUID))
	sum := h.Sum(nil)
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(encoded, sum)
	return encoded
}

// sendParseErrorAndClose maps a protocol-level parse error to a status
// code, writes it best-effort, and signals the connection should close.
func (c *Connection) sendParseErrorAndClose(resp *ResponseWriter, err error) error {
	resp.SetCloseAfter(true)
	resp.WriteHeader(statusForParseError(err))
	resp.Write([]byte(err.Error()))
	resp.Finish()
	return err
}

func statusForParseError(err error) int {
	switch err {
	case ErrRequestURITooLong:
		return 414
	case ErrRequestHeaderFieldsHuge, ErrTooManyHeaders:
		return 431
	case ErrRequestEntityTooLarge:
		return 413
	case ErrUnsupportedHTTPVersion:
		return 505
	case ErrInvalidContentLength:
		return 411
	default:
		return 400
	}
}

// materializeBody reads req's declared body fully into memory (when it
// fits within maxBuffered) or spools it to a temp file under spoolDir
// otherwise — chunked bodies, whose final size isn't known ahead of
// time, always spool. This keeps Request.BodyLocation's invariant that
// a dispatched request's body is always one of exactly those two
// states, never "still streaming".
func materializeBody(s *bytestream.Stream, req *Request, maxBuffered int64, spoolDir string) error {
	if !req.HasBody() {
		req.bodyLocation = BodyNone
		return nil
	}
	body := SetupBody(s, req)

	if !req.Chunked && req.ContentLength <= maxBuffered {
		buf := make([]byte, req.ContentLength)
		if _, err := io.ReadFull(body, buf); err != nil {
			return err
		}
		req.bodyBuffered = buf
		req.bodyLocation = BodyBuffered
		return nil
	}

	spool, err := bytestream.NewSpool(spoolDir)
	if err != nil {
		return err
	}
	if _, err := io.Copy(spool, body); err != nil {
		spool.Dispose()
		return err
	}

	finalPath := filepath.Join(spoolDir, fmt.Sprintf("shockwave-body-%d-%d", os.Getpid(), spoolSeq.Add(1)))
	file, sum, err := spool.Finalize(finalPath)
	if err != nil {
		return err
	}
	req.bodyFile = file
	req.bodySum = sum
	req.bodyLocation = BodySpooled
	return nil
}

func (c *Connection) setDeadline(d time.Duration) {
	if d <= 0 {
		return
	}
	c.conn.SetDeadline(time.Now().Add(d))
}

// Close closes the underlying connection. It is a no-op once the
// connection has been handed off to a WebSocket handler — that
// goroutine owns the close from then on.
func (c *Connection) Close() error {
	if c.upgraded {
		return nil
	}
	c.setState(StateClosing)
	return c.conn.Close()
}

func (c *Connection) cleanup() {
	c.pool.PutRequestBuffer(c.stream.SwapInputBuffer(nil))
	if c.upgraded {
		return
	}
	c.conn.Close()
}

func firstNonNil(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

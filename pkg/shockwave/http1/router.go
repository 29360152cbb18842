package http1

import "io"

// MaxCaptures bounds the number of path parameters a single route may
// capture, mirroring Captures' fixed-size backing array.
const MaxCaptures = 8

// Capture is one named path parameter extracted by a Router, e.g.
// {id} in "/users/{id}" captures Name: "id".
type Capture struct {
	Name  []byte
	Value []byte
}

// Captures holds the path parameters a Router.Lookup produced for one
// request, stack-allocated rather than a map so routing a request
// never allocates on the capture path.
type Captures struct {
	pairs [MaxCaptures]Capture
	count int
}

// Add appends a capture, silently dropping any beyond MaxCaptures — a
// route pattern with that many segments is already pathological.
func (c *Captures) Add(name, value []byte) {
	if c.count >= MaxCaptures {
		return
	}
	c.pairs[c.count] = Capture{Name: name, Value: value}
	c.count++
}

// Get returns the value captured under name, or nil.
func (c *Captures) Get(name []byte) []byte {
	for i := 0; i < c.count; i++ {
		if equalFold(c.pairs[i].Name, name) {
			return c.pairs[i].Value
		}
	}
	return nil
}

// Reset clears the captures for reuse.
func (c *Captures) Reset() { c.count = 0 }

// Handler serves one request. Returning an error signals the
// connection driver that the handler failed after it may or may not
// have already written a status — Handler implementations that have
// started writing a response are expected to have sent something
// useful to the client before returning non-nil.
type Handler func(req *Request, resp *ResponseWriter) error

// Middleware wraps a Handler to produce another Handler — logging,
// recovery, auth, and the like all take this shape. Composing a chain
// of Middleware into a single Handler is the caller's job; this
// package only defines the shape.
type Middleware func(next Handler) Handler

// Router is the thin collaborator the connection driver dispatches
// through. Implementing route matching (static segments, wildcards,
// regex) is explicitly out of scope for this package — Router exists
// so the driver has a stable seam to call into whatever matching
// engine the embedding application supplies.
type Router interface {
	// Lookup returns the Handler registered for method and path,
	// along with any path parameters the match captured. A nil
	// Handler means no route matched.
	Lookup(method Method, path []byte, captures *Captures) Handler

	// LookupUpgrade reports whether path has a WebSocket handler
	// registered, returning it if so. Kept separate from Lookup so a
	// Router can treat WebSocket routes as a distinct table without
	// forcing every HTTP lookup through upgrade-aware logic.
	LookupUpgrade(path []byte) (WebSocketHandler, bool)
}

// WebSocketHandler serves one upgraded connection after the 101
// handshake has already been sent. It receives the raw, now
// HTTP-free, transport — the websocket package's frame codec wraps it
// on the caller's side, so this package never needs to import that
// one.
type WebSocketHandler func(req *Request, conn io.ReadWriteCloser) error

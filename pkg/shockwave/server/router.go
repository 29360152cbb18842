package server

import "github.com/yourusername/shockwave/pkg/shockwave/http1"

// StaticRouter is a minimal exact-path http1.Router implementation,
// provided as the default collaborator for callers that don't need
// (or haven't yet wired in) a real regex/segment routing engine — the
// router/regex engine itself is explicitly out of this module's scope.
type StaticRouter struct {
	routes   map[routeKey]http1.Handler
	upgrades map[string]http1.WebSocketHandler
}

type routeKey struct {
	method http1.Method
	path   string
}

// NewStaticRouter returns an empty StaticRouter.
func NewStaticRouter() *StaticRouter {
	return &StaticRouter{
		routes:   make(map[routeKey]http1.Handler),
		upgrades: make(map[string]http1.WebSocketHandler),
	}
}

// Handle registers handler for exactly method and path.
func (r *StaticRouter) Handle(method http1.Method, path string, handler http1.Handler) {
	r.routes[routeKey{method, path}] = handler
}

// HandleUpgrade registers a WebSocket handler for exactly path.
func (r *StaticRouter) HandleUpgrade(path string, handler http1.WebSocketHandler) {
	r.upgrades[path] = handler
}

// Lookup implements http1.Router. StaticRouter never produces path
// captures, so captures is left untouched.
func (r *StaticRouter) Lookup(method http1.Method, path []byte, captures *http1.Captures) http1.Handler {
	return r.routes[routeKey{method, string(path)}]
}

// LookupUpgrade implements http1.Router.
func (r *StaticRouter) LookupUpgrade(path []byte) (http1.WebSocketHandler, bool) {
	h, ok := r.upgrades[string(path)]
	return h, ok
}

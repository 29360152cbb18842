// Package server wires a net.Listener accept loop, http1's
// ConnectionDriver and ObjectPool, and an injected Router together
// into a runnable HTTP/1.x server. Route matching, middleware
// chaining, and TLS termination are the embedding application's
// responsibility — this package only owns the accept loop and the
// per-connection lifecycle.
package server

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/shockwave/pkg/shockwave/http1"
)

// Stats tracks cumulative server activity. All fields are safe for
// concurrent use; a handler or admin endpoint can read them directly.
type Stats struct {
	TotalConnections  atomic.Uint64
	ActiveConnections atomic.Int64
	TotalRequests     atomic.Uint64
	ConnectionErrors  atomic.Uint64
	RequestErrors     atomic.Uint64
	StartTime         time.Time
}

// Duration returns the time since the server started.
func (s *Stats) Duration() time.Duration { return time.Since(s.StartTime) }

// Server accepts connections and drives each one through http1's
// ConnectionDriver until shutdown.
type Server struct {
	cfg    Config
	router http1.Router
	log    *zap.Logger
	pool   *http1.ObjectPool

	stats Stats

	mu       sync.Mutex
	listener net.Listener
	shutdown atomic.Bool
	done     chan struct{}
	wg       sync.WaitGroup

	connSem chan struct{}
}

// New builds a Server that dispatches through router. log may be nil,
// in which case a no-op logger is used — logging is an injectable
// collaborator, not a hard dependency of the core pipeline.
func New(cfg Config, router http1.Router, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		router: router,
		log:    log,
		pool:   http1.NewObjectPool(cfg.PoolStrategy),
		done:   make(chan struct{}),
	}
	s.stats.StartTime = time.Now()
	if cfg.MaxConcurrentConnections > 0 {
		s.connSem = make(chan struct{}, cfg.MaxConcurrentConnections)
	}
	return s
}

// ListenAndServe listens on cfg.Addr and serves until Shutdown/Close.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections from l until shutdown, handing each one to
// http1.Connection in its own goroutine.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	defer l.Close()

	s.log.Info("server listening", zap.String("addr", l.Addr().String()))

	for {
		if s.shutdown.Load() {
			return nil
		}

		if s.connSem != nil {
			select {
			case s.connSem <- struct{}{}:
			case <-s.done:
				return nil
			}
		}

		conn, err := l.Accept()
		if err != nil {
			if s.connSem != nil {
				<-s.connSem
			}
			if s.shutdown.Load() {
				return nil
			}
			s.stats.ConnectionErrors.Add(1)
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}

		s.stats.TotalConnections.Add(1)
		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *Server) handle(netConn net.Conn) {
	defer s.wg.Done()
	if s.connSem != nil {
		defer func() { <-s.connSem }()
	}

	s.stats.ActiveConnections.Add(1)
	defer s.stats.ActiveConnections.Add(-1)

	conn := http1.NewConnection(netConn, s.pool, s.router, s.cfg.connectionConfig())
	defer conn.Close()

	if err := conn.Serve(); err != nil {
		s.stats.RequestErrors.Add(1)
		s.log.Debug("connection ended", zap.Error(err), zap.String("remote", netConn.RemoteAddr().String()))
	}
}

// Shutdown stops accepting new connections and waits for in-flight
// ones to finish, or until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()
	close(s.done)

	doneWaiting := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(doneWaiting)
	}()

	select {
	case <-doneWaiting:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the server's running statistics.
func (s *Server) Stats() *Stats { return &s.stats }

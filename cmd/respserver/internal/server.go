package internal

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ananthvk/respkv/internal/command"
	"github.com/ananthvk/respkv/internal/config"
	"github.com/ananthvk/respkv/internal/metrics"
	"github.com/ananthvk/respkv/internal/resp"
	"golang.org/x/sync/semaphore"
)

var ErrServerClosed = errors.New("server closed")

var errMaxClients = []byte("ERR max number of clients reached")

// Server accepts RESP connections and runs every request against one shared State
type Server struct {
	cfg     config.ServerSection
	state   command.State
	metrics *metrics.Metrics
	logger  *slog.Logger

	// nil when the number of clients is unlimited
	clients *semaphore.Weighted

	mu           sync.Mutex
	listeners    map[net.Listener]struct{}
	conns        map[*conn]struct{}
	shuttingDown atomic.Bool
	wg           sync.WaitGroup
}

// New creates a server. m and logger may be nil.
func New(cfg config.ServerSection, state command.State, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = config.DefaultReadBufferSize
	}
	if cfg.MaxBufferSize < cfg.ReadBufferSize {
		cfg.MaxBufferSize = cfg.ReadBufferSize
	}
	s := &Server{
		cfg:       cfg,
		state:     state,
		metrics:   m,
		logger:    logger,
		listeners: make(map[net.Listener]struct{}),
		conns:     make(map[*conn]struct{}),
	}
	if cfg.MaxConnections > 0 {
		s.clients = semaphore.NewWeighted(int64(cfg.MaxConnections))
	}
	return s
}

// ListenAndServe listens on the configured address and calls Serve
func (s *Server) ListenAndServe(ctx context.Context) error {
	listenerConfig := net.ListenConfig{}
	ln, err := listenerConfig.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("server listening", "address", ln.Addr().String())
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or Shutdown is called, then returns
// nil. Connections already accepted keep running until they end or Shutdown closes them.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.trackListener(ln, true) {
		ln.Close()
		return ErrServerClosed
	}
	defer s.trackListener(ln, false)
	defer ln.Close()

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var backoff time.Duration
	for {
		c, err := ln.Accept()
		if err != nil {
			if s.shuttingDown.Load() || ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			// Temporary failures such as running out of file descriptors
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff = min(backoff*2, time.Second)
			}
			s.logger.Warn("accept failed", "error", err, "retry_in", backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		if s.clients != nil && !s.clients.TryAcquire(1) {
			s.reject(c)
			continue
		}
		cn := newConn(s, c)
		if !s.trackConn(cn, true) {
			s.release()
			c.Close()
			return nil
		}
		go func() {
			defer s.wg.Done()
			defer s.release()
			defer s.trackConn(cn, false)
			cn.serve()
		}()
	}
}

// Shutdown stops every listener, closes every live connection and waits for their workers to
// return or for ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shuttingDown.Store(true)
	var firstErr error
	for ln := range s.listeners {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) && firstErr == nil {
			firstErr = err
		}
	}
	for c := range s.conns {
		c.close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return firstErr
}

func (s *Server) reject(c net.Conn) {
	s.metrics.Rejected("max_clients")
	s.logger.Warn("connection rejected, too many clients", "remote_address", c.RemoteAddr().String())
	if s.cfg.WriteTimeout > 0 {
		c.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	c.Write(resp.AppendError(nil, errMaxClients))
	c.Close()
}

func (s *Server) release() {
	if s.clients != nil {
		s.clients.Release(1)
	}
}

func (s *Server) trackListener(ln net.Listener, add bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		if s.shuttingDown.Load() {
			return false
		}
		s.listeners[ln] = struct{}{}
	} else {
		delete(s.listeners, ln)
	}
	return true
}

// trackConn registers the worker with the wait group under the same lock Shutdown takes, so
// no worker can start once Shutdown has begun waiting.
func (s *Server) trackConn(c *conn, add bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		if s.shuttingDown.Load() {
			return false
		}
		s.conns[c] = struct{}{}
		s.wg.Add(1)
	} else {
		delete(s.conns, c)
	}
	return true
}

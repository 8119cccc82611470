package internal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ananthvk/respkv/internal/command"
	"github.com/ananthvk/respkv/internal/metrics"
	"github.com/ananthvk/respkv/internal/resp"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Pending replies are written once they exceed this size, even if more requests are buffered
const flushThreshold = 64 * 1024

var errBufferFull = fmt.Errorf("%w: request exceeds max buffer size", resp.ErrProtocolError)

var (
	replyOK          = []byte("OK")
	errRateLimited   = []byte("ERR rate limit exceeded")
	protocolErrorMsg = resp.ErrProtocolError.Error() + ": "
)

type conn struct {
	id      string
	server  *Server
	netConn net.Conn
	logger  *slog.Logger
	limiter *rate.Limiter

	// buf holds received bytes that have not been decoded yet, starting at buf[0]
	buf    []byte
	out    []byte
	closed atomic.Bool
}

func newConn(s *Server, c net.Conn) *conn {
	id := uuid.NewString()
	cn := &conn{
		id:      id,
		server:  s,
		netConn: c,
		logger:  s.logger.With("conn_id", id, "remote_address", c.RemoteAddr().String()),
	}
	if s.cfg.RateLimit > 0 {
		cn.limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst)
	}
	return cn
}

func (c *conn) close() {
	if c.closed.CompareAndSwap(false, true) {
		c.netConn.Close()
	}
}

func (c *conn) serve() {
	c.server.metrics.ConnectionOpened()
	c.logger.Info("client connected")
	defer func() {
		c.close()
		c.server.metrics.ConnectionClosed()
		c.logger.Info("client disconnected")
	}()

	c.buf = make([]byte, 0, c.server.cfg.ReadBufferSize)
	for {
		quit, err := c.process()
		if err != nil {
			c.protocolError(err)
			return
		}
		if err := c.flush(); err != nil {
			c.logger.Debug("write failed", "error", err)
			return
		}
		if quit {
			return
		}
		if err := c.read(); err != nil {
			if errors.Is(err, errBufferFull) {
				c.protocolError(err)
				return
			}
			c.readError(err)
			return
		}
	}
}

// process handles every complete request already in buf, in order. Each frame is
// materialized before the consumed bytes are dropped from buf.
func (c *conn) process() (quit bool, err error) {
	pos := 0
	defer func() { c.consume(pos) }()

	for {
		frame, next, err := resp.Decode(c.buf, pos)
		if errors.Is(err, resp.ErrIncomplete) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		value := frame.Materialize(c.buf)
		pos = next

		if command.IsQuit(value) {
			c.out = resp.AppendSimpleString(c.out, replyOK)
			return true, nil
		}
		c.execute(value)

		if len(c.out) >= flushThreshold {
			if err := c.flush(); err != nil {
				return true, nil
			}
		}
	}
}

func (c *conn) execute(value resp.Value) {
	name := command.Name(value)
	if c.limiter != nil && !c.limiter.Allow() {
		c.server.metrics.Rejected("rate_limit")
		c.out = resp.AppendError(c.out, errRateLimited)
		return
	}

	start := time.Now()
	result, err := command.Dispatch(value, c.server.state)
	took := time.Since(start)
	if err != nil {
		c.server.metrics.ObserveCommand(name, metrics.StatusError, took)
		c.logger.Debug("command failed", "command", name, "error", err)
		c.out = resp.AppendError(c.out, []byte(err.Error()))
		return
	}
	c.server.metrics.ObserveCommand(name, metrics.StatusOK, took)
	c.out = result.AppendTo(c.out)
}

func (c *conn) consume(n int) {
	if n == 0 {
		return
	}
	remaining := copy(c.buf, c.buf[n:])
	c.buf = c.buf[:remaining]

	// Give back memory taken by a large request once it is gone
	if remaining == 0 && cap(c.buf) > 4*c.server.cfg.ReadBufferSize {
		c.buf = make([]byte, 0, c.server.cfg.ReadBufferSize)
	}
}

// read appends at least one byte to buf, growing it up to MaxBufferSize
func (c *conn) read() error {
	cfg := &c.server.cfg
	if len(c.buf) == cap(c.buf) {
		if cap(c.buf) >= cfg.MaxBufferSize {
			return errBufferFull
		}
		grown := make([]byte, len(c.buf), min(2*cap(c.buf), cfg.MaxBufferSize))
		copy(grown, c.buf)
		c.buf = grown
	}

	timeout := cfg.IdleTimeout
	if len(c.buf) > 0 {
		timeout = cfg.ReadTimeout
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := c.netConn.SetReadDeadline(deadline); err != nil {
		return err
	}

	n, err := c.netConn.Read(c.buf[len(c.buf):cap(c.buf)])
	c.buf = c.buf[:len(c.buf)+n]
	if n > 0 {
		return nil
	}
	if err == nil {
		err = io.ErrNoProgress
	}
	return err
}

func (c *conn) flush() error {
	if len(c.out) == 0 {
		return nil
	}
	if c.server.cfg.WriteTimeout > 0 {
		if err := c.netConn.SetWriteDeadline(time.Now().Add(c.server.cfg.WriteTimeout)); err != nil {
			return err
		}
	}
	_, err := c.netConn.Write(c.out)
	c.out = c.out[:0]
	return err
}

// protocolError sends what could be answered so far, then the error, before the connection is
// closed. The stream cannot be resynchronized after malformed input.
func (c *conn) protocolError(err error) {
	c.server.metrics.ProtocolError()
	c.logger.Warn("protocol error", "error", err)
	reason := strings.TrimPrefix(err.Error(), protocolErrorMsg)
	c.out = resp.AppendError(c.out, []byte("ERR Protocol error: "+reason))
	if err := c.flush(); err != nil {
		c.logger.Debug("write failed", "error", err)
	}
}

func (c *conn) readError(err error) {
	if c.closed.Load() || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		c.logger.Debug("connection timed out", "pending_bytes", len(c.buf))
		return
	}
	c.logger.Debug("read failed", "error", err)
}

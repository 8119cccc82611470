// Package client is a minimal RESP client. It sends commands as arrays of bulk strings and
// decodes replies with the same incremental decoder the server uses.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ananthvk/respkv/internal/config"
	"github.com/ananthvk/respkv/internal/resp"
)

const readChunk = 4096

var ErrClosed = errors.New("client closed")

var ErrReplyTooLarge = errors.New("reply exceeds max buffer size")

// Reply is one decoded server reply. Status is set when the top-level frame was a simple
// string rather than a bulk string.
type Reply struct {
	resp.Value
	Status bool
}

// Err returns the reply's message as an error when the server answered with an error frame
func (r Reply) Err() error {
	if r.Type != resp.ValueTypeError {
		return nil
	}
	return errors.New(string(r.Buffer))
}

type Client struct {
	conn    net.Conn
	timeout time.Duration
	// maxReply bounds how much of a single unfinished reply is buffered
	maxReply int
	buf      []byte
	out      []byte
}

// Dial connects to addr. timeout bounds each round trip, zero means no limit.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, timeout: timeout, maxReply: config.DefaultMaxBufferSize}, nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return ErrClosed
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Do sends one command and waits for its reply. An error reply from the server is returned
// as a Reply, not as an error.
func (c *Client) Do(args ...string) (Reply, error) {
	if c.conn == nil {
		return Reply{}, ErrClosed
	}
	if len(args) == 0 {
		return Reply{}, errors.New("no command given")
	}
	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return Reply{}, err
		}
	}

	c.out = resp.AppendArrayHeader(c.out[:0], len(args))
	for _, arg := range args {
		c.out = resp.AppendBulkString(c.out, []byte(arg))
	}
	if _, err := c.conn.Write(c.out); err != nil {
		return Reply{}, err
	}
	return c.readReply()
}

func (c *Client) readReply() (Reply, error) {
	for {
		frame, next, err := resp.Decode(c.buf, 0)
		if err == nil {
			reply := Reply{Value: frame.Materialize(c.buf), Status: c.buf[0] == '+'}
			c.buf = c.buf[:copy(c.buf, c.buf[next:])]
			return reply, nil
		}
		if !errors.Is(err, resp.ErrIncomplete) {
			return Reply{}, fmt.Errorf("bad reply: %w", err)
		}

		if cap(c.buf)-len(c.buf) < readChunk && cap(c.buf) < c.maxReply {
			grown := make([]byte, len(c.buf), min(2*cap(c.buf)+readChunk, c.maxReply))
			copy(grown, c.buf)
			c.buf = grown
		}
		if len(c.buf) == cap(c.buf) {
			return Reply{}, ErrReplyTooLarge
		}
		n, err := c.conn.Read(c.buf[len(c.buf):cap(c.buf)])
		c.buf = c.buf[:len(c.buf)+n]
		if n == 0 && err != nil {
			return Reply{}, err
		}
	}
}

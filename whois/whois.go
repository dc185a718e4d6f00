// Package whois implements the port-43 line protocol: one query line out,
// free-form text back until the peer closes.
package whois

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dap-ware/whodis/models"
	"github.com/dap-ware/whodis/pool"
)

// Client performs one-shot whois queries. A single client is shared by
// all concurrent lookups.
type Client struct {
	timeout time.Duration
	maxSize int
	bufs    *pool.Pool
	log     *zap.Logger

	// dial is swappable in tests.
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewClient builds a whois client with the given per-connection timeout
// and response size cap, reading through the shared buffer pool.
func NewClient(timeout time.Duration, maxSize int, bufs *pool.Pool, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	d := &net.Dialer{Timeout: timeout}
	return &Client{
		timeout: timeout,
		maxSize: maxSize,
		bufs:    bufs,
		log:     log,
		dial:    d.DialContext,
	}
}

// Query writes the bare domain followed by CR LF to host:port and reads
// until the peer half-closes or a cap is reached. Bytes that are not
// valid UTF-8 come back as U+FFFD.
func (c *Client) Query(ctx context.Context, host string, port int, query string) (string, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	conn, err := c.dial(ctx, "tcp", addr)
	if err != nil {
		return "", classifyNetErr(fmt.Errorf("dial %s: %w", addr, err))
	}
	defer conn.Close()

	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.SetNoDelay(true); err != nil {
			c.log.Debug("set nodelay failed", zap.String("addr", addr), zap.Error(err))
		}
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return "", classifyNetErr(fmt.Errorf("set deadline on %s: %w", addr, err))
	}

	// Abort the read promptly if the caller walks away mid-lookup.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.SetDeadline(time.Now())
		case <-stop:
		}
	}()

	if _, err := fmt.Fprintf(conn, "%s\r\n", query); err != nil {
		return "", classifyNetErr(fmt.Errorf("write query to %s: %w", addr, err))
	}

	buf := c.bufs.Get()
	defer c.bufs.Put(buf)
	scratch := buf[:cap(buf)]

	var response []byte
	for {
		n, err := conn.Read(scratch)
		if n > 0 {
			response = append(response, scratch[:n]...)
			if len(response) > c.maxSize {
				return "", fmt.Errorf("%w: %s sent over %d bytes", models.ErrTooLarge, addr, c.maxSize)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: query to %s canceled", models.ErrTimeout, addr)
			}
			return "", classifyNetErr(fmt.Errorf("read from %s: %w", addr, err))
		}
	}

	c.log.Debug("whois response",
		zap.String("server", addr),
		zap.Int("bytes", len(response)))

	return strings.ToValidUTF8(string(response), "�"), nil
}

// classifyNetErr folds transport timeouts into the timeout error kind so
// callers can rank failures without poking at net internals.
func classifyNetErr(err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", models.ErrTimeout, err)
	}
	return err
}

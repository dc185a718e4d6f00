package whois

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dap-ware/whodis/models"
	"github.com/dap-ware/whodis/pool"
)

// serveOnce runs a one-shot fake whois server that records the query
// line and writes response before closing the connection.
func serveOnce(t *testing.T, response string, gotQuery chan<- string) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadString('\n')
		if gotQuery != nil {
			gotQuery <- line
		}
		conn.Write([]byte(response))
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func newTestClient(timeout time.Duration, maxSize int) *Client {
	return NewClient(timeout, maxSize, pool.New(4, 1024), nil)
}

func TestQuerySendsCRLFTerminatedDomain(t *testing.T) {
	gotQuery := make(chan string, 1)
	host, port := serveOnce(t, "Domain Name: example.com\r\n", gotQuery)

	c := newTestClient(2*time.Second, 1<<20)
	raw, err := c.Query(context.Background(), host, port, "example.com")
	require.NoError(t, err)
	require.Contains(t, raw, "Domain Name: example.com")
	require.Equal(t, "example.com\r\n", <-gotQuery)
}

func TestQueryReadsUntilClose(t *testing.T) {
	body := strings.Repeat("line of registration data\n", 200)
	host, port := serveOnce(t, body, nil)

	c := newTestClient(2*time.Second, 1<<20)
	raw, err := c.Query(context.Background(), host, port, "example.com")
	require.NoError(t, err)
	require.Equal(t, body, raw)
}

func TestQueryEnforcesSizeCap(t *testing.T) {
	host, port := serveOnce(t, strings.Repeat("x", 4096), nil)

	c := newTestClient(2*time.Second, 1024)
	_, err := c.Query(context.Background(), host, port, "example.com")
	require.Error(t, err)
	require.True(t, errors.Is(err, models.ErrTooLarge))
}

func TestQueryTimesOutOnSilentServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		// hold the connection open, say nothing
		time.Sleep(5 * time.Second)
		conn.Close()
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	c := newTestClient(200*time.Millisecond, 1<<20)
	start := time.Now()
	_, err = c.Query(context.Background(), host, port, "example.com")
	require.Error(t, err)
	require.Equal(t, models.KindTimeout, models.Classify(err))
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestQueryCancellationAbortsRead(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		time.Sleep(5 * time.Second)
		conn.Close()
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	c := newTestClient(10*time.Second, 1<<20)
	start := time.Now()
	_, err = c.Query(ctx, host, port, "example.com")
	require.Error(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestQueryReplacesInvalidUTF8(t *testing.T) {
	host, port := serveOnce(t, "registrar: caf\xff\n", nil)

	c := newTestClient(2*time.Second, 1<<20)
	raw, err := c.Query(context.Background(), host, port, "example.com")
	require.NoError(t, err)
	require.Contains(t, raw, "�")
}

func TestQueryConnectionRefusedIsNetworkError(t *testing.T) {
	// grab a port and close it again so nothing is listening
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	ln.Close()

	c := newTestClient(1*time.Second, 1<<20)
	_, err = c.Query(context.Background(), host, port, "example.com")
	require.Error(t, err)
	require.Equal(t, models.KindNetwork, models.Classify(err))
}

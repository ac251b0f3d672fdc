// Package ncat implements a sentinel-based command execution
// protocol on top of a plain, unauthenticated TCP connection.
// The peer is expected to feed every received line to a shell
// and to stream the combined output back verbatim.
package ncat

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultPort is the port the peer listens on by default.
	DefaultPort = 8000
	// DefaultChunkSize is the maximum number of bytes per receive.
	DefaultChunkSize = 4096
)

// Conn is a raw connection to a peer. It exposes a readiness
// wait and a single-shot receive on top of the socket.
type Conn struct {
	Host string
	Port int

	conn   net.Conn
	reader *bufio.Reader
}

// Dial establishes a connection to the peer at host:port.
func Dial(host string, port int, timeout time.Duration) (*Conn, error) {
	address := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, &ConnectionError{Address: address, Err: err}
	}

	c := newConn(conn)
	c.Host = host
	c.Port = port

	return c, nil
}

func newConn(conn net.Conn) *Conn {
	return &Conn{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, DefaultChunkSize),
	}
}

// Send writes all bytes to the peer. Writes have no deadline,
// only waiting for output is bounded.
func (c *Conn) Send(p []byte) error {
	if _, err := c.conn.Write(p); err != nil {
		return &TransportError{Op: "send", Err: err}
	}

	return nil
}

// Poll waits until data is available to read or the timeout
// elapses. It reports false if the timeout elapsed.
func (c *Conn) Poll(timeout time.Duration) (bool, error) {
	if c.reader.Buffered() > 0 {
		return true, nil
	}
	if timeout <= 0 {
		return false, nil
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return false, &TransportError{Op: "poll", Err: err}
	}

	// Peek blocks until at least a single byte was buffered,
	// which makes the following Read non-blocking.
	if _, err := c.reader.Peek(1); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return false, nil
		}
		return false, &TransportError{Op: "poll", Err: err}
	}

	return true, nil
}

// Read performs a single receive of at most max bytes. It
// should only be called after Poll reported readiness.
func (c *Conn) Read(max int) ([]byte, error) {
	if max <= 0 {
		return nil, fmt.Errorf("invalid receive size: %d", max)
	}

	buf := make([]byte, max)
	n, err := c.reader.Read(buf)
	if err != nil {
		return nil, &TransportError{Op: "receive", Err: err}
	}

	return buf[:n], nil
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	err := c.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

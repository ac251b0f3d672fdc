package ncat

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakePeer is a scripted peer. For every received line it looks
// up the command inside the framing and writes the configured
// chunks back with a short pause between them.
type fakePeer struct {
	t        *testing.T
	listener net.Listener

	mu        sync.Mutex
	responses map[string][]string
	received  []string
}

func newFakePeer(t *testing.T, responses map[string][]string) *fakePeer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	peer := &fakePeer{
		t:         t,
		listener:  ln,
		responses: responses,
	}
	go peer.serve()

	return peer
}

func (p *fakePeer) serve() {
	for {
		conn, err := p.listener.Accept()
		if err != nil {
			return
		}
		go p.handle(conn)
	}
}

func (p *fakePeer) handle(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}

		p.mu.Lock()
		p.received = append(p.received, line)
		chunks := p.responses[unframe(line)]
		p.mu.Unlock()

		for _, chunk := range chunks {
			if _, err := conn.Write([]byte(chunk)); err != nil {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}
}

// Lines returns the raw lines the peer received so far.
func (p *fakePeer) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.received...)
}

func (p *fakePeer) Host() string {
	host, _, _ := net.SplitHostPort(p.listener.Addr().String())
	return host
}

func (p *fakePeer) Port() int {
	_, port, _ := net.SplitHostPort(p.listener.Addr().String())
	n, _ := strconv.Atoi(port)
	return n
}

func unframe(line string) string {
	line = strings.TrimPrefix(line, "(")
	if i := strings.LastIndex(line, ") 2>&1 &&"); i >= 0 {
		return line[:i]
	}
	return line
}

func newTestSession(t *testing.T, peer *fakePeer, options ...Option) *Session {
	t.Helper()

	session, err := NewSession(peer.Host(), peer.Port(), options...)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	return session
}

// Package peer implements the listening side of the plaintext
// protocol. Every connection gets its own shell which reads the
// commands from the connection and writes its output back to it.
package peer

import (
	"context"
	"errors"
	"net"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FallbackShell is used if bash is not installed. Note that
// uploads only work if its echo understands -e, which e.g. dash
// does not.
const FallbackShell = "/bin/sh"

// DefaultShell returns the command interpreter fed by a connection.
// Uploads echo every line with -e, so bash is preferred.
func DefaultShell() string {
	if shell, err := exec.LookPath("bash"); err == nil {
		return shell
	}
	return FallbackShell
}

// Server accepts connections and attaches them to a shell.
type Server struct {
	Logger *zerolog.Logger
	Shell  string

	wg sync.WaitGroup
}

// New creates a new server.
func New(options ...Option) (*Server, error) {
	opts, err := GetDefaultOptions().Apply(options...)
	if err != nil {
		return nil, err
	}

	return &Server{
		Logger: opts.Logger,
		Shell:  opts.Shell,
	}, nil
}

// Serve accepts connections until the context is cancelled or the
// listener fails. It waits for all shells to exit before returning.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.Logger.Info().Str("address", listener.Addr().String()).Str("shell", s.Shell).Msg("Accepting connections")

	// Closing the listener is the only way to interrupt Accept.
	stop := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer stop()
	defer s.wg.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

// handle runs a shell on the connection until either side hangs up.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	logger := s.Logger.With().Str("remote", conn.RemoteAddr().String()).Logger()
	logger.Info().Msg("Accepted connection")

	shell := exec.CommandContext(ctx, s.Shell)
	shell.Stdin = conn
	shell.Stdout = conn
	shell.Stderr = conn
	// The copy from the connection only returns once the client
	// hangs up, so do not wait for it after the shell exited.
	shell.WaitDelay = time.Second

	if err := shell.Run(); err != nil && !errors.Is(err, exec.ErrWaitDelay) && ctx.Err() == nil {
		logger.Warn().Err(err).Msg("Shell exited with error")
		return
	}

	logger.Info().Msg("Closed connection")
}

package ncat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// Cmd describes a command to be executed by the peer.
type Cmd struct {
	Cmd string
	// Stdout receives the output if the command succeeded.
	Stdout io.Writer
	// Stderr receives the output if the command failed. The
	// output is combined, so this is everything the command
	// printed and not only its standard error.
	Stderr io.Writer
	// IgnoreError suppresses the *RemoteCommandError of a
	// failed command.
	IgnoreError bool
	// Timeout overrides the command timeout of the session.
	Timeout time.Duration
}

// Session runs commands on a peer, one at a time.
type Session struct {
	*Options

	mu     sync.Mutex
	conn   *Conn
	closed bool
}

// NewSession connects to the peer at host:port.
func NewSession(host string, port int, options ...Option) (*Session, error) {
	opts, err := GetDefaultOptions().Apply(options...)
	if err != nil {
		return nil, err
	}

	if port == 0 {
		port = DefaultPort
	}

	opts.Logger.Info().Str("host", host).Int("port", port).Msg("Creating connection")
	conn, err := Dial(host, port, opts.DialTimeout)
	if err != nil {
		return nil, err
	}

	return &Session{
		Options: opts,
		conn:    conn,
	}, nil
}

// Run sends the command to the peer and waits for its outcome.
func (s *Session) Run(cmd *Cmd) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errSessionClosed
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = s.CommandTimeout
	}

	s.Logger.Info().Str("cmd", cmd.Cmd).Msg("Sending command")
	governor := NewGovernor(timeout)
	if err := s.conn.Send([]byte(Frame(cmd.Cmd))); err != nil {
		s.closeLocked()
		return nil, err
	}

	result, err := Demultiplex(s.conn, governor, s.ChunkSize, s.Logger)
	if err != nil {
		s.closeLocked()
		return nil, err
	}

	switch result.Outcome {
	case Success:
		if cmd.Stdout != nil {
			if _, err := io.WriteString(cmd.Stdout, result.Output); err != nil {
				return result, err
			}
		}

	case Failure:
		// We assume that everything a failed command printed is
		// an error message, which is not necessarily accurate.
		if cmd.Stderr != nil {
			if _, err := io.WriteString(cmd.Stderr, result.Output); err != nil {
				return result, err
			}
		}
		if !cmd.IgnoreError {
			return result, &RemoteCommandError{Command: cmd.Cmd, Output: result.Output}
		}

	case TimedOut:
		// Output of the abandoned command may still arrive and would
		// be taken for the output of the next command.
		s.Logger.Warn().Str("cmd", cmd.Cmd).Dur("timeout", timeout).Msg("Command timed out, closing connection")
		s.closeLocked()

		if s.TimeoutPolicy == TimeoutFail {
			return result, &TimeoutError{Command: cmd.Cmd, Timeout: timeout, Output: result.Output}
		}
	}

	return result, nil
}

// Do runs the command and only reports the error.
func (s *Session) Do(cmd *Cmd) error {
	_, err := s.Run(cmd)
	return err
}

// PutFile copies a local text file to the peer by echoing it line
// by line. Lines are not escaped, so quotes or command substitutions
// in the source will corrupt the destination or be executed.
func (s *Session) PutFile(sourcePath, destPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer source.Close()

	scanner := bufio.NewScanner(source)
	redirect := ">"
	for scanner.Scan() {
		if err := s.Do(&Cmd{
			Cmd: fmt.Sprintf(`echo -e "%s" %s %s`, scanner.Text(), redirect, destPath),
		}); err != nil {
			return err
		}
		redirect = ">>"
	}

	return scanner.Err()
}

// Close closes the connection to the peer.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closeLocked()
}

// Closed reports whether the connection was closed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

func (s *Session) closeLocked() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

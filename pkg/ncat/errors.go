package ncat

import (
	"fmt"
	"net"
	"time"
)

// ConnectionError is returned if the connection to the peer
// could not be established.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TransportError is returned if sending or receiving fails
// while a command is in flight. It is fatal to the session.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteCommandError is returned if the peer executed the
// command and it reported a failure.
type RemoteCommandError struct {
	Command string
	Output  string
}

func (e *RemoteCommandError) Error() string {
	return fmt.Sprintf("error running command %q: %s", e.Command, e.Output)
}

// TimeoutError is returned by sessions using the TimeoutFail
// policy if no sentinel arrived before the deadline.
type TimeoutError struct {
	Command string
	Timeout time.Duration
	// Output is whatever was received before the deadline.
	Output string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q timed out after %s", e.Command, e.Timeout)
}

// errSessionClosed is returned by operations on a closed session.
var errSessionClosed = &TransportError{Op: "run", Err: net.ErrClosed}

package rexec

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/nicklasfrahm/ncexec/pkg/ncat"
)

// ErrNotConnected is returned if a runner is used before Connect.
var ErrNotConnected = errors.New("runner not connected")

// Plaintext is a runner that executes commands on a listening
// shell via the sentinel protocol.
type Plaintext struct {
	Logger  *zerolog.Logger
	Target  *Config
	Options *Options

	session *ncat.Session
}

// NewPlaintext returns a new plaintext runner.
func NewPlaintext(target *Config, options ...Option) (*Plaintext, error) {
	opts, err := GetDefaultOptions().Apply(options...)
	if err != nil {
		return nil, err
	}

	if target.Port == 0 {
		target.Port = ncat.DefaultPort
	}

	return &Plaintext{
		Logger:  opts.Logger,
		Target:  target,
		Options: opts,
	}, nil
}

// Connect establishes the connection to the listening shell.
func (runner *Plaintext) Connect() error {
	runner.Logger.Warn().Msg("Plaintext connections are neither authenticated nor encrypted!")

	session, err := ncat.NewSession(runner.Target.Host, runner.Target.Port,
		ncat.WithLogger(runner.Logger),
		ncat.WithDialTimeout(runner.Options.Timeout),
		ncat.WithCommandTimeout(runner.Options.CommandTimeout),
		ncat.WithTimeoutPolicy(runner.Options.TimeoutPolicy),
	)
	if err != nil {
		return err
	}

	runner.session = session
	return nil
}

// Run runs the command on the listening shell.
func (runner *Plaintext) Run(cmd *Cmd) error {
	if runner.session == nil {
		return ErrNotConnected
	}

	return runner.session.Do(cmd.ncat())
}

// PutFile copies a text file line by line.
func (runner *Plaintext) PutFile(sourcePath, destPath string) error {
	if runner.session == nil {
		return ErrNotConnected
	}

	return runner.session.PutFile(sourcePath, destPath)
}

// Disconnect closes the connection.
func (runner *Plaintext) Disconnect() error {
	if runner.session == nil {
		return nil
	}

	err := runner.session.Close()
	runner.session = nil
	return err
}

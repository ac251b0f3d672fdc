package engine

import (
	"bytes"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nicklasfrahm/ncexec/pkg/rexec"
)

const (
	// Program is used to configure the name of the configuration file.
	Program = "ncexec"
)

// Target describes a host that runs commands.
type Target struct {
	Name       string           `yaml:"name"`
	Farm       string           `yaml:"farm"`
	Tag        string           `yaml:"tag"`
	ServerType rexec.ServerType `yaml:"server-type"`
	Connection rexec.Config     `yaml:"connection"`

	Logger zerolog.Logger `yaml:"-"`
	Runner rexec.Runner   `yaml:"-"`

	output *lineWriter
}

// Connect establishes a connection to the target.
func (target *Target) Connect(options ...Option) error {
	opts, err := GetDefaultOptions().Apply(options...)
	if err != nil {
		return err
	}

	runnerOptions := []rexec.Option{
		rexec.WithLogger(opts.Logger),
		rexec.WithTimeout(opts.Timeout),
		rexec.WithCommandTimeout(opts.CommandTimeout),
		rexec.WithTimeoutPolicy(opts.TimeoutPolicy),
	}
	if opts.SSHProxy != nil {
		runnerOptions = append(runnerOptions, rexec.WithSSHProxy(opts.SSHProxy))
	}

	runner, err := rexec.NewRunner(target.ServerType, &target.Connection, runnerOptions...)
	if err != nil {
		return err
	}

	if err := runner.Connect(); err != nil {
		return err
	}

	target.Runner = runner
	return nil
}

// Disconnect closes the connection to the target.
func (target *Target) Disconnect() error {
	target.Flush()

	if target.Runner == nil {
		return nil
	}

	err := target.Runner.Disconnect()
	target.Runner = nil
	return err
}

// Write logs every complete line of command output. An
// incomplete line is kept until the next write or Flush.
func (target *Target) Write(p []byte) (int, error) {
	if target.output == nil {
		target.output = &lineWriter{logger: &target.Logger}
	}
	return target.output.Write(p)
}

// Flush logs an incomplete line of output.
func (target *Target) Flush() {
	if target.output != nil {
		target.output.Flush()
	}
}

// lineWriter logs its input line by line.
type lineWriter struct {
	logger *zerolog.Logger

	mu      sync.Mutex
	partial []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	data := append(w.partial, p...)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		w.logger.Info().Msg(string(data[:i]))
		data = data[i+1:]
	}
	w.partial = append([]byte(nil), data...)

	return len(p), nil
}

func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.partial) > 0 {
		w.logger.Info().Msg(string(w.partial))
		w.partial = nil
	}
}

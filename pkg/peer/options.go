package peer

import (
	"errors"

	"github.com/rs/zerolog"
)

// Options contains the configuration for a server.
type Options struct {
	Logger *zerolog.Logger
	Shell  string
}

// Option applies a configuration option to a server.
type Option func(options *Options) error

// Apply applies the option functions to the current set of options.
func (o *Options) Apply(options ...Option) (*Options, error) {
	for _, option := range options {
		if err := option(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// GetDefaultOptions returns the default options for a server.
func GetDefaultOptions() *Options {
	logger := zerolog.Nop()

	return &Options{
		Logger: &logger,
		Shell:  DefaultShell(),
	}
}

// WithLogger allows to use a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(options *Options) error {
		options.Logger = logger
		return nil
	}
}

// WithShell overrides the command interpreter.
func WithShell(shell string) Option {
	return func(options *Options) error {
		if shell == "" {
			return errors.New("shell must not be empty")
		}
		options.Shell = shell
		return nil
	}
}

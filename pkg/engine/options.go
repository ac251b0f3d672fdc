package engine

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nicklasfrahm/ncexec/pkg/ncat"
	"github.com/nicklasfrahm/ncexec/pkg/rexec"
)

// Options contains the configuration for an operation.
type Options struct {
	Logger         *zerolog.Logger
	SSHProxy       *rexec.Config
	Timeout        time.Duration
	CommandTimeout time.Duration
	TimeoutPolicy  ncat.TimeoutPolicy
}

// Option applies a configuration option
// for the execution of an operation.
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

// GetDefaultOptions returns the default options
// for all operations of this library.
func GetDefaultOptions() *Options {
	logger := log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})

	return &Options{
		SSHProxy:       nil,
		Timeout:        time.Second * 5,
		CommandTimeout: ncat.DefaultTimeout,
		TimeoutPolicy:  ncat.TimeoutIgnore,
		Logger:         &logger,
	}
}

// WithLogger allows to use a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(options *Options) error {
		options.Logger = logger
		return nil
	}
}

// WithSSHProxy allows to reach SSH targets via a bastion host.
func WithSSHProxy(proxy *rexec.Config) Option {
	return func(options *Options) error {
		options.SSHProxy = proxy
		return nil
	}
}

// WithTimeout allows to set a custom connection timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(options *Options) error {
		options.Timeout = timeout
		return nil
	}
}

// WithCommandTimeout sets the default timeout of a command.
func WithCommandTimeout(timeout time.Duration) Option {
	return func(options *Options) error {
		options.CommandTimeout = timeout
		return nil
	}
}

// WithTimeoutPolicy decides whether timed out commands are errors.
func WithTimeoutPolicy(policy ncat.TimeoutPolicy) Option {
	return func(options *Options) error {
		options.TimeoutPolicy = policy
		return nil
	}
}

package ncat

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// TimeoutPolicy decides how a run without a sentinel is surfaced.
type TimeoutPolicy int

const (
	// TimeoutIgnore returns the partial result without an error.
	TimeoutIgnore TimeoutPolicy = iota
	// TimeoutFail returns a *TimeoutError.
	TimeoutFail
)

// Options contains the configuration for a session.
type Options struct {
	Logger         *zerolog.Logger
	DialTimeout    time.Duration
	CommandTimeout time.Duration
	ChunkSize      int
	TimeoutPolicy  TimeoutPolicy
}

// Option applies a configuration option to a session.
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

// GetDefaultOptions returns the default options for a session.
func GetDefaultOptions() *Options {
	logger := zerolog.Nop()

	return &Options{
		Logger:         &logger,
		DialTimeout:    time.Second * 5,
		CommandTimeout: DefaultTimeout,
		ChunkSize:      DefaultChunkSize,
		TimeoutPolicy:  TimeoutIgnore,
	}
}

// WithLogger allows to use a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(options *Options) error {
		options.Logger = logger
		return nil
	}
}

// WithDialTimeout sets the timeout for establishing the connection.
func WithDialTimeout(timeout time.Duration) Option {
	return func(options *Options) error {
		options.DialTimeout = timeout
		return nil
	}
}

// WithCommandTimeout sets the default timeout of a command run.
func WithCommandTimeout(timeout time.Duration) Option {
	return func(options *Options) error {
		if timeout <= 0 {
			return errors.New("command timeout must be positive")
		}
		options.CommandTimeout = timeout
		return nil
	}
}

// WithChunkSize sets the maximum number of bytes per receive.
func WithChunkSize(size int) Option {
	return func(options *Options) error {
		if size <= 0 {
			return errors.New("chunk size must be positive")
		}
		options.ChunkSize = size
		return nil
	}
}

// WithTimeoutPolicy decides whether timed out runs are errors.
func WithTimeoutPolicy(policy TimeoutPolicy) Option {
	return func(options *Options) error {
		options.TimeoutPolicy = policy
		return nil
	}
}

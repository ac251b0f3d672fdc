package ops

import (
	"github.com/rs/zerolog"

	"github.com/nicklasfrahm/ncexec/pkg/engine"
	"github.com/nicklasfrahm/ncexec/pkg/ncat"
)

const (
	// Program is used to configure the name of the configuration file.
	Program = engine.Program
)

// Options contains the configuration for an operation.
type Options struct {
	ConfigPath    string
	Logger        *zerolog.Logger
	Selector      engine.Selector
	Random        bool
	Settings      *Settings
	TimeoutPolicy ncat.TimeoutPolicy
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
	logger := zerolog.Nop()

	return &Options{
		ConfigPath: Program + ".yml",
		Logger:     &logger,
	}
}

// WithConfigPath overrides the default configuration path.
func WithConfigPath(configPath string) Option {
	return func(options *Options) error {
		options.ConfigPath = configPath
		return nil
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(options *Options) error {
		options.Logger = logger
		return nil
	}
}

// WithSelector limits the operation to the matching targets.
func WithSelector(selector engine.Selector) Option {
	return func(options *Options) error {
		options.Selector = selector
		return nil
	}
}

// WithRandom limits the operation to a single random target
// out of the matching ones.
func WithRandom(random bool) Option {
	return func(options *Options) error {
		options.Random = random
		return nil
	}
}

// WithSettings applies settings loaded from the environment.
func WithSettings(settings *Settings) Option {
	return func(options *Options) error {
		options.Settings = settings
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

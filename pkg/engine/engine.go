package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nicklasfrahm/ncexec/pkg/rexec"
)

// ErrNoTargets is returned if a selector does not match any target.
var ErrNoTargets = errors.New("no targets match the selector")

// Selector matches targets. Empty fields match any value.
type Selector struct {
	Name string
	Farm string
	Tag  string
}

// Matches reports whether the target is selected.
func (s Selector) Matches(target *Target) bool {
	return (s.Name == "" || s.Name == target.Name) &&
		(s.Farm == "" || s.Farm == target.Farm) &&
		(s.Tag == "" || s.Tag == target.Tag)
}

// Engine runs commands on the targets of a configuration.
type Engine struct {
	Logger  *zerolog.Logger
	Options *Options

	Spec *Config
}

// New creates a new Engine.
func New(options ...Option) (*Engine, error) {
	opts, err := GetDefaultOptions().Apply(options...)
	if err != nil {
		return nil, err
	}

	return &Engine{
		Logger:  opts.Logger,
		Options: opts,
	}, nil
}

// SetSpec configures the targets. Note that the config will
// only be applied if the verification succeeds.
func (e *Engine) SetSpec(config *Config) error {
	if err := config.Verify(); err != nil {
		return err
	}

	e.Spec = config

	if config.Timeout > 0 {
		e.Options.CommandTimeout = config.Timeout
	}
	if config.SSHProxy.Host != "" {
		e.Options.SSHProxy = &config.SSHProxy
	}

	return nil
}

// FilterTargets returns the targets matching the selector.
func (e *Engine) FilterTargets(selector Selector) []*Target {
	var targets []*Target

	// We are NOT using range here because we need pointers to the
	// actual targets inside the Spec holding the connection state.
	for i := 0; i < len(e.Spec.Targets); i++ {
		target := &e.Spec.Targets[i]

		if selector.Matches(target) {
			targets = append(targets, target)
		}
	}

	return targets
}

// RandomTarget picks a random farm out of the farms with matching
// targets and then a random target within that farm, so every farm
// is equally likely regardless of its size.
func (e *Engine) RandomTarget(selector Selector) (*Target, error) {
	targets := e.FilterTargets(selector)
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	var farms []string
	byFarm := make(map[string][]*Target)
	for _, target := range targets {
		if _, ok := byFarm[target.Farm]; !ok {
			farms = append(farms, target.Farm)
		}
		byFarm[target.Farm] = append(byFarm[target.Farm], target)
	}

	farm := byFarm[farms[rand.IntN(len(farms))]]
	return farm[rand.IntN(len(farm))], nil
}

// Farms returns the sorted list of farms hosting at least one target.
func (e *Engine) Farms() []string {
	seen := make(map[string]bool)
	var farms []string

	for _, target := range e.Spec.Targets {
		if target.Farm != "" && !seen[target.Farm] {
			seen[target.Farm] = true
			farms = append(farms, target.Farm)
		}
	}
	sort.Strings(farms)

	return farms
}

// Connect establishes a connection to all selected targets.
func (e *Engine) Connect(selector Selector) error {
	targets := e.FilterTargets(selector)
	if len(targets) == 0 {
		return ErrNoTargets
	}

	for _, target := range targets {
		if target.Runner != nil {
			continue
		}

		// Inject logger into target.
		target.Logger = e.Logger.With().
			Str("target", target.Name).
			Str("host", target.Connection.Host).
			Logger()
		target.output = &lineWriter{logger: &target.Logger}

		target.Logger.Info().Str("server_type", string(target.ServerType)).Msg("Connecting")
		if err := target.Connect(
			WithLogger(&target.Logger),
			WithSSHProxy(e.Options.SSHProxy),
			WithTimeout(e.Options.Timeout),
			WithCommandTimeout(e.Options.CommandTimeout),
			WithTimeoutPolicy(e.Options.TimeoutPolicy),
		); err != nil {
			return fmt.Errorf("target %s: %w", target.Name, err)
		}
	}

	return nil
}

// Run runs the command on all selected targets concurrently.
// Output that has no sink in the command is logged per target.
func (e *Engine) Run(selector Selector, cmd rexec.Cmd) error {
	return e.each(selector, func(target *Target) error {
		targetCmd := cmd
		if targetCmd.Stdout == nil {
			targetCmd.Stdout = target
		}
		if targetCmd.Stderr == nil {
			targetCmd.Stderr = target
		}

		err := target.Runner.Run(&targetCmd)
		target.Flush()
		return err
	})
}

// PutFile copies a local file to all selected targets concurrently.
func (e *Engine) PutFile(selector Selector, sourcePath, destPath string) error {
	return e.each(selector, func(target *Target) error {
		target.Logger.Info().Str("dest", destPath).Msg("Uploading file")
		return target.Runner.PutFile(sourcePath, destPath)
	})
}

// Disconnect closes the connections to all targets.
func (e *Engine) Disconnect() error {
	var errs []error

	for _, target := range e.FilterTargets(Selector{}) {
		if err := target.Disconnect(); err != nil {
			errs = append(errs, fmt.Errorf("target %s: %w", target.Name, err))
		}
	}

	return errors.Join(errs...)
}

// each calls fn for every selected target in its own goroutine.
func (e *Engine) each(selector Selector, fn func(target *Target) error) error {
	targets := e.FilterTargets(selector)
	if len(targets) == 0 {
		return ErrNoTargets
	}

	var mu sync.Mutex
	var errs []error
	wg := sync.WaitGroup{}

	for _, target := range targets {
		wg.Add(1)

		go func(target *Target) {
			defer wg.Done()

			var err error
			if target.Runner == nil {
				err = rexec.ErrNotConnected
			} else {
				err = fn(target)
			}

			if err != nil {
				target.Logger.Error().Err(err).Msg("Failed to execute")

				mu.Lock()
				errs = append(errs, fmt.Errorf("target %s: %w", target.Name, err))
				mu.Unlock()
			}
		}(target)
	}

	wg.Wait()

	return errors.Join(errs...)
}

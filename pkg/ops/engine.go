package ops

import (
	"errors"

	"github.com/nicklasfrahm/ncexec/pkg/engine"
)

// prepare loads the configuration and resolves the targets the
// operation applies to.
func prepare(opts *Options) (*engine.Engine, engine.Selector, error) {
	selector := opts.Selector

	config, err := engine.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, selector, err
	}

	engineOptions := []engine.Option{
		engine.WithLogger(opts.Logger),
		engine.WithTimeoutPolicy(opts.TimeoutPolicy),
	}
	if opts.Settings != nil && opts.Settings.Timeout > 0 {
		// The environment overrides the timeout of the file.
		config.Timeout = opts.Settings.Timeout
	}

	eng, err := engine.New(engineOptions...)
	if err != nil {
		return nil, selector, err
	}

	if err := eng.SetSpec(config); err != nil {
		return nil, selector, err
	}

	if opts.Random {
		target, err := eng.RandomTarget(selector)
		if err != nil {
			return nil, selector, err
		}
		opts.Logger.Info().Str("target", target.Name).Msg("Picked random target")
		selector = engine.Selector{Name: target.Name}
	}

	return eng, selector, nil
}

// withEngine connects to the selected targets, calls fn and
// disconnects again.
func withEngine(opts *Options, fn func(eng *engine.Engine, selector engine.Selector) error) error {
	eng, selector, err := prepare(opts)
	if err != nil {
		return err
	}

	if err := eng.Connect(selector); err != nil {
		return errors.Join(err, eng.Disconnect())
	}

	if err := fn(eng, selector); err != nil {
		return errors.Join(err, eng.Disconnect())
	}

	return eng.Disconnect()
}

package ops

import (
	"github.com/nicklasfrahm/ncexec/pkg/engine"
	"github.com/nicklasfrahm/ncexec/pkg/rexec"
)

// Run runs a command on all selected targets.
func Run(cmd rexec.Cmd, options ...Option) error {
	// Fetch the options for this operation.
	opts, err := GetDefaultOptions().Apply(options...)
	if err != nil {
		return err
	}

	return withEngine(opts, func(eng *engine.Engine, selector engine.Selector) error {
		return eng.Run(selector, cmd)
	})
}

// Put copies a local file to all selected targets.
func Put(sourcePath, destPath string, options ...Option) error {
	opts, err := GetDefaultOptions().Apply(options...)
	if err != nil {
		return err
	}

	return withEngine(opts, func(eng *engine.Engine, selector engine.Selector) error {
		return eng.PutFile(selector, sourcePath, destPath)
	})
}

// Farms returns the farms hosting at least one target.
func Farms(options ...Option) ([]string, error) {
	opts, err := GetDefaultOptions().Apply(options...)
	if err != nil {
		return nil, err
	}

	config, err := engine.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(engine.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}

	if err := eng.SetSpec(config); err != nil {
		return nil, err
	}

	return eng.Farms(), nil
}

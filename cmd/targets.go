package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nicklasfrahm/ncexec/pkg/engine"
	"github.com/nicklasfrahm/ncexec/pkg/ncat"
	"github.com/nicklasfrahm/ncexec/pkg/ops"
)

// targetFlags select the targets of an operation.
type targetFlags struct {
	config        string
	selector      engine.Selector
	random        bool
	failOnTimeout bool
}

func (f *targetFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.config, "config", "c", "", "path to the target configuration (default \""+ops.Program+".yml\")")
	flags.StringVar(&f.selector.Name, "name", "", "only use the target with this name")
	flags.StringVar(&f.selector.Farm, "farm", "", "only use targets of this farm")
	flags.StringVar(&f.selector.Tag, "tag", "", "only use targets with this tag")
	flags.BoolVar(&f.random, "random", false, "use a single random target out of the selected ones")
	flags.BoolVar(&f.failOnTimeout, "fail-on-timeout", false, "treat commands that time out as failed")
}

// options compiles the flags into operation options. A config path
// passed as flag takes precedence over the environment.
func (f *targetFlags) options() []ops.Option {
	opts := []ops.Option{
		ops.WithLogger(&logger),
		ops.WithSettings(settings),
		ops.WithSelector(f.selector),
		ops.WithRandom(f.random),
	}

	if f.config != "" {
		opts = append(opts, ops.WithConfigPath(f.config))
	} else if settings.ConfigPath != "" {
		opts = append(opts, ops.WithConfigPath(settings.ConfigPath))
	}

	if f.failOnTimeout {
		opts = append(opts, ops.WithTimeoutPolicy(ncat.TimeoutFail))
	}

	return opts
}

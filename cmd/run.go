package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nicklasfrahm/ncexec/pkg/ops"
	"github.com/nicklasfrahm/ncexec/pkg/rexec"
)

var runFlags targetFlags
var ignoreError bool
var runEnv map[string]string
var runShell bool

var runCmd = &cobra.Command{
	Use:   "run [flags] -- command",
	Short: "Run a command on the targets",
	Long: `Run a shell command on all selected targets at the
same time. The output of every target is logged line
by line.

By default the command expects a "ncexec.yml" config
file in the current directory. You may override this
by passing the --config flag or by setting NCEXEC_CONFIG.`,
	Example: `  ncexec run --farm farm-1 -- ovs-vsctl show
  ncexec run --env OVN_NB_DB=tcp:10.0.0.1:6641 -- 'ovn-nbctl ls-list'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ops.Run(compileCmd(args), runFlags.options()...)
	},
}

// compileCmd builds the remote command from the arguments and flags.
func compileCmd(args []string) rexec.Cmd {
	return rexec.Cmd{
		Cmd:         strings.Join(args, " "),
		Env:         runEnv,
		Shell:       runShell,
		IgnoreError: ignoreError,
	}
}

func init() {
	runFlags.register(runCmd)
	runCmd.Flags().BoolVar(&ignoreError, "ignore-error", false, "do not fail if the command fails")
	runCmd.Flags().StringToStringVarP(&runEnv, "env", "e", nil, "environment variables of the command, e.g. KEY=VALUE")
	runCmd.Flags().BoolVar(&runShell, "shell", false, "wrap the command in sh -c")
	rootCmd.AddCommand(runCmd)
}

package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nicklasfrahm/ncexec/pkg/ops"
)

var version = "dev"
var help bool

var (
	settings *ops.Settings
	logger   zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ncexec",
	Short: "Run commands on sandboxes via SSH or plaintext",
	Long: `ncexec runs shell commands on remote sandboxes. Targets
are either reached via SSH or via a plaintext connection
to a listening shell, which is neither authenticated nor
encrypted and should only be used on trusted networks.

Settings are read from the environment:
  NCEXEC_CONFIG     path to the target configuration
  NCEXEC_LOG_LEVEL  log level, defaults to "info"
  NCEXEC_TIMEOUT    command timeout, e.g. "10m"`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if help {
			cmd.Help()
			os.Exit(0)
		}

		var err error
		if settings, err = ops.LoadSettings(); err != nil {
			return err
		}

		level, err := settings.Level()
		if err != nil {
			return err
		}

		logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).Level(level)

		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(0)
	},
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&help, "help", "h", false, "display help for command")
}

// Execute starts the invocation of the command line interface.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nicklasfrahm/ncexec/pkg/ops"
)

var putFlags targetFlags

var putCmd = &cobra.Command{
	Use:   "put source dest",
	Short: "Copy a file to the targets",
	Long: `Copy a local file to all selected targets.

SSH targets receive the file via SFTP. Plaintext targets
receive it line by line via echo, which only works for
text files without quotes or command substitutions.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ops.Put(args[0], args[1], putFlags.options()...)
	},
}

func init() {
	putFlags.register(putCmd)
	rootCmd.AddCommand(putCmd)
}

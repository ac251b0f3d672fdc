package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicklasfrahm/ncexec/pkg/ops"
)

var farmsFlags targetFlags

var farmsCmd = &cobra.Command{
	Use:   "farms",
	Short: "List the farms hosting targets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		farms, err := ops.Farms(farmsFlags.options()...)
		if err != nil {
			return err
		}

		for _, farm := range farms {
			fmt.Fprintln(cmd.OutOrStdout(), farm)
		}
		return nil
	},
}

func init() {
	farmsCmd.Flags().StringVarP(&farmsFlags.config, "config", "c", "", "path to the target configuration")
	rootCmd.AddCommand(farmsCmd)
}

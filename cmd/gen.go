package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicklasfrahm/ncexec/pkg/addrgen"
)

var cidrStart string
var cidrCount int
var macBase string
var macCount int

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate addresses for sandboxes",
}

var genCIDRCmd = &cobra.Command{
	Use:   "cidr",
	Short: "Generate adjacent networks without overlap",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for i := 0; i < cidrCount; i++ {
			cidr, err := addrgen.NextCIDR(cidrStart)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cidr)
		}
		return nil
	},
}

var genMACCmd = &cobra.Command{
	Use:   "mac",
	Short: "Generate random MAC addresses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for i := 0; i < macCount; i++ {
			mac, err := addrgen.RandomMAC(macBase)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mac)
		}
		return nil
	},
}

func init() {
	genCIDRCmd.Flags().StringVar(&cidrStart, "start", "10.2.0.0/24", "first network")
	genCIDRCmd.Flags().IntVarP(&cidrCount, "count", "n", 1, "number of networks")
	genMACCmd.Flags().StringVar(&macBase, "base", "02:00:00:00", "first four octets")
	genMACCmd.Flags().IntVarP(&macCount, "count", "n", 1, "number of addresses")

	genCmd.AddCommand(genCIDRCmd, genMACCmd)
	rootCmd.AddCommand(genCmd)
}

package cmd

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nicklasfrahm/ncexec/pkg/peer"
)

var listenAddress string
var listenShell string

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Serve a shell to plaintext clients",
	Long: `Listen for plaintext connections and attach a shell to
each of them. Anyone who can reach the address can run
arbitrary commands, so only bind to trusted networks.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := peer.New(
			peer.WithLogger(&logger),
			peer.WithShell(listenShell),
		)
		if err != nil {
			return err
		}

		ln, err := net.Listen("tcp", listenAddress)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.Serve(ctx, ln)
	},
}

func init() {
	listenCmd.Flags().StringVarP(&listenAddress, "address", "a", ":8000", "address to listen on")
	listenCmd.Flags().StringVar(&listenShell, "shell", peer.DefaultShell(), "command interpreter to attach, its echo must support -e for uploads")
	rootCmd.AddCommand(listenCmd)
}

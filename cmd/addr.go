package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/port"
)

var addrCmd = &cobra.Command{
	Use:   "addr",
	Short: "Print a free listen address",
	Long: `Allocate a listen address the way the daemon does: the first IPv4 address
of --interface (or a random 127.0.0.0/8 host) with a port that could be
bound at the time of the call.`,
	Args: cobra.NoArgs,
	RunE: runAddr,
}

var (
	addrInterface string
	addrPort      int
)

func init() {
	addrCmd.Flags().StringVarP(&addrInterface, "interface", "i", "", "Network interface (default: from config, else an ephemeral loopback host)")
	addrCmd.Flags().IntVar(&addrPort, "port", 0, "Port to try first (default: from config, else random)")
	rootCmd.AddCommand(addrCmd)
}

func runAddr(cmd *cobra.Command, args []string) error {
	cfg := currentApp().Config.Daemon

	iface := cfg.Interface
	if cmd.Flags().Changed("interface") {
		iface = addrInterface
	}
	base := cfg.Port
	if cmd.Flags().Changed("port") {
		base = addrPort
	}

	addr, err := port.New().AllocateAddressFrom(iface, base)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), addr)
	return nil
}

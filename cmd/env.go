package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/env"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
)

var envCmd = &cobra.Command{
	Use:       "env daemon|client",
	Short:     "Print the environment variables set for the daemon or the client",
	Long:      "Print the variables layered over the inherited environment, as NAME=value lines quoted for a POSIX shell.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"daemon", "client"},
	RunE:      runEnv,
}

func init() {
	rootCmd.AddCommand(envCmd)
}

func runEnv(cmd *cobra.Command, args []string) error {
	a := currentApp()

	var (
		overlay *env.Overlay
		err     error
	)
	switch args[0] {
	case "daemon":
		composer, cerr := a.Composer()
		if cerr != nil {
			return cerr
		}
		overlay, err = composer.Daemon("")
	case "client":
		c, cerr := a.Client()
		if cerr != nil {
			return cerr
		}
		overlay = c.Overlay()
	default:
		return errors.ValidationError(fmt.Sprintf("unknown role %q (want daemon or client)", args[0]))
	}
	if err != nil {
		return err
	}

	for _, key := range overlay.Keys() {
		value, _ := overlay.Get(key)
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", env.Assignment(key, value))
	}
	return nil
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/injection"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the interception library clients will preload",
	Long: `Search the workspace binary directories for the interception library.
Exactly one copy must exist; none or several is an initialization error.`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	a := currentApp()
	if err := a.RequireWorkspace(); err != nil {
		return err
	}

	path, err := injection.Resolve(a.Workspace.BinDirs, a.Config.Client.InterceptLibrary)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

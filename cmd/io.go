package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/logging"
)

var ioCmd = &cobra.Command{
	Use:   "io <operation> [args...]",
	Short: "Run a client operation against the running daemon",
	Long: `Run the client executable with the interception library preloaded and
print its output. Known operations have their argument count checked
first; unknown operations are passed through.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIO,
}

var ioParsed bool

func init() {
	ioCmd.Flags().BoolVar(&ioParsed, "parsed", false, "Print retval and errno instead of raw output")
	ioCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(ioCmd)
}

func runIO(cmd *cobra.Command, args []string) error {
	c, err := currentApp().Client()
	if err != nil {
		return err
	}

	op := c.Op(args[0])
	if !op.Known() {
		logging.Debug("unknown client operation, passing through", "operation", op.Name())
	}

	res, err := op.Call(cmd.Context(), args[1:]...)
	if res == nil {
		return err
	}

	if out := res.IO(); ioParsed && out != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "retval=%d errno=%d\n", out.Retval, out.Errno)
		writeOutput(cmd.OutOrStdout(), cmd.ErrOrStderr(), "", res.Stderr)
	} else {
		writeOutput(cmd.OutOrStdout(), cmd.ErrOrStderr(), res.Stdout, res.Stderr)
	}
	if err != nil {
		logWarning("%v", err)
	}
	return exitStatus(op.Name(), res.ExitCode)
}

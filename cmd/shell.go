package cmd

import (
	"fmt"
	"time"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/shell"
)

var shCmd = &cobra.Command{
	Use:   "sh <script>",
	Short: "Run a shell script with the interception library preloaded",
	Args:  cobra.ExactArgs(1),
	RunE:  runSh,
}

var runCmd = &cobra.Command{
	Use:   "run <command> [args...]",
	Short: "Run a command through the shell with the interception library preloaded",
	Long: `Run a command through the shell. Arguments are quoted; the command itself
is passed as written. A single argument is split with shell quoting rules:

  fs-harness run 'ls -l /mnt/gkfs'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

var (
	shellNoIntercept bool
	shellTimeout     time.Duration
)

func init() {
	for _, c := range []*cobra.Command{shCmd, runCmd} {
		c.Flags().BoolVar(&shellNoIntercept, "no-intercept", false, "Run with the plain inherited environment")
		c.Flags().DurationVar(&shellTimeout, "timeout", 0, "Kill the command after this long (0: no limit)")
		c.Flags().SetInterspersed(false)
		rootCmd.AddCommand(c)
	}
}

func shellOptions() []shell.RunOption {
	return []shell.RunOption{
		shell.Intercept(!shellNoIntercept),
		shell.Timeout(shellTimeout),
	}
}

func runSh(cmd *cobra.Command, args []string) error {
	sh, err := currentApp().Shell()
	if err != nil {
		return err
	}

	res, err := sh.Script(cmd.Context(), args[0], shellOptions()...)
	if err != nil {
		return err
	}
	writeOutput(cmd.OutOrStdout(), cmd.ErrOrStderr(), res.Stdout, res.Stderr)
	return shellStatus("script", res)
}

func runRun(cmd *cobra.Command, args []string) error {
	words := args
	if len(args) == 1 {
		split, err := shellquote.Split(args[0])
		if err != nil {
			return errors.ValidationError("invalid command line: " + err.Error())
		}
		if len(split) == 0 {
			return errors.ValidationError("empty command")
		}
		words = split
	}

	sh, err := currentApp().Shell()
	if err != nil {
		return err
	}

	res, err := sh.Run(cmd.Context(), words[0], words[1:], shellOptions()...)
	if err != nil {
		return err
	}
	writeOutput(cmd.OutOrStdout(), cmd.ErrOrStderr(), res.Stdout, res.Stderr)
	return shellStatus(words[0], res)
}

func shellStatus(name string, res *shell.Command) error {
	if res.TimedOut {
		return errors.New(errors.ExitCommandExecution, fmt.Sprintf("%s timed out after %s", name, shellTimeout))
	}
	return exitStatus(name, res.ExitCode)
}

package cmd

import (
	"fmt"
	"io"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
)

// currentApp returns the application context commands run against.
func currentApp() *app.App {
	return app.Default
}

// exitStatus turns a nonzero exit code of a harnessed command into an error
// carrying the command-execution exit code.
func exitStatus(name string, code int) error {
	if code == 0 {
		return nil
	}
	return errors.New(errors.ExitCommandExecution, fmt.Sprintf("%s exited with status %d", name, code))
}

// writeOutput copies captured stdout and stderr to the command's streams.
func writeOutput(out, errOut io.Writer, stdout, stderr string) {
	if stdout != "" {
		fmt.Fprint(out, stdout)
	}
	if stderr != "" {
		fmt.Fprint(errOut, stderr)
	}
}

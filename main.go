package main

import (
	"os"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/cmd"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/system"
)

// ConfigEnvVar names a configuration file when --config is not given.
const ConfigEnvVar = "FSHARNESS_CONFIG"

var (
	verbose    bool
	jsonOutput bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "fs-harness",
	Short: "Process harness for file system daemon and client tests",
	Long: `fs-harness starts a file system daemon, waits until it is ready and runs
client operations or shell commands against it.

Each session uses a workspace with:
  - A backing root directory and a mount point
  - A log directory for daemon, client and harness event logs
  - A working directory holding the hosts file
  - Binary directories searched for the daemon, client and interception library`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbose, jsonOutput, cmd.ErrOrStderr())
		logging.SetUserOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
		return loadConfig()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (default $"+ConfigEnvVar+" or ./"+config.DefaultConfigFile+")")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig replaces the default application when a configuration file is
// named or present in the working directory. Without one the current
// default is kept.
func loadConfig() error {
	path := configPath
	if path == "" {
		path = os.Getenv(ConfigEnvVar)
	}
	if path == "" {
		if !system.DefaultFS().Exists(config.DefaultConfigFile) {
			return nil
		}
		path = config.DefaultConfigFile
	}

	cfg, err := config.Load(path)
	if err != nil {
		return errors.ConfigError("failed to load "+path, err)
	}
	logging.Debug("loaded configuration", "path", path)
	app.SetDefault(app.New(app.WithConfig(cfg)))
	return nil
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
)

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/system"
)

// Defaults matching the file-system binaries built alongside the harness.
const (
	DefaultDaemonExecutable  = "gkfs_daemon"
	DefaultClientExecutable  = "gkfs.io"
	DefaultInterceptLibrary  = "libgkfs_intercept.so"
	DefaultHostsFile         = "gkfs_hosts.txt"
	DefaultDaemonLogFile     = "gkfs_daemon.log"
	DefaultDaemonLogLevel    = "100"
	DefaultClientLogFile     = "gkfs_client.log"
	DefaultClientLogLevel    = "all"
	DefaultReadinessPattern  = "Startup successful. Daemon is ready."
	DefaultShellExecutable   = "bash"
	DefaultReadinessRetries  = 500
	DefaultReadinessMaxLines = 50
	DefaultGrace             = 100 * time.Millisecond
	DefaultBackoff           = 50 * time.Millisecond
	DefaultKillTimeout       = 10 * time.Second

	// DefaultConfigFile is looked up in the working directory when no
	// explicit path is given.
	DefaultConfigFile = "fs-harness.toml"
)

// Duration is a time.Duration that decodes from TOML strings like "50ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the harness configuration loaded from fs-harness.toml
type Config struct {
	Daemon    DaemonConfig    `toml:"daemon"`
	Client    ClientConfig    `toml:"client"`
	Shell     ShellConfig     `toml:"shell"`
	Workspace WorkspaceConfig `toml:"workspace"`
}

// DaemonConfig describes how the daemon is launched and probed
type DaemonConfig struct {
	Executable       string   `toml:"executable"`
	LogFile          string   `toml:"log_file"`
	LogLevel         string   `toml:"log_level"`
	ReadinessPattern string   `toml:"readiness_pattern"`
	Retries          int      `toml:"retries"`
	MaxLines         int      `toml:"max_lines"`
	Grace            Duration `toml:"grace"`
	Backoff          Duration `toml:"backoff"`
	KillTimeout      Duration `toml:"kill_timeout"`
	Interface        string   `toml:"interface"` // empty: ephemeral loopback host
	Port             int      `toml:"port"`      // 0: random
}

// ClientConfig describes the intercepted client processes
type ClientConfig struct {
	Executable       string `toml:"executable"`
	InterceptLibrary string `toml:"intercept_library"`
	LogFile          string `toml:"log_file"`
	LogLevel         string `toml:"log_level"`
}

// ShellConfig selects the shell used for scripts and commands
type ShellConfig struct {
	Executable string `toml:"executable"`
}

// WorkspaceConfig holds the directory layout of one test session
type WorkspaceConfig struct {
	Root      string   `toml:"root"`
	Mount     string   `toml:"mount"`
	Logs      string   `toml:"logs"`
	Work      string   `toml:"work"`
	HostsFile string   `toml:"hosts_file"`
	BinDirs   []string `toml:"bin_dirs"`
	LibDirs   []string `toml:"lib_dirs"`
}

// Default returns a Config populated with the default values
func Default() *Config {
	return &Config{
		Daemon: DaemonConfig{
			Executable:       DefaultDaemonExecutable,
			LogFile:          DefaultDaemonLogFile,
			LogLevel:         DefaultDaemonLogLevel,
			ReadinessPattern: DefaultReadinessPattern,
			Retries:          DefaultReadinessRetries,
			MaxLines:         DefaultReadinessMaxLines,
			Grace:            Duration{DefaultGrace},
			Backoff:          Duration{DefaultBackoff},
			KillTimeout:      Duration{DefaultKillTimeout},
		},
		Client: ClientConfig{
			Executable:       DefaultClientExecutable,
			InterceptLibrary: DefaultInterceptLibrary,
			LogFile:          DefaultClientLogFile,
			LogLevel:         DefaultClientLogLevel,
		},
		Shell: ShellConfig{
			Executable: DefaultShellExecutable,
		},
		Workspace: WorkspaceConfig{
			HostsFile: DefaultHostsFile,
		},
	}
}

// Validate checks that the Config is valid.
func (c *Config) Validate() error {
	if c.Daemon.Executable == "" {
		return fmt.Errorf("daemon.executable is required")
	}
	if c.Daemon.LogFile == "" {
		return fmt.Errorf("daemon.log_file is required")
	}
	if c.Daemon.ReadinessPattern == "" {
		return fmt.Errorf("daemon.readiness_pattern is required")
	}
	if c.Daemon.Retries <= 0 {
		return fmt.Errorf("daemon.retries must be positive (got %d)", c.Daemon.Retries)
	}
	if c.Daemon.MaxLines <= 0 {
		return fmt.Errorf("daemon.max_lines must be positive (got %d)", c.Daemon.MaxLines)
	}
	if c.Daemon.Grace.Duration < 0 || c.Daemon.Backoff.Duration < 0 || c.Daemon.KillTimeout.Duration < 0 {
		return fmt.Errorf("daemon durations must not be negative")
	}
	if c.Daemon.Port < 0 || c.Daemon.Port > 65535 {
		return fmt.Errorf("daemon.port must be between 0 and 65535 (got %d)", c.Daemon.Port)
	}
	if c.Client.Executable == "" {
		return fmt.Errorf("client.executable is required")
	}
	if c.Client.InterceptLibrary == "" {
		return fmt.Errorf("client.intercept_library is required")
	}
	if c.Client.LogFile == "" {
		return fmt.Errorf("client.log_file is required")
	}
	if c.Shell.Executable == "" {
		return fmt.Errorf("shell.executable is required")
	}
	if c.Workspace.HostsFile == "" {
		return fmt.Errorf("workspace.hosts_file is required")
	}
	return nil
}

// Parse decodes TOML data on top of the defaults
func Parse(data string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load loads the configuration file at path. A missing file yields the
// defaults so the harness runs without any configuration.
func Load(path string) (*Config, error) {
	return LoadFS(system.DefaultFS(), path)
}

// LoadFS is Load reading through fsys.
func LoadFS(fsys system.FileSystem, path string) (*Config, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(string(data))
}

package env

import (
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/workspace"
)

// Variables shared by the daemon and the client.
const (
	LibraryPath = "LD_LIBRARY_PATH"
)

// Daemon variables.
const (
	DaemonHostsFile = "GKFS_HOSTS_FILE"
	DaemonLogPath   = "GKFS_DAEMON_LOG_PATH"
	DaemonLogLevel  = "GKFS_LOG_LEVEL"
)

// Client and intercepted shell variables.
const (
	Preload         = "LD_PRELOAD"
	ClientHostsFile = "LIBGKFS_HOSTS_FILE"
	ClientLogLevel  = "LIBGKFS_LOG"
	ClientLogOutput = "LIBGKFS_LOG_OUTPUT"
)

// Composer builds per-role overlays for one workspace.
type Composer struct {
	ws        *workspace.Workspace
	cfg       *config.Config
	inherited []string
}

// NewComposer creates a Composer. inherited is the environment spawned
// processes start from, usually a single os.Environ() snapshot.
func NewComposer(ws *workspace.Workspace, cfg *config.Config, inherited []string) *Composer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Composer{
		ws:        ws,
		cfg:       cfg,
		inherited: append([]string(nil), inherited...),
	}
}

// Inherited returns a copy of the inherited environment.
func (c *Composer) Inherited() []string {
	return append([]string(nil), c.inherited...)
}

// LibrarySearchPath returns the inherited library path followed by every
// workspace library directory. A non-empty inherited value is kept verbatim,
// including empty segments, which ld.so reads as the current directory.
func (c *Composer) LibrarySearchPath() string {
	var dirs []string
	if inherited, ok := Lookup(c.inherited, LibraryPath); ok && inherited != "" {
		dirs = append(dirs, inherited)
	}
	for _, d := range c.ws.LibDirs {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return strings.Join(dirs, ":")
}

// Daemon returns the overlay for a daemon listening on address.
func (c *Composer) Daemon(address string) (*Overlay, error) {
	hosts, err := c.ws.HostsFilePath()
	if err != nil {
		return nil, errors.ConfigError("invalid hosts file", err)
	}
	logPath, err := c.ws.LogPath(c.cfg.Daemon.LogFile)
	if err != nil {
		return nil, errors.ConfigError("invalid daemon log file", err)
	}

	o := NewOverlay()
	o.Set(LibraryPath, c.LibrarySearchPath())
	o.Set(DaemonHostsFile, hosts)
	o.Set(DaemonLogPath, logPath)
	o.Set(DaemonLogLevel, c.cfg.Daemon.LogLevel)

	logging.Debug("composed daemon environment", "address", address, "overlay", o.String())
	return o, nil
}

// Client returns the overlay for a client or intercepted shell that loads
// the preload library.
func (c *Composer) Client(preload string) (*Overlay, error) {
	hosts, err := c.ws.HostsFilePath()
	if err != nil {
		return nil, errors.ConfigError("invalid hosts file", err)
	}
	logPath, err := c.ws.LogPath(c.cfg.Client.LogFile)
	if err != nil {
		return nil, errors.ConfigError("invalid client log file", err)
	}

	o := NewOverlay()
	o.Set(LibraryPath, c.LibrarySearchPath())
	o.Set(Preload, preload)
	o.Set(ClientHostsFile, hosts)
	o.Set(ClientLogLevel, c.cfg.Client.LogLevel)
	o.Set(ClientLogOutput, logPath)

	logging.Debug("composed client environment", "overlay", o.String())
	return o, nil
}

// Package daemon starts a file-system daemon and waits until it serves
// requests.
package daemon

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/env"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/port"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/process"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/workspace"
)

// Daemon launches daemon instances for one workspace.
type Daemon struct {
	ws       *workspace.Workspace
	cfg      *config.Config
	composer *env.Composer

	allocator  *port.Allocator
	supervisor *process.Supervisor
	monitor    *health.Monitor
	events     *audit.Logger
	output     io.Writer
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithAllocator sets the address allocator.
func WithAllocator(a *port.Allocator) Option {
	return func(d *Daemon) {
		d.allocator = a
	}
}

// WithSupervisor sets the process supervisor.
func WithSupervisor(s *process.Supervisor) Option {
	return func(d *Daemon) {
		d.supervisor = s
	}
}

// WithMonitor sets the readiness monitor.
func WithMonitor(m *health.Monitor) Option {
	return func(d *Daemon) {
		d.monitor = m
	}
}

// WithEvents records lifecycle events in the given audit log.
func WithEvents(l *audit.Logger) Option {
	return func(d *Daemon) {
		d.events = l
	}
}

// WithOutput sends the daemon's stdout and stderr to w.
func WithOutput(w io.Writer) Option {
	return func(d *Daemon) {
		d.output = w
	}
}

// New creates a Daemon. Components not set through options are built from cfg.
func New(ws *workspace.Workspace, cfg *config.Config, composer *env.Composer, opts ...Option) *Daemon {
	if cfg == nil {
		cfg = config.Default()
	}
	d := &Daemon{
		ws:       ws,
		cfg:      cfg,
		composer: composer,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.allocator == nil {
		d.allocator = port.New()
	}
	if d.supervisor == nil {
		d.supervisor = process.NewSupervisor(cfg.Daemon.KillTimeout.Duration)
	}
	if d.monitor == nil {
		d.monitor = health.NewMonitor(cfg.Daemon.Grace.Duration, cfg.Daemon.Backoff.Duration)
	}
	return d
}

// Start allocates an address, spawns the daemon and waits for readiness.
// When readiness fails the process is terminated and the failed instance is
// returned along with the error.
func (d *Daemon) Start(ctx context.Context) (*Instance, error) {
	address, err := d.allocator.AllocateAddressFrom(d.cfg.Daemon.Interface, d.cfg.Daemon.Port)
	if err != nil {
		return nil, err
	}

	overlay, err := d.composer.Daemon(address)
	if err != nil {
		return nil, err
	}

	exe, err := d.ws.LookPath(d.cfg.Daemon.Executable)
	if err != nil {
		return nil, errors.CommandExecution(d.cfg.Daemon.Executable, err)
	}

	logPath, err := d.ws.LogPath(d.cfg.Daemon.LogFile)
	if err != nil {
		return nil, errors.ConfigError("invalid daemon log file", err)
	}
	// A log left by an earlier instance would satisfy the readiness probe.
	if err := os.Remove(logPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove stale daemon log: %w", err)
	}

	handle, err := d.supervisor.Spawn(process.Spec{
		Path: exe,
		Args: []string{
			"--mountdir", d.ws.MountDir,
			"--rootdir", d.ws.RootDir,
			"-l", address,
		},
		Env:    overlay.Environ(d.composer.Inherited()),
		Dir:    d.ws.WorkDir,
		Stdout: d.output,
		Stderr: d.output,
	})
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		ID:         uuid.New(),
		Address:    address,
		LogPath:    logPath,
		Overlay:    overlay,
		handle:     handle,
		lifecycle:  health.NewLifecycle(),
		supervisor: d.supervisor,
		events:     d.events,
	}
	inst.lifecycle.OnTransition(inst.record)
	inst.logEvent(audit.EventSpawn, fmt.Sprintf("address=%s executable=%s", address, exe))

	log := logging.With("instance", inst.ID.String(), "pid", handle.PID())
	log.Debug("daemon spawned", "address", address)

	res, err := d.monitor.WaitUntilActive(ctx, inst.lifecycle, handle, health.WaitOptions{
		LogPath:  logPath,
		Pattern:  d.cfg.Daemon.ReadinessPattern,
		Retries:  d.cfg.Daemon.Retries,
		MaxLines: d.cfg.Daemon.MaxLines,
	})
	if res != nil {
		inst.Probes = res.Probes
	}
	if err != nil {
		if terr := d.supervisor.Terminate(handle); terr != nil {
			log.Warn("failed to stop daemon after readiness failure", "error", terr)
		}
		return inst, err
	}

	log.Info("daemon ready", "address", address, "probes", inst.Probes)
	return inst, nil
}

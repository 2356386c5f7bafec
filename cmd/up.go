package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/daemon"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/monitor"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/tui"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the daemon and wait until it is ready",
	Long: `Start the daemon on a fresh address, wait until its log reports readiness
and keep it running until interrupted.

With --once the daemon is stopped as soon as it is ready.`,
	Args: cobra.NoArgs,
	RunE: runUp,
}

var (
	upProgress bool
	upOnce     bool
	upInterval time.Duration
)

func init() {
	upCmd.Flags().BoolVarP(&upProgress, "progress", "p", false, "Show readiness progress in the terminal")
	upCmd.Flags().BoolVar(&upOnce, "once", false, "Stop the daemon once it is ready")
	upCmd.Flags().DurationVar(&upInterval, "check-interval", time.Second, "How often to check that the daemon is still running")
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, args []string) error {
	a := currentApp()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		inst *daemon.Instance
		err  error
	)
	if upProgress {
		inst, err = startWithProgress(ctx, cmd, a)
	} else {
		var d *daemon.Daemon
		d, err = a.Daemon(daemon.WithOutput(cmd.ErrOrStderr()))
		if err == nil {
			inst, err = d.Start(ctx)
		}
	}
	if err != nil {
		return err
	}

	logSuccess("%s ready at %s (pid %d, %d probes)", a.Config.Daemon.Executable, inst.Address, inst.PID(), inst.Probes)
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", inst.Address)

	if !upOnce {
		logInfo("Press ctrl+c to stop")
		m := monitor.New(upInterval, []*daemon.Instance{inst}, monitor.WithAuditLogger(a.Events))
		if err := m.Run(ctx); err != nil && ctx.Err() == nil {
			if serr := inst.Shutdown(); serr != nil {
				logging.Debug("shutdown after crash failed", "error", serr)
			}
			return err
		}
	}

	if err := inst.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	logging.Debug("daemon stopped", "instance", inst.ID.String())
	return nil
}

// startWithProgress starts the daemon while rendering each readiness probe.
func startWithProgress(ctx context.Context, cmd *cobra.Command, a *app.App) (*daemon.Instance, error) {
	cfg := a.Config.Daemon

	var inst *daemon.Instance
	res, err := tui.RunProgress(ctx, "starting "+cfg.Executable,
		func(ctx context.Context, onProbe func(health.Probe)) tui.DoneMsg {
			monitor := health.NewMonitor(cfg.Grace.Duration, cfg.Backoff.Duration, health.WithProbeHook(onProbe))
			d, err := a.Daemon(daemon.WithMonitor(monitor))
			if err != nil {
				return tui.DoneMsg{Err: err}
			}
			started, err := d.Start(ctx)
			inst = started
			msg := tui.DoneMsg{Err: err}
			if started != nil {
				msg.Address, msg.Probes = started.Address, started.Probes
			}
			return msg
		},
		tea.WithOutput(cmd.ErrOrStderr()), tea.WithContext(ctx))
	if err != nil {
		logWarning("%v", err)
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if inst == nil {
		return nil, errors.New(errors.ExitGeneralError, "daemon startup was interrupted")
	}
	return inst, nil
}

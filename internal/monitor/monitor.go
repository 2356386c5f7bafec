// Package monitor watches ready daemons in the background and reports those
// that exit without being shut down.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/daemon"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/logging"
)

// CheckResult holds the result of a single daemon check.
type CheckResult struct {
	Instance string
	PID      int
	State    health.State
	Crashed  bool
}

// Monitor periodically checks a set of daemon instances.
type Monitor struct {
	interval  time.Duration
	instances []*daemon.Instance
	auditLog  *audit.Logger
	onCrash   func(*daemon.Instance)
	reported  map[string]bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithAuditLogger sets the audit logger for recording crashes.
func WithAuditLogger(logger *audit.Logger) Option {
	return func(m *Monitor) {
		m.auditLog = logger
	}
}

// WithCrashHandler is called once for every instance found crashed.
func WithCrashHandler(fn func(*daemon.Instance)) Option {
	return func(m *Monitor) {
		m.onCrash = fn
	}
}

// New creates a new Monitor.
func New(interval time.Duration, instances []*daemon.Instance, opts ...Option) *Monitor {
	m := &Monitor{
		interval:  interval,
		instances: instances,
		reported:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts the monitoring loop. It blocks until the context is cancelled,
// returning ctx.Err(), or until a watched daemon crashes, returning a
// process crash error.
func (m *Monitor) Run(ctx context.Context) error {
	logging.Debug("starting daemon monitor", "interval", m.interval, "instances", len(m.instances))

	// Run an immediate check, then loop on interval.
	if err := crashError(m.checkAll(ctx)); err != nil {
		return err
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug("daemon monitor stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := crashError(m.checkAll(ctx)); err != nil {
				return err
			}
		}
	}
}

func crashError(results []CheckResult) error {
	for _, r := range results {
		if r.Crashed {
			return errors.New(errors.ExitProcessCrash, fmt.Sprintf("daemon process %d exited unexpectedly", r.PID))
		}
	}
	return nil
}

// checkAll checks every watched instance. Terminated instances are skipped.
func (m *Monitor) checkAll(ctx context.Context) []CheckResult {
	var results []CheckResult
	for _, inst := range m.instances {
		if ctx.Err() != nil {
			break
		}
		if inst.State() == health.StateTerminated {
			continue
		}

		id := inst.ID.String()
		result := CheckResult{
			Instance: id,
			PID:      inst.PID(),
			State:    inst.State(),
			Crashed:  inst.Crashed(),
		}
		results = append(results, result)

		if !result.Crashed || m.reported[id] {
			continue
		}
		m.reported[id] = true

		logging.Warn("daemon exited unexpectedly", "instance", id, "pid", result.PID, "address", inst.Address)
		if m.auditLog != nil {
			err := m.auditLog.Log(audit.Event{
				Type:     audit.EventError,
				Instance: id,
				PID:      result.PID,
				Address:  inst.Address,
				Details:  "daemon exited unexpectedly",
			})
			if err != nil {
				logging.Warn("failed to record crash event", "error", err)
			}
		}
		if m.onCrash != nil {
			m.onCrash(inst)
		}
	}

	return results
}

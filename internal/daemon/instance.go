package daemon

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/env"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/process"
)

// Instance is one daemon lifecycle. It is never reused once terminated.
type Instance struct {
	ID      uuid.UUID
	Address string
	LogPath string
	Overlay *env.Overlay

	// Probes is the number of readiness probes Start needed
	Probes int

	handle     *process.Handle
	lifecycle  *health.Lifecycle
	supervisor *process.Supervisor
	events     *audit.Logger
	stopping   atomic.Bool
}

// PID returns the daemon process ID.
func (i *Instance) PID() int {
	return i.handle.PID()
}

// State returns the lifecycle state.
func (i *Instance) State() health.State {
	return i.lifecycle.State()
}

// Ready reports whether the daemon reached the ready state and has not been
// shut down.
func (i *Instance) Ready() bool {
	return i.State() == health.StateReady
}

// Done is closed when the daemon process exits.
func (i *Instance) Done() <-chan struct{} {
	return i.handle.Done()
}

// Crashed reports whether the process exited without Shutdown being called.
func (i *Instance) Crashed() bool {
	select {
	case <-i.handle.Done():
		return !i.stopping.Load()
	default:
		return false
	}
}

// History returns the lifecycle transitions of the instance.
func (i *Instance) History() []health.Transition {
	return i.lifecycle.History()
}

// Shutdown terminates the daemon and marks the instance terminated.
// Calling it again is a no-op.
func (i *Instance) Shutdown() error {
	if i.State() == health.StateTerminated {
		return nil
	}

	i.stopping.Store(true)
	logging.Debug("shutting down daemon", "instance", i.ID.String(), "pid", i.PID())
	if err := i.supervisor.Terminate(i.handle); err != nil {
		return err
	}
	return i.lifecycle.Terminate()
}

func (i *Instance) record(t health.Transition) {
	var eventType audit.EventType
	switch t.To {
	case health.StateReady:
		eventType = audit.EventReady
	case health.StateFailed:
		eventType = audit.EventFailed
	case health.StateTerminated:
		eventType = audit.EventTerminate
	default:
		return
	}
	i.logEvent(eventType, fmt.Sprintf("%s -> %s", t.From, t.To))
}

func (i *Instance) logEvent(eventType audit.EventType, details string) {
	if i.events == nil {
		return
	}
	err := i.events.Log(audit.Event{
		Type:     eventType,
		Instance: i.ID.String(),
		PID:      i.PID(),
		Address:  i.Address,
		Details:  details,
	})
	if err != nil {
		logging.Warn("failed to record daemon event", "type", eventType, "error", err)
	}
}

package monitor

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/daemon"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/testutil"
)

func startInstance(t *testing.T, te *testutil.TestEnv, events *audit.Logger) *daemon.Instance {
	t.Helper()

	d := daemon.New(te.Workspace, te.Config, te.Composer(), daemon.WithEvents(events))
	inst, err := d.Start(context.Background())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { inst.Shutdown() })
	return inst
}

func TestMonitor_New(t *testing.T) {
	m := New(30*time.Second, nil)
	if m.interval != 30*time.Second {
		t.Errorf("interval = %v, want %v", m.interval, 30*time.Second)
	}
	if m.auditLog != nil {
		t.Error("auditLog should default to nil")
	}
	if m.onCrash != nil {
		t.Error("onCrash should default to nil")
	}
}

func TestMonitor_CheckAllEmpty(t *testing.T) {
	m := New(time.Second, nil)

	results := m.checkAll(context.Background())
	if len(results) != 0 {
		t.Errorf("checkAll() returned %d results, want 0", len(results))
	}
}

func TestMonitor_HealthyAndShutdown(t *testing.T) {
	te := testutil.NewTestEnv(t)
	inst := startInstance(t, te, nil)

	m := New(time.Second, []*daemon.Instance{inst})

	results := m.checkAll(context.Background())
	if len(results) != 1 {
		t.Fatalf("checkAll() returned %d results, want 1", len(results))
	}
	if results[0].Crashed {
		t.Error("running daemon reported as crashed")
	}
	if results[0].PID != inst.PID() {
		t.Errorf("PID = %d, want %d", results[0].PID, inst.PID())
	}

	if err := inst.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if results := m.checkAll(context.Background()); len(results) != 0 {
		t.Errorf("terminated instance should be skipped, got %+v", results)
	}
}

func TestMonitor_RunDetectsCrash(t *testing.T) {
	te := testutil.NewTestEnv(t)
	events := audit.NewLogger(te.Workspace.LogDir)
	inst := startInstance(t, te, events)

	crashed := 0
	m := New(20*time.Millisecond, []*daemon.Instance{inst},
		WithAuditLogger(events),
		WithCrashHandler(func(*daemon.Instance) { crashed++ }),
	)

	if err := syscall.Kill(inst.PID(), syscall.SIGKILL); err != nil {
		t.Fatalf("kill failed: %v", err)
	}
	<-inst.Done()

	done := make(chan error, 1)
	go func() {
		done <- m.Run(context.Background())
	}()

	select {
	case err := <-done:
		if !errors.HasCode(err, errors.ExitProcessCrash) {
			t.Errorf("Run() error = %v, want process crash", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not report the crash")
	}

	if crashed != 1 {
		t.Errorf("crash handler called %d times, want 1", crashed)
	}

	got, err := events.InstanceEvents(inst.ID.String())
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if last := got[len(got)-1]; last.Type != audit.EventError {
		t.Errorf("last event = %s, want error", last.Type)
	}
}

func TestMonitor_RunCancellation(t *testing.T) {
	te := testutil.NewTestEnv(t)
	inst := startInstance(t, te, nil)

	m := New(100*time.Millisecond, []*daemon.Instance{inst})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx)
	}()

	// Let it run briefly then cancel
	time.Sleep(250 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after context cancellation")
	}
}

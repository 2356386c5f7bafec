package process

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
)

func bashSpec(script string) Spec {
	return Spec{Path: "bash", Args: []string{"-c", script}, Env: os.Environ()}
}

func TestSpawn_DoesNotBlock(t *testing.T) {
	s := NewSupervisor(0)

	start := time.Now()
	h, err := s.Spawn(bashSpec("exec sleep 5"))
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	defer s.Terminate(h)

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Spawn took %v, should return immediately", elapsed)
	}
	if h.PID() <= 0 {
		t.Errorf("PID = %d, want positive", h.PID())
	}
	if !h.Alive() {
		t.Error("process should be alive right after spawn")
	}
	if h.State() != nil {
		t.Error("State should be nil while running")
	}
}

func TestSpawn_MissingExecutable(t *testing.T) {
	s := NewSupervisor(0)

	_, err := s.Spawn(Spec{Path: filepath.Join(t.TempDir(), "gkfs_daemon")})
	if err == nil {
		t.Fatal("expected error for missing executable")
	}
	if !errors.HasCode(err, errors.ExitCommandExecution) {
		t.Errorf("error code = %d, want %d", errors.GetExitCode(err), errors.ExitCommandExecution)
	}
}

func TestSpawn_WorkingDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	s := NewSupervisor(0)

	spec := bashSpec(`printf '%s' "$FSH_MARKER" > marker`)
	spec.Env = append(spec.Env, "FSH_MARKER=hello")
	spec.Dir = dir

	h, err := s.Spawn(spec)
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if err := h.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "marker"))
	if err != nil {
		t.Fatalf("marker not written in working dir: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("marker = %q, want hello", data)
	}
	if h.Alive() {
		t.Error("process should not be alive after Wait")
	}
	if h.State() == nil || h.State().ExitCode() != 0 {
		t.Errorf("State = %v, want exit 0", h.State())
	}
}

func TestTerminate(t *testing.T) {
	s := NewSupervisor(0)

	h, err := s.Spawn(bashSpec("exec sleep 30"))
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	if err := s.Terminate(h); err != nil {
		t.Fatalf("Terminate failed: %v", err)
	}
	if h.Alive() {
		t.Error("process should be gone after Terminate")
	}

	status := h.State().Sys().(syscall.WaitStatus)
	if !status.Signaled() || status.Signal() != syscall.SIGTERM {
		t.Errorf("wait status = %v, want killed by SIGTERM", status)
	}
}

func TestTerminate_AlreadyExited(t *testing.T) {
	s := NewSupervisor(0)

	h, err := s.Spawn(bashSpec("exit 0"))
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	<-h.Done()

	if err := s.Terminate(h); err != nil {
		t.Errorf("Terminate on exited process should be a no-op, got %v", err)
	}
	if err := s.Terminate(h); err != nil {
		t.Errorf("second Terminate should be a no-op, got %v", err)
	}
}

func TestTerminate_EscalatesToKill(t *testing.T) {
	s := NewSupervisor(200 * time.Millisecond)

	h, err := s.Spawn(bashSpec("trap '' TERM; exec sleep 30"))
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	// Give bash time to install the trap before signalling.
	time.Sleep(100 * time.Millisecond)

	if err := s.Terminate(h); err != nil {
		t.Fatalf("Terminate failed: %v", err)
	}

	status := h.State().Sys().(syscall.WaitStatus)
	if !status.Signaled() || status.Signal() != syscall.SIGKILL {
		t.Errorf("wait status = %v, want killed by SIGKILL", status)
	}
}

func TestSpec_CommandLine(t *testing.T) {
	spec := Spec{Path: "gkfs_daemon", Args: []string{"--mountdir", "/tmp/my mnt", "-l", "127.0.0.1:4000"}}

	got := spec.CommandLine()
	if !strings.HasPrefix(got, "gkfs_daemon --mountdir ") || !strings.Contains(got, "'/tmp/my mnt'") {
		t.Errorf("CommandLine() = %q", got)
	}
}

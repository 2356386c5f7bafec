package process

import (
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/kballard/go-shellquote"
	"golang.org/x/sys/unix"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/logging"
)

// Spec describes a background process.
type Spec struct {
	// Path is the executable to run
	Path string

	// Args are passed after the executable name
	Args []string

	// Env is the complete environment of the process
	Env []string

	// Dir is the working directory
	Dir string

	// Stdout and Stderr receive the process output; nil discards it
	Stdout io.Writer
	Stderr io.Writer
}

// CommandLine renders the spec as a quoted shell command line.
func (s Spec) CommandLine() string {
	return shellquote.Join(append([]string{s.Path}, s.Args...)...)
}

// Process is anything with a PID whose liveness can be queried.
type Process interface {
	PID() int
	Alive() bool
}

// Handle is a spawned background process.
type Handle struct {
	cmd  *exec.Cmd
	pid  int
	done chan struct{}
	err  error
}

// PID returns the OS process identifier.
func (h *Handle) PID() int {
	return h.pid
}

// Done is closed once the process has exited and been reaped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Alive reports whether the process has not exited yet.
func (h *Handle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the process exits and returns the error from
// exec.Cmd.Wait (an *exec.ExitError for a nonzero status or a signal).
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// State returns the exit state, or nil while the process is running.
func (h *Handle) State() *os.ProcessState {
	select {
	case <-h.done:
		return h.cmd.ProcessState
	default:
		return nil
	}
}

// Supervisor starts and stops background processes.
type Supervisor struct {
	// KillTimeout is how long Terminate waits after SIGTERM before sending
	// SIGKILL. Zero waits indefinitely.
	KillTimeout time.Duration
}

// NewSupervisor creates a Supervisor with the given kill timeout.
func NewSupervisor(killTimeout time.Duration) *Supervisor {
	return &Supervisor{KillTimeout: killTimeout}
}

// Spawn starts the process and returns without waiting for it.
func (s *Supervisor) Spawn(spec Spec) (*Handle, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Env = spec.Env
	cmd.Dir = spec.Dir
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr

	logging.Debug("spawning process", "cmdline", spec.CommandLine(), "dir", spec.Dir)

	if err := cmd.Start(); err != nil {
		return nil, errors.CommandExecution(spec.Path, err)
	}

	h := &Handle{
		cmd:  cmd,
		pid:  cmd.Process.Pid,
		done: make(chan struct{}),
	}
	go func() {
		h.err = cmd.Wait()
		close(h.done)
	}()

	logging.Debug("process spawned", "pid", h.pid)
	return h, nil
}

// Terminate asks the process to exit with SIGTERM and blocks until it has.
// A process that is already gone is not an error.
func (s *Supervisor) Terminate(h *Handle) error {
	if !h.Alive() {
		return nil
	}

	logging.Debug("terminating process", "pid", h.pid)
	if err := h.cmd.Process.Signal(unix.SIGTERM); err != nil {
		if stderrors.Is(err, os.ErrProcessDone) {
			<-h.done
			return nil
		}
		return errors.Wrap(errors.ExitGeneralError, "failed to signal process", err)
	}

	if s.KillTimeout <= 0 {
		<-h.done
		return nil
	}

	timer := time.NewTimer(s.KillTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		return nil
	case <-timer.C:
	}

	logging.Warn("process ignored SIGTERM, killing", "pid", h.pid, "after", s.KillTimeout)
	if err := h.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return errors.Wrap(errors.ExitGeneralError, "failed to kill process", err)
	}
	<-h.done
	return nil
}

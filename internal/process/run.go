package process

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"
	"golang.org/x/sys/unix"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/logging"
)

// DefaultWaitDelay bounds how long Run waits for output pipes to close after
// the process was signalled; children that inherited the pipes are killed
// with the process once it elapses.
const DefaultWaitDelay = 2 * time.Second

// RunSpec describes a foreground command.
type RunSpec struct {
	Path  string
	Args  []string
	Env   []string
	Dir   string
	Stdin io.Reader

	// Timeout is the wall-clock limit; zero means none
	Timeout time.Duration

	// TimeoutSignal is delivered when Timeout elapses; zero means SIGKILL
	TimeoutSignal syscall.Signal
}

// Result is the outcome of a foreground command.
type Result struct {
	// ExitCode is the process exit status, or -1 when a signal killed it
	ExitCode int
	Stdout   string
	Stderr   string

	// Signaled is set when the process was terminated by Signal
	Signaled bool
	Signal   syscall.Signal

	// TimedOut is set when Timeout elapsed before the process exited
	TimedOut bool
	Duration time.Duration
}

// Success reports a zero exit status.
func (r *Result) Success() bool {
	return r.ExitCode == 0 && !r.Signaled
}

// Run executes spec and waits for it. Every exit status is returned as a
// Result; the error is non-nil only when the process could not be started.
func Run(ctx context.Context, spec RunSpec) (*Result, error) {
	runCtx := ctx
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	sig := spec.TimeoutSignal
	if sig == 0 {
		sig = unix.SIGKILL
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, spec.Path, spec.Args...)
	cmd.Env = spec.Env
	cmd.Dir = spec.Dir
	cmd.Stdin = spec.Stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Cancel = func() error {
		logging.Debug("delivering timeout signal", "pid", cmd.Process.Pid, "signal", unix.SignalName(sig))
		return cmd.Process.Signal(sig)
	}
	cmd.WaitDelay = DefaultWaitDelay

	logging.Debug("running command",
		"cmdline", shellquote.Join(append([]string{spec.Path}, spec.Args...)...),
		"timeout", spec.Timeout,
		"timeout_signal", unix.SignalName(sig))

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if cmd.ProcessState == nil {
		return nil, errors.CommandExecution(spec.Path, err)
	}
	var exitErr *exec.ExitError
	if err != nil && !stderrors.As(err, &exitErr) {
		logging.Debug("command finished with wait error", "error", err)
	}

	res := &Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		TimedOut: spec.Timeout > 0 && elapsed >= spec.Timeout && stderrors.Is(runCtx.Err(), context.DeadlineExceeded),
		Duration: elapsed,
	}
	if status, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		res.Signaled = true
		res.Signal = status.Signal()
	}

	logging.Debug("command finished", "exit_code", res.ExitCode, "signaled", res.Signaled, "timed_out", res.TimedOut)
	return res, nil
}

package health

import (
	"bufio"
	"context"
	stderrors "errors"
	"io/fs"
	"strings"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/process"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/system"
)

// Probe outcomes reported to progress hooks.
const (
	OutcomeLogMissing = "log-missing"
	OutcomeNoMatch    = "no-match"
	OutcomeReady      = "ready"
	OutcomeCrashed    = "crashed"
)

// Probe describes one readiness check.
type Probe struct {
	N       int
	Retries int
	Outcome string
}

// WaitOptions configures a readiness wait.
type WaitOptions struct {
	// LogPath is the daemon log to scan
	LogPath string

	// Pattern is the literal readiness message
	Pattern string

	// Retries bounds the number of probes
	Retries int

	// MaxLines bounds how many lines of the log each probe reads
	MaxLines int
}

// Result reports how a wait ended.
type Result struct {
	State  State
	Probes int

	// Line is the 1-based log line holding the readiness message
	Line int
}

// Sleeper pauses between probes. It returns early with ctx.Err() when the
// context is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Monitor polls daemon logs for readiness.
type Monitor struct {
	// Grace is slept once before the first probe
	Grace time.Duration

	// Backoff is slept after every probe that did not find the message
	Backoff time.Duration

	fs      system.FileSystem
	procs   system.ProcessTable
	sleep   Sleeper
	onProbe func(Probe)
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithFileSystem sets the file system logs are read from.
func WithFileSystem(fsys system.FileSystem) Option {
	return func(m *Monitor) {
		m.fs = fsys
	}
}

// WithProcessTable sets the table consulted when the daemon log is missing.
func WithProcessTable(pt system.ProcessTable) Option {
	return func(m *Monitor) {
		m.procs = pt
	}
}

// WithSleeper replaces the real-time sleep between probes.
func WithSleeper(s Sleeper) Option {
	return func(m *Monitor) {
		m.sleep = s
	}
}

// WithProbeHook registers fn to be called after every probe.
func WithProbeHook(fn func(Probe)) Option {
	return func(m *Monitor) {
		m.onProbe = fn
	}
}

// NewMonitor creates a Monitor.
func NewMonitor(grace, backoff time.Duration, opts ...Option) *Monitor {
	m := &Monitor{
		Grace:   grace,
		Backoff: backoff,
		fs:      system.DefaultFS(),
		procs:   system.DefaultProcesses(),
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WaitUntilActive blocks until proc logs the readiness message, dies before
// creating its log, or exhausts the probe budget. lc ends in StateReady on
// success and StateFailed otherwise.
func (m *Monitor) WaitUntilActive(ctx context.Context, lc *Lifecycle, proc process.Process, opts WaitOptions) (*Result, error) {
	if opts.Retries <= 0 || opts.MaxLines <= 0 {
		return nil, errors.ValidationError("readiness wait needs positive retries and max lines")
	}

	log := logging.With("pid", proc.PID(), "log", opts.LogPath)
	res := &Result{}

	fail := func(err error) (*Result, error) {
		if terr := lc.markFailed(); terr != nil {
			return nil, terr
		}
		res.State = StateFailed
		return res, err
	}

	if err := m.sleep(ctx, m.Grace); err != nil {
		return fail(errors.Wrap(errors.ExitReadinessTimeout, "readiness wait cancelled", err))
	}

	for res.Probes < opts.Retries {
		res.Probes++

		line, err := m.scan(opts.LogPath, opts.Pattern, opts.MaxLines)
		switch {
		case err != nil && !stderrors.Is(err, fs.ErrNotExist):
			log.Error("cannot read daemon log", "probe", res.Probes, "error", err)
			return fail(errors.Wrap(errors.ExitGeneralError, "failed to read daemon log "+opts.LogPath, err))

		case err != nil:
			if !m.alive(proc) {
				m.report(res.Probes, opts.Retries, OutcomeCrashed)
				log.Error("daemon process is not running", "probe", res.Probes)
				return fail(errors.ProcessCrash(proc.PID(), opts.LogPath))
			}
			log.Debug("daemon log missing, process alive", "probe", res.Probes)
			m.report(res.Probes, opts.Retries, OutcomeLogMissing)

		case line > 0:
			m.report(res.Probes, opts.Retries, OutcomeReady)
			if terr := lc.markReady(); terr != nil {
				return nil, terr
			}
			log.Debug("daemon ready", "probe", res.Probes, "line", line)
			res.State = StateReady
			res.Line = line
			return res, nil

		default:
			m.report(res.Probes, opts.Retries, OutcomeNoMatch)
		}

		if res.Probes == opts.Retries {
			break
		}
		if err := m.sleep(ctx, m.Backoff); err != nil {
			return fail(errors.Wrap(errors.ExitReadinessTimeout, "readiness wait cancelled", err))
		}
	}

	log.Error("daemon never became ready", "probes", res.Probes)
	return fail(errors.ReadinessTimeout(proc.PID(), opts.Retries))
}

// alive reports whether proc is still running. A handle that has already
// reaped its child answers alone; otherwise the process table decides.
func (m *Monitor) alive(proc process.Process) bool {
	return proc.Alive() && m.procs.Alive(proc.PID())
}

// scan returns the 1-based line number of the first of the first maxLines
// lines containing pattern, or 0. An error means the log could not be opened.
func (m *Monitor) scan(path, pattern string, maxLines int) (int, error) {
	f, err := m.fs.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; n <= maxLines && scanner.Scan(); n++ {
		if strings.Contains(scanner.Text(), pattern) {
			return n, nil
		}
	}
	return 0, nil
}

func (m *Monitor) report(n, retries int, outcome string) {
	if m.onProbe != nil {
		m.onProbe(Probe{N: n, Retries: retries, Outcome: outcome})
	}
}

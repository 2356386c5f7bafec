package shell

import (
	"context"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/env"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/injection"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/parser"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/process"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/system"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/workspace"
)

// Command is the outcome of a script or command.
type Command struct {
	// Name is the command name, empty for scripts
	Name string

	// CommandLine is the text passed to the shell's -c flag
	CommandLine string

	ExitCode int
	Stdout   string
	Stderr   string
	Signaled bool
	Signal   syscall.Signal
	TimedOut bool
	Duration time.Duration

	parser parser.Parser
}

// ParsedStdout hands Stdout to the command parser keyed by Name. Scripts
// have no parser and return nil.
func (c *Command) ParsedStdout() (any, error) {
	return c.parse(c.Stdout)
}

// ParsedStderr hands Stderr to the command parser keyed by Name.
func (c *Command) ParsedStderr() (any, error) {
	return c.parse(c.Stderr)
}

func (c *Command) parse(output string) (any, error) {
	if c.parser == nil || c.Name == "" {
		return nil, nil
	}
	return c.parser.Parse(c.Name, output)
}

// RunOption configures a single Script or Run call.
type RunOption func(*runConfig)

type runConfig struct {
	intercept bool
	timeout   time.Duration
	signal    syscall.Signal
}

// Intercept selects between the client overlay (true, the default) and the
// plain inherited environment.
func Intercept(on bool) RunOption {
	return func(c *runConfig) {
		c.intercept = on
	}
}

// Timeout limits the wall-clock time of the call.
func Timeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		c.timeout = d
	}
}

// TimeoutSignal sets the signal delivered when the timeout elapses.
func TimeoutSignal(sig syscall.Signal) RunOption {
	return func(c *runConfig) {
		c.signal = sig
	}
}

// Shell runs bash with or without interception.
type Shell struct {
	ws        *workspace.Workspace
	cfg       *config.Config
	preload   string
	overlay   *env.Overlay
	patched   []string
	inherited []string
	parser    parser.Parser
	events    *audit.Logger
	fs        system.FileSystem
}

// Option configures a Shell.
type Option func(*Shell)

// WithParser replaces the command output parser.
func WithParser(p parser.Parser) Option {
	return func(s *Shell) {
		s.parser = p
	}
}

// WithEvents records every call in the audit log.
func WithEvents(l *audit.Logger) Option {
	return func(s *Shell) {
		s.events = l
	}
}

// WithFileSystem sets the file system searched for the interception library.
func WithFileSystem(fs system.FileSystem) Option {
	return func(s *Shell) {
		s.fs = fs
	}
}

// New creates a Shell. Like client.New it fails with an initialization
// error unless exactly one interception library is found.
func New(ws *workspace.Workspace, cfg *config.Config, composer *env.Composer, opts ...Option) (*Shell, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Shell{
		ws:     ws,
		cfg:    cfg,
		parser: parser.DefaultCommand(),
	}
	for _, opt := range opts {
		opt(s)
	}

	preload, err := injection.NewResolver(s.fs).Resolve(ws.BinDirs, cfg.Client.InterceptLibrary)
	if err != nil {
		return nil, err
	}
	overlay, err := composer.Client(preload)
	if err != nil {
		return nil, err
	}

	s.preload = preload
	s.overlay = overlay
	s.inherited = composer.Inherited()
	s.patched = overlay.Environ(s.inherited)
	return s, nil
}

// PreloadLibrary returns the resolved interception library.
func (s *Shell) PreloadLibrary() string {
	return s.preload
}

// PatchedEnviron renders the interception overlay as assignments that can
// prefix a command line.
func (s *Shell) PatchedEnviron() string {
	return s.overlay.String()
}

// Dir returns the working directory of every call.
func (s *Shell) Dir() string {
	return s.ws.WorkDir
}

// Script runs code as a bash script.
func (s *Shell) Script(ctx context.Context, code string, opts ...RunOption) (*Command, error) {
	return s.exec(ctx, "", code, opts)
}

// Run runs a single command. Each argument is quoted as one shell word; the
// command itself is passed through unquoted. The result's parsed output is
// keyed by command.
func (s *Shell) Run(ctx context.Context, command string, args []string, opts ...RunOption) (*Command, error) {
	return s.exec(ctx, command, CommandLine(command, args), opts)
}

// CommandLine joins a command and its quoted arguments.
func CommandLine(command string, args []string) string {
	if len(args) == 0 {
		return command
	}
	return command + " " + shellquote.Join(args...)
}

func (s *Shell) exec(ctx context.Context, name, line string, opts []RunOption) (*Command, error) {
	rc := runConfig{intercept: true}
	for _, opt := range opts {
		opt(&rc)
	}

	exe, err := s.ws.LookPath(s.cfg.Shell.Executable)
	if err != nil {
		return nil, errors.CommandExecution(s.cfg.Shell.Executable, err)
	}

	environ := s.inherited
	if rc.intercept {
		environ = s.patched
	}

	logging.Debug("running shell", "cmdline", line, "intercept", rc.intercept, "timeout", rc.timeout)

	pr, err := process.Run(ctx, process.RunSpec{
		Path:          exe,
		Args:          []string{"-c", line},
		Env:           environ,
		Dir:           s.ws.WorkDir,
		Timeout:       rc.timeout,
		TimeoutSignal: rc.signal,
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		if err := s.events.LogExec(shellquote.Join(s.cfg.Shell.Executable, "-c", line), pr.ExitCode); err != nil {
			logging.Warn("failed to record shell event", "error", err)
		}
	}

	return &Command{
		Name:        name,
		CommandLine: line,
		ExitCode:    pr.ExitCode,
		Stdout:      pr.Stdout,
		Stderr:      pr.Stderr,
		Signaled:    pr.Signaled,
		Signal:      pr.Signal,
		TimedOut:    pr.TimedOut,
		Duration:    pr.Duration,
		parser:      s.parser,
	}, nil
}

// Package client runs file-system operations through the client executable
// with the interception library preloaded.
package client

import (
	"context"
	"strings"

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

// Result is the outcome of one client operation.
type Result struct {
	Operation string
	ExitCode  int
	Stdout    string
	Stderr    string

	// Parsed is the parser's structured view of Stdout
	Parsed any
}

// IO returns Parsed as client I/O output, or nil when another parser
// produced it.
func (r *Result) IO() *parser.IOOutput {
	out, _ := r.Parsed.(*parser.IOOutput)
	return out
}

// Client runs operations against a ready daemon.
type Client struct {
	ws       *workspace.Workspace
	cfg      *config.Config
	preload  string
	overlay  *env.Overlay
	environ  []string
	parser   parser.Parser
	registry Registry
	events   *audit.Logger
	fs       system.FileSystem
}

// Option configures a Client.
type Option func(*Client)

// WithParser replaces the output parser.
func WithParser(p parser.Parser) Option {
	return func(c *Client) {
		c.parser = p
	}
}

// WithRegistry replaces the operation registry used by Op.
func WithRegistry(r Registry) Option {
	return func(c *Client) {
		c.registry = r
	}
}

// WithEvents records every operation in the audit log.
func WithEvents(l *audit.Logger) Option {
	return func(c *Client) {
		c.events = l
	}
}

// WithFileSystem sets the file system searched for the interception library.
func WithFileSystem(fs system.FileSystem) Option {
	return func(c *Client) {
		c.fs = fs
	}
}

// New creates a Client. The interception library must exist in exactly one
// workspace binary directory; otherwise New fails with an initialization
// error before anything is spawned.
func New(ws *workspace.Workspace, cfg *config.Config, composer *env.Composer, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	c := &Client{
		ws:       ws,
		cfg:      cfg,
		parser:   parser.DefaultIO(),
		registry: DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}

	preload, err := injection.NewResolver(c.fs).Resolve(ws.BinDirs, cfg.Client.InterceptLibrary)
	if err != nil {
		return nil, err
	}
	overlay, err := composer.Client(preload)
	if err != nil {
		return nil, err
	}

	c.preload = preload
	c.overlay = overlay
	c.environ = overlay.Environ(composer.Inherited())
	return c, nil
}

// PreloadLibrary returns the resolved interception library.
func (c *Client) PreloadLibrary() string {
	return c.preload
}

// Overlay returns the variables the client sets on top of the inherited
// environment.
func (c *Client) Overlay() *env.Overlay {
	return c.overlay
}

// Dir returns the working directory operations run in.
func (c *Client) Dir() string {
	return c.ws.WorkDir
}

// Run invokes the client executable with operation and args. A nonzero
// exit status is reported in the Result, not as an error. The error is set
// when the executable cannot be launched or its output cannot be parsed; in
// the latter case the Result is returned as well.
func (c *Client) Run(ctx context.Context, operation string, args ...string) (*Result, error) {
	exe, err := c.ws.LookPath(c.cfg.Client.Executable)
	if err != nil {
		return nil, errors.CommandExecution(c.cfg.Client.Executable, err)
	}

	logging.Debug("running client", "operation", operation, "args", strings.Join(args, " "))

	pr, err := process.Run(ctx, process.RunSpec{
		Path: exe,
		Args: append([]string{operation}, args...),
		Env:  c.environ,
		Dir:  c.ws.WorkDir,
	})
	if err != nil {
		return nil, err
	}
	logging.Debug("client output", "operation", operation, "stdout", pr.Stdout)

	if c.events != nil {
		command := strings.Join(append([]string{c.cfg.Client.Executable, operation}, args...), " ")
		if err := c.events.LogExec(command, pr.ExitCode); err != nil {
			logging.Warn("failed to record client event", "error", err)
		}
	}

	res := &Result{
		Operation: operation,
		ExitCode:  pr.ExitCode,
		Stdout:    pr.Stdout,
		Stderr:    pr.Stderr,
	}
	res.Parsed, err = c.parser.Parse(operation, pr.Stdout)
	if err != nil {
		return res, errors.Wrap(errors.ExitGeneralError, "failed to parse client output", err)
	}
	return res, nil
}

// Op returns an adapter for the named operation. Names missing from the
// registry are passed through to the client unchecked.
func (c *Client) Op(name string) *Operation {
	op := &Operation{client: c, name: name}
	if sig, ok := c.registry[name]; ok {
		op.signature = &sig
	}
	return op
}

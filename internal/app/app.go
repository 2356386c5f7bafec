package app

import (
	"os"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/client"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/daemon"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/env"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/shell"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/workspace"
)

// App holds the application dependencies
type App struct {
	// Config is the loaded harness configuration
	Config *config.Config

	// Workspace is the session layout; nil until one is configured
	Workspace *workspace.Workspace

	// Inherited is the environment every spawned process starts from
	Inherited []string

	// Events records lifecycle events; nil disables the event log
	Events *audit.Logger
}

// Option is a function that configures the App
type Option func(*App)

// WithConfig sets a custom configuration
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithWorkspace sets the workspace layout
func WithWorkspace(ws *workspace.Workspace) Option {
	return func(a *App) {
		a.Workspace = ws
	}
}

// WithInherited sets the inherited environment
func WithInherited(environ []string) Option {
	return func(a *App) {
		a.Inherited = environ
	}
}

// WithEvents sets the event log
func WithEvents(l *audit.Logger) Option {
	return func(a *App) {
		a.Events = l
	}
}

// New creates a new App with the given options.
// Without WithWorkspace the layout is taken from the [workspace] section of
// the configuration when it names a root directory.
func New(opts ...Option) *App {
	app := &App{}

	for _, opt := range opts {
		opt(app)
	}

	if app.Config == nil {
		app.Config = config.Default()
	}
	if app.Inherited == nil {
		app.Inherited = os.Environ()
	}

	if app.Workspace == nil && app.Config.Workspace.Root != "" {
		ws, err := workspace.FromConfig(app.Config.Workspace)
		if err != nil {
			logging.Debug("failed to load workspace from config", "error", err)
		} else {
			app.Workspace = ws
		}
	}

	if app.Events == nil && app.Workspace != nil {
		app.Events = audit.NewLogger(app.Workspace.LogDir)
	}

	return app
}

// RequireWorkspace returns a configuration error when no workspace is set.
func (a *App) RequireWorkspace() error {
	if a.Workspace == nil {
		return errors.ConfigError("no workspace configured (set [workspace] in the config file)", nil)
	}
	return nil
}

// Composer returns an environment composer for the app's workspace.
func (a *App) Composer() (*env.Composer, error) {
	if err := a.RequireWorkspace(); err != nil {
		return nil, err
	}
	return env.NewComposer(a.Workspace, a.Config, a.Inherited), nil
}

// Daemon builds a daemon launcher. opts are applied after the app's own.
func (a *App) Daemon(opts ...daemon.Option) (*daemon.Daemon, error) {
	composer, err := a.Composer()
	if err != nil {
		return nil, err
	}
	all := []daemon.Option{daemon.WithEvents(a.Events)}
	return daemon.New(a.Workspace, a.Config, composer, append(all, opts...)...), nil
}

// Client builds an intercepted client runner.
func (a *App) Client(opts ...client.Option) (*client.Client, error) {
	composer, err := a.Composer()
	if err != nil {
		return nil, err
	}
	all := []client.Option{client.WithEvents(a.Events)}
	return client.New(a.Workspace, a.Config, composer, append(all, opts...)...)
}

// Shell builds a shell runner.
func (a *App) Shell(opts ...shell.Option) (*shell.Shell, error) {
	composer, err := a.Composer()
	if err != nil {
		return nil, err
	}
	all := []shell.Option{shell.WithEvents(a.Events)}
	return shell.New(a.Workspace, a.Config, composer, append(all, opts...)...)
}

// Default is the default application instance
var Default = New()

// SetDefault sets the default application instance (used for testing)
func SetDefault(app *App) {
	Default = app
}

// ResetDefault resets to the default application instance
func ResetDefault() {
	Default = New()
}

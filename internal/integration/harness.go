package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/client"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/daemon"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/shell"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/workspace"
)

// Environment variables read by NewHarness.
const (
	EnableVar  = "FSHARNESS_INTEGRATION_TESTS"
	BinDirsVar = "FSHARNESS_BIN_DIRS"
	LibDirsVar = "FSHARNESS_LIB_DIRS"
	ConfigVar  = "FSHARNESS_CONFIG"
)

// TestHarness provides a workspace wired to the real daemon and client.
type TestHarness struct {
	t         *testing.T
	app       *app.App
	instances []*daemon.Instance
}

// NewHarness creates a new test harness.
// It will skip the test if FSHARNESS_INTEGRATION_TESTS is not set.
func NewHarness(t *testing.T) *TestHarness {
	t.Helper()

	if os.Getenv(EnableVar) == "" {
		t.Skipf("integration tests disabled (set %s=1 to enable)", EnableVar)
	}

	binDirs := splitList(os.Getenv(BinDirsVar))
	if len(binDirs) == 0 {
		t.Skipf("%s is not set", BinDirsVar)
	}

	cfg := config.Default()
	if path := os.Getenv(ConfigVar); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			t.Fatalf("Failed to load %s: %v", path, err)
		}
	}

	ws, err := workspace.Create(t.TempDir(), binDirs, splitList(os.Getenv(LibDirsVar)))
	if err != nil {
		t.Fatalf("Failed to create workspace: %v", err)
	}

	h := &TestHarness{
		t:   t,
		app: app.New(app.WithConfig(cfg), app.WithWorkspace(ws)),
	}

	t.Cleanup(h.Cleanup)

	return h
}

func splitList(value string) []string {
	var out []string
	for _, dir := range filepath.SplitList(value) {
		if strings.TrimSpace(dir) != "" {
			out = append(out, dir)
		}
	}
	return out
}

// App returns the application context.
func (h *TestHarness) App() *app.App {
	return h.app
}

// Workspace returns the test workspace.
func (h *TestHarness) Workspace() *workspace.Workspace {
	return h.app.Workspace
}

// StartDaemon starts a daemon and waits until it is ready. The daemon is
// shut down when the test ends.
func (h *TestHarness) StartDaemon() *daemon.Instance {
	h.t.Helper()

	d, err := h.app.Daemon()
	if err != nil {
		h.t.Fatalf("Failed to build daemon: %v", err)
	}
	inst, err := d.Start(context.Background())
	if inst != nil {
		h.instances = append(h.instances, inst)
	}
	if err != nil {
		h.t.Fatalf("Daemon did not become ready: %v", err)
	}
	return inst
}

// Client returns a client bound to the workspace.
func (h *TestHarness) Client() *client.Client {
	h.t.Helper()

	c, err := h.app.Client()
	if err != nil {
		h.t.Fatalf("Failed to build client: %v", err)
	}
	return c
}

// Shell returns a shell runner bound to the workspace.
func (h *TestHarness) Shell() *shell.Shell {
	h.t.Helper()

	s, err := h.app.Shell()
	if err != nil {
		h.t.Fatalf("Failed to build shell: %v", err)
	}
	return s
}

// Cleanup shuts down every daemon started through the harness.
func (h *TestHarness) Cleanup() {
	for _, inst := range h.instances {
		if err := inst.Shutdown(); err != nil {
			h.t.Logf("Warning: failed to shut down daemon %s: %v", inst.ID, err)
		}
	}
	h.instances = nil
}

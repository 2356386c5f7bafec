package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/env"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/workspace"
)

// DaemonModeVar selects the fake daemon's behavior.
const DaemonModeVar = "FAKE_DAEMON_MODE"

// TestEnv holds a workspace wired to the fake daemon and client.
type TestEnv struct {
	T         *testing.T
	TmpDir    string
	BinDir    string
	LibDir    string
	Workspace *workspace.Workspace
	Config    *config.Config

	// Inherited is the environment spawned processes start from
	Inherited []string
}

// NewTestEnv creates a workspace whose binary directory holds the fake
// daemon, the fake client and a placeholder interception library.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpDir := t.TempDir()
	binDir := filepath.Join(tmpDir, "bin")
	libDir := filepath.Join(tmpDir, "lib")
	for _, dir := range []string{binDir, libDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	WriteExecutable(t, binDir, config.DefaultDaemonExecutable, FakeDaemon())
	WriteExecutable(t, binDir, config.DefaultClientExecutable, FakeClient())
	AddInterceptLibrary(t, binDir)

	ws, err := workspace.Create(filepath.Join(tmpDir, "ws"), []string{binDir}, []string{libDir})
	if err != nil {
		t.Fatalf("Failed to create workspace: %v", err)
	}

	cfg, err := ValidConfig()
	if err != nil {
		t.Fatalf("Failed to load config fixture: %v", err)
	}

	var inherited []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, DaemonModeVar+"=") {
			inherited = append(inherited, kv)
		}
	}

	return &TestEnv{
		T:         t,
		TmpDir:    tmpDir,
		BinDir:    binDir,
		LibDir:    libDir,
		Workspace: ws,
		Config:    cfg,
		Inherited: inherited,
	}
}

// Composer returns an environment composer over the test workspace.
func (e *TestEnv) Composer() *env.Composer {
	return env.NewComposer(e.Workspace, e.Config, e.Inherited)
}

// SetDaemonMode makes the fake daemon behave as mode.
func (e *TestEnv) SetDaemonMode(mode string) {
	e.Inherited = append(e.Inherited, DaemonModeVar+"="+mode)
}

// AddBinDir appends another binary directory to the workspace and returns it.
func (e *TestEnv) AddBinDir(name string) string {
	e.T.Helper()

	dir := filepath.Join(e.TmpDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		e.T.Fatalf("Failed to create bin dir: %v", err)
	}
	e.Workspace.BinDirs = append(e.Workspace.BinDirs, dir)
	return dir
}

// RemoveInterceptLibrary deletes the placeholder library from the first
// binary directory.
func (e *TestEnv) RemoveInterceptLibrary() {
	e.T.Helper()

	if err := os.Remove(filepath.Join(e.BinDir, config.DefaultInterceptLibrary)); err != nil {
		e.T.Fatalf("Failed to remove intercept library: %v", err)
	}
}

// WriteExecutable writes an executable script into dir.
func WriteExecutable(t *testing.T, dir, name string, script []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, script, 0755); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// AddInterceptLibrary writes an empty placeholder interception library into
// dir. The dynamic loader rejects it with a warning on stderr.
func AddInterceptLibrary(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, config.DefaultInterceptLibrary)
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

package env

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/workspace"
)

func testWorkspace(t *testing.T, libDirs ...string) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.Create(t.TempDir(), []string{"/opt/gkfs/bin"}, libDirs)
	if err != nil {
		t.Fatalf("workspace.Create failed: %v", err)
	}
	return ws
}

func TestLibrarySearchPath(t *testing.T) {
	tests := []struct {
		name      string
		inherited []string
		libDirs   []string
		want      string
	}{
		{"inherited then workspace", []string{"LD_LIBRARY_PATH=/usr/local/lib:/opt/x"}, []string{"/ws/lib1", "/ws/lib2"}, "/usr/local/lib:/opt/x:/ws/lib1:/ws/lib2"},
		{"no inherited value", nil, []string{"/ws/lib"}, "/ws/lib"},
		{"empty inherited value", []string{"LD_LIBRARY_PATH="}, []string{"/ws/lib"}, "/ws/lib"},
		{"inherited kept verbatim", []string{"LD_LIBRARY_PATH=:/a::/b:"}, nil, ":/a::/b:"},
		{"empty segments kept before workspace dirs", []string{"LD_LIBRARY_PATH=/a::/b"}, []string{"/ws/lib"}, "/a::/b:/ws/lib"},
		{"nothing at all", nil, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewComposer(testWorkspace(t, tt.libDirs...), nil, tt.inherited)
			if got := c.LibrarySearchPath(); got != tt.want {
				t.Errorf("LibrarySearchPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDaemon(t *testing.T) {
	ws := testWorkspace(t, "/ws/lib")
	inherited := []string{
		"PATH=/usr/bin",
		"LD_LIBRARY_PATH=/usr/lib64",
		"GKFS_LOG_LEVEL=1",
	}
	c := NewComposer(ws, config.Default(), inherited)

	o, err := c.Daemon("127.0.0.1:4433")
	if err != nil {
		t.Fatalf("Daemon failed: %v", err)
	}

	want := map[string]string{
		LibraryPath:     "/usr/lib64:/ws/lib",
		DaemonHostsFile: filepath.Join(ws.WorkDir, "gkfs_hosts.txt"),
		DaemonLogPath:   filepath.Join(ws.LogDir, "gkfs_daemon.log"),
		DaemonLogLevel:  "100",
	}
	for key, value := range want {
		if got, _ := o.Get(key); got != value {
			t.Errorf("%s = %q, want %q", key, got, value)
		}
	}
	if _, ok := o.Get(Preload); ok {
		t.Error("daemon overlay must not set LD_PRELOAD")
	}

	environ := o.Environ(inherited)
	if environ[0] != "PATH=/usr/bin" {
		t.Errorf("environ[0] = %q, inherited order not preserved", environ[0])
	}
	if v, _ := Lookup(environ, DaemonLogLevel); v != "100" {
		t.Errorf("merged GKFS_LOG_LEVEL = %q, overlay should win", v)
	}
	if v, _ := Lookup(environ, LibraryPath); !strings.HasPrefix(v, "/usr/lib64:") {
		t.Errorf("merged LD_LIBRARY_PATH = %q, inherited entries must come first", v)
	}
}

func TestClient(t *testing.T) {
	ws := testWorkspace(t, "/ws/lib")
	cfg := config.Default()
	cfg.Client.LogLevel = "info"
	c := NewComposer(ws, cfg, []string{"LD_PRELOAD=/usr/lib/other.so"})

	o, err := c.Client("/opt/gkfs/lib/libgkfs_intercept.so")
	if err != nil {
		t.Fatalf("Client failed: %v", err)
	}

	wantKeys := []string{LibraryPath, Preload, ClientHostsFile, ClientLogLevel, ClientLogOutput}
	if got := o.Keys(); strings.Join(got, ",") != strings.Join(wantKeys, ",") {
		t.Errorf("Keys() = %v, want %v", got, wantKeys)
	}
	if v, _ := o.Get(ClientLogLevel); v != "info" {
		t.Errorf("LIBGKFS_LOG = %q, want info", v)
	}
	if v, _ := o.Get(ClientLogOutput); v != filepath.Join(ws.LogDir, "gkfs_client.log") {
		t.Errorf("LIBGKFS_LOG_OUTPUT = %q", v)
	}

	merged := o.Environ(c.Inherited())
	if v, _ := Lookup(merged, Preload); v != "/opt/gkfs/lib/libgkfs_intercept.so" {
		t.Errorf("merged LD_PRELOAD = %q, overlay should fully replace inherited", v)
	}
}

func TestComposer_CopiesInherited(t *testing.T) {
	inherited := []string{"A=1"}
	c := NewComposer(testWorkspace(t), nil, inherited)
	inherited[0] = "A=2"

	if v, _ := Lookup(c.Inherited(), "A"); v != "1" {
		t.Errorf("Inherited A = %q, composer must copy its input", v)
	}
}

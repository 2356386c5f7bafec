package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/system"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if cfg.Daemon.Executable != "gkfs_daemon" {
		t.Errorf("Daemon.Executable = %q, want %q", cfg.Daemon.Executable, "gkfs_daemon")
	}
	if cfg.Daemon.ReadinessPattern != "Startup successful. Daemon is ready." {
		t.Errorf("Daemon.ReadinessPattern = %q", cfg.Daemon.ReadinessPattern)
	}
	if cfg.Daemon.Retries != 500 || cfg.Daemon.MaxLines != 50 {
		t.Errorf("Retries/MaxLines = %d/%d, want 500/50", cfg.Daemon.Retries, cfg.Daemon.MaxLines)
	}
	if cfg.Daemon.Grace.Duration != 100*time.Millisecond {
		t.Errorf("Grace = %v, want 100ms", cfg.Daemon.Grace.Duration)
	}
	if cfg.Client.InterceptLibrary != "libgkfs_intercept.so" {
		t.Errorf("Client.InterceptLibrary = %q", cfg.Client.InterceptLibrary)
	}
	if cfg.Shell.Executable != "bash" {
		t.Errorf("Shell.Executable = %q, want bash", cfg.Shell.Executable)
	}
}

func TestParse(t *testing.T) {
	data := `
[daemon]
retries = 20
backoff = "5ms"
interface = "lo"

[client]
log_level = "info"

[workspace]
root = "/tmp/s/root"
bin_dirs = ["/opt/a/bin", "/opt/b/bin"]
lib_dirs = ["/opt/a/lib"]
`
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Daemon.Retries != 20 {
		t.Errorf("Retries = %d, want 20", cfg.Daemon.Retries)
	}
	if cfg.Daemon.Backoff.Duration != 5*time.Millisecond {
		t.Errorf("Backoff = %v, want 5ms", cfg.Daemon.Backoff.Duration)
	}
	if cfg.Daemon.Interface != "lo" {
		t.Errorf("Interface = %q, want lo", cfg.Daemon.Interface)
	}
	// Untouched keys keep defaults
	if cfg.Daemon.MaxLines != DefaultReadinessMaxLines {
		t.Errorf("MaxLines = %d, want default %d", cfg.Daemon.MaxLines, DefaultReadinessMaxLines)
	}
	if cfg.Client.LogLevel != "info" {
		t.Errorf("Client.LogLevel = %q, want info", cfg.Client.LogLevel)
	}
	if len(cfg.Workspace.BinDirs) != 2 || cfg.Workspace.BinDirs[1] != "/opt/b/bin" {
		t.Errorf("BinDirs = %v", cfg.Workspace.BinDirs)
	}
	if cfg.Workspace.HostsFile != DefaultHostsFile {
		t.Errorf("HostsFile = %q, want default", cfg.Workspace.HostsFile)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"bad toml", "[daemon\n", "failed to parse"},
		{"bad duration", "[daemon]\ngrace = \"soon\"\n", "failed to parse"},
		{"zero retries", "[daemon]\nretries = 0\n", "retries must be positive"},
		{"negative lines", "[daemon]\nmax_lines = -1\n", "max_lines must be positive"},
		{"empty pattern", "[daemon]\nreadiness_pattern = \"\"\n", "readiness_pattern is required"},
		{"port range", "[daemon]\nport = 70000\n", "daemon.port"},
		{"unknown key", "[daemon]\nretires = 3\n", "unknown config key"},
		{"empty shell", "[shell]\nexecutable = \"\"\n", "shell.executable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, DefaultConfigFile)

	if err := os.WriteFile(path, []byte("[shell]\nexecutable = \"sh\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Shell.Executable != "sh" {
		t.Errorf("Shell.Executable = %q, want sh", cfg.Shell.Executable)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Daemon.Executable != DefaultDaemonExecutable {
		t.Errorf("Daemon.Executable = %q, want default", cfg.Daemon.Executable)
	}
}

func TestDuration_MarshalText(t *testing.T) {
	d := Duration{1500 * time.Millisecond}
	text, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}
	if string(text) != "1.5s" {
		t.Errorf("MarshalText = %q, want 1.5s", text)
	}
}

func TestLoadFS(t *testing.T) {
	mockFS := system.NewMockFS()
	mockFS.AddFile("/etc/fs-harness.toml", []byte("[daemon]\nretries = 9\n"), 0644)

	cfg, err := LoadFS(mockFS, "/etc/fs-harness.toml")
	if err != nil {
		t.Fatalf("LoadFS failed: %v", err)
	}
	if cfg.Daemon.Retries != 9 {
		t.Errorf("Retries = %d, want 9", cfg.Daemon.Retries)
	}

	mockFS.ReadFileErr = os.ErrPermission
	if _, err := LoadFS(mockFS, "/etc/fs-harness.toml"); err == nil || !strings.Contains(err.Error(), "failed to read config") {
		t.Errorf("error = %v, want read failure", err)
	}
}

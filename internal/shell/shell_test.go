package shell

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/env"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/parser"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/testutil"
)

func newShell(t *testing.T, te *testutil.TestEnv, opts ...Option) *Shell {
	t.Helper()
	s, err := New(te.Workspace, te.Config, te.Composer(), opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestScript_ExitCodes(t *testing.T) {
	te := testutil.NewTestEnv(t)
	s := newShell(t, te)

	for _, code := range []int{0, 1, 2, 126, 127, 200, 255} {
		t.Run(strconv.Itoa(code), func(t *testing.T) {
			cmd, err := s.Script(context.Background(), "echo out; echo err >&2; exit "+strconv.Itoa(code), Intercept(false))
			if err != nil {
				t.Fatalf("Script returned error for exit %d: %v", code, err)
			}
			if cmd.ExitCode != code {
				t.Errorf("ExitCode = %d, want %d", cmd.ExitCode, code)
			}
			if cmd.Stdout != "out\n" || cmd.Stderr != "err\n" {
				t.Errorf("Stdout/Stderr = %q/%q", cmd.Stdout, cmd.Stderr)
			}
		})
	}
}

func TestScript_ExitOneWithInterception(t *testing.T) {
	te := testutil.NewTestEnv(t)
	s := newShell(t, te)

	cmd, err := s.Script(context.Background(), "echo hello\nexit 1")
	if err != nil {
		t.Fatalf("Script failed: %v", err)
	}
	if cmd.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", cmd.ExitCode)
	}
	if cmd.Stdout != "hello\n" {
		t.Errorf("Stdout = %q", cmd.Stdout)
	}
	if parsed, err := cmd.ParsedStdout(); parsed != nil || err != nil {
		t.Errorf("scripts have no parser, got %v, %v", parsed, err)
	}
}

func TestScript_InterceptSelectsEnvironment(t *testing.T) {
	te := testutil.NewTestEnv(t)
	s := newShell(t, te)

	on, err := s.Script(context.Background(), `printf '%s' "$LD_PRELOAD|$LIBGKFS_LOG"`)
	if err != nil {
		t.Fatalf("Script failed: %v", err)
	}
	if on.Stdout != s.PreloadLibrary()+"|info" {
		t.Errorf("intercepted environment = %q", on.Stdout)
	}

	off, err := s.Script(context.Background(), `printf '%s' "$LIBGKFS_LOG_OUTPUT"`, Intercept(false))
	if err != nil {
		t.Fatalf("Script failed: %v", err)
	}
	if off.Stdout != "" {
		t.Errorf("plain environment should not carry the overlay, got %q", off.Stdout)
	}
}

func TestScript_WorkingDir(t *testing.T) {
	te := testutil.NewTestEnv(t)
	s := newShell(t, te)

	cmd, err := s.Script(context.Background(), "pwd -P", Intercept(false))
	if err != nil {
		t.Fatalf("Script failed: %v", err)
	}
	want, _ := filepath.EvalSymlinks(te.Workspace.WorkDir)
	if strings.TrimSpace(cmd.Stdout) != want {
		t.Errorf("pwd = %q, want %q", strings.TrimSpace(cmd.Stdout), want)
	}
	if s.Dir() != te.Workspace.WorkDir {
		t.Errorf("Dir() = %q", s.Dir())
	}
}

func TestRun_QuotesArguments(t *testing.T) {
	te := testutil.NewTestEnv(t)
	s := newShell(t, te)

	cmd, err := s.Run(context.Background(), "printf", []string{`%s|\n`, "a b", "$HOME", "it's"}, Intercept(false))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if cmd.Stdout != "a b|\n$HOME|\nit's|\n" {
		t.Errorf("Stdout = %q", cmd.Stdout)
	}

	parsed, err := cmd.ParsedStdout()
	if err != nil {
		t.Fatalf("ParsedStdout failed: %v", err)
	}
	lines := parsed.(*parser.LinesOutput)
	if lines.Command != "printf" || len(lines.Lines) != 3 {
		t.Errorf("parsed = %+v", lines)
	}
}

func TestRun_ParsedStderr(t *testing.T) {
	te := testutil.NewTestEnv(t)
	s := newShell(t, te)

	cmd, err := s.Run(context.Background(), "ls", []string{"/definitely/not/here"}, Intercept(false))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if cmd.ExitCode == 0 {
		t.Error("ls of a missing path should fail")
	}
	parsed, err := cmd.ParsedStderr()
	if err != nil {
		t.Fatalf("ParsedStderr failed: %v", err)
	}
	if lines := parsed.(*parser.LinesOutput); len(lines.Lines) == 0 {
		t.Error("stderr should have at least one line")
	}
}

func TestRun_TimeoutKills(t *testing.T) {
	te := testutil.NewTestEnv(t)
	s := newShell(t, te)

	start := time.Now()
	cmd, err := s.Run(context.Background(), "sleep", []string{"5"}, Timeout(300*time.Millisecond), Intercept(false))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Errorf("Run took %v, timeout not enforced", time.Since(start))
	}
	if !cmd.TimedOut || !cmd.Signaled || cmd.Signal != syscall.SIGKILL {
		t.Errorf("TimedOut=%v Signaled=%v Signal=%v, want SIGKILL after timeout", cmd.TimedOut, cmd.Signaled, cmd.Signal)
	}
}

func TestRun_TimeoutSignal(t *testing.T) {
	te := testutil.NewTestEnv(t)
	s := newShell(t, te)

	cmd, err := s.Run(context.Background(), "sleep", []string{"5"},
		Timeout(300*time.Millisecond), TimeoutSignal(syscall.SIGTERM), Intercept(false))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !cmd.TimedOut || cmd.Signal != syscall.SIGTERM {
		t.Errorf("TimedOut=%v Signal=%v, want SIGTERM", cmd.TimedOut, cmd.Signal)
	}
}

func TestPatchedEnviron(t *testing.T) {
	te := testutil.NewTestEnv(t)
	s := newShell(t, te)

	patched := s.PatchedEnviron()
	for _, want := range []string{env.LibraryPath + "=", env.Preload + "=" + s.PreloadLibrary(), env.ClientLogLevel + "=info"} {
		if !strings.Contains(patched, want) {
			t.Errorf("PatchedEnviron() = %q, missing %q", patched, want)
		}
	}
}

func TestCommandLine(t *testing.T) {
	tests := []struct {
		command string
		args    []string
		want    string
	}{
		{"stat", nil, "stat"},
		{"stat", []string{"--terse", "/mnt/file01"}, "stat --terse /mnt/file01"},
		{"cat", []string{"/mnt/my file"}, "cat '/mnt/my file'"},
	}
	for _, tt := range tests {
		if got := CommandLine(tt.command, tt.args); got != tt.want {
			t.Errorf("CommandLine(%q, %q) = %q, want %q", tt.command, tt.args, got, tt.want)
		}
	}
}

func TestNew_InitializationError(t *testing.T) {
	te := testutil.NewTestEnv(t)
	testutil.AddInterceptLibrary(t, te.AddBinDir("bin2"))

	_, err := New(te.Workspace, te.Config, te.Composer())
	if !errors.HasCode(err, errors.ExitInitialization) {
		t.Errorf("error = %v, want initialization error", err)
	}
}

func TestScript_MissingShell(t *testing.T) {
	te := testutil.NewTestEnv(t)
	te.Config.Shell.Executable = "fsh-no-such-shell"
	s := newShell(t, te)

	_, err := s.Script(context.Background(), "true")
	if !errors.HasCode(err, errors.ExitCommandExecution) {
		t.Errorf("error = %v, want command execution error", err)
	}
}

func TestEvents(t *testing.T) {
	te := testutil.NewTestEnv(t)
	events := audit.NewLogger(te.Workspace.LogDir)
	s := newShell(t, te, WithEvents(events))

	if _, err := s.Script(context.Background(), "exit 4", Intercept(false)); err != nil {
		t.Fatalf("Script failed: %v", err)
	}

	got, err := events.Events()
	if err != nil || len(got) != 1 {
		t.Fatalf("events = %v, %v", got, err)
	}
	if *got[0].ExitCode != 4 || !strings.Contains(got[0].Details, "exit 4") {
		t.Errorf("event = %+v", got[0])
	}
}

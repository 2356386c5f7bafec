package workspace

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/system"
)

// Workspace is the fixed layout of a test session. Harness components only
// read from it.
type Workspace struct {
	// RootDir is the daemon's backing storage directory
	RootDir string

	// MountDir is the virtual mount point served by the daemon
	MountDir string

	// LogDir receives daemon, client and harness event logs
	LogDir string

	// WorkDir is the working directory of every spawned process and
	// holds the hosts file
	WorkDir string

	// HostsFile is the hosts file name inside WorkDir
	HostsFile string

	// BinDirs are searched in order for executables and the
	// interception library
	BinDirs []string

	// LibDirs are appended in order to the library search path
	LibDirs []string
}

// Layout directory names used by Create.
const (
	RootDirName  = "root"
	MountDirName = "mnt"
	LogDirName   = "logs"
	WorkDirName  = "work"
)

// Create builds a fresh layout under base and creates its directories.
func Create(base string, binDirs, libDirs []string) (*Workspace, error) {
	ws := &Workspace{
		RootDir:   filepath.Join(base, RootDirName),
		MountDir:  filepath.Join(base, MountDirName),
		LogDir:    filepath.Join(base, LogDirName),
		WorkDir:   filepath.Join(base, WorkDirName),
		HostsFile: config.DefaultHostsFile,
		BinDirs:   append([]string(nil), binDirs...),
		LibDirs:   append([]string(nil), libDirs...),
	}

	for _, dir := range []string{ws.RootDir, ws.MountDir, ws.LogDir, ws.WorkDir} {
		if err := system.DefaultFS().MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create workspace directory %s: %w", dir, err)
		}
	}

	return ws, nil
}

// FromConfig builds a Workspace from the [workspace] configuration section.
func FromConfig(c config.WorkspaceConfig) (*Workspace, error) {
	ws := &Workspace{
		RootDir:   c.Root,
		MountDir:  c.Mount,
		LogDir:    c.Logs,
		WorkDir:   c.Work,
		HostsFile: c.HostsFile,
		BinDirs:   append([]string(nil), c.BinDirs...),
		LibDirs:   append([]string(nil), c.LibDirs...),
	}
	if ws.HostsFile == "" {
		ws.HostsFile = config.DefaultHostsFile
	}
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return ws, nil
}

// Validate checks that every directory of the layout is set.
func (w *Workspace) Validate() error {
	for _, d := range []struct{ name, path string }{
		{"root", w.RootDir},
		{"mount", w.MountDir},
		{"logs", w.LogDir},
		{"work", w.WorkDir},
	} {
		if d.path == "" {
			return fmt.Errorf("workspace %s directory is required", d.name)
		}
		if !filepath.IsAbs(d.path) {
			return fmt.Errorf("workspace %s directory must be absolute (got %q)", d.name, d.path)
		}
	}
	if len(w.BinDirs) == 0 {
		return fmt.Errorf("workspace needs at least one binary directory")
	}
	return nil
}

// LogPath returns the path of a log file inside LogDir. The name cannot
// escape the log directory.
func (w *Workspace) LogPath(name string) (string, error) {
	return scopedPath(w.LogDir, name)
}

// HostsFilePath returns the workspace-scoped hosts file location.
func (w *Workspace) HostsFilePath() (string, error) {
	return scopedPath(w.WorkDir, w.HostsFile)
}

func scopedPath(dir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("file name cannot be empty")
	}
	path, err := securejoin.SecureJoin(dir, name)
	if err != nil {
		return "", fmt.Errorf("invalid path %q in %s: %w", name, dir, err)
	}
	return path, nil
}

// LookPath resolves an executable name against BinDirs in order, falling
// back to $PATH. Names containing a separator are resolved as given.
func (w *Workspace) LookPath(name string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) {
		return exec.LookPath(name)
	}
	fsys := system.DefaultFS()
	for _, dir := range w.BinDirs {
		candidate := filepath.Join(dir, name)
		info, err := fsys.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0111 != 0 {
			return candidate, nil
		}
	}
	return exec.LookPath(name)
}

// Package workspace describes the directory layout scoping one test session.
//
// A Workspace is owned by the test session and is read-only for the rest of
// the harness:
//
//	RootDir   daemon backing storage       (--rootdir)
//	MountDir  virtual mount point          (--mountdir)
//	LogDir    daemon/client/event logs
//	WorkDir   cwd of spawned processes, holds the hosts file
//	BinDirs   ordered search path for executables and the interception library
//	LibDirs   ordered entries appended to the library search path
//
// Create builds a fresh layout under a base directory, FromConfig reads one
// from the [workspace] configuration section.
//
// # Scoped Paths
//
// LogPath and HostsFilePath join file names with securejoin so a
// configured name can never resolve outside its directory.
//
// # Executable Lookup
//
// LookPath mirrors how a test session expects binaries to be found: the
// workspace binary directories first, in order, then $PATH.
package workspace

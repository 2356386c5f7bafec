// Package injection locates the interception library preloaded into client
// and shell processes.
package injection

import (
	"path/filepath"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/system"
)

// Resolver scans binary directories for a single interception artifact.
type Resolver struct {
	fs system.FileSystem
}

// NewResolver creates a Resolver. A nil fs uses the OS file system.
func NewResolver(fs system.FileSystem) *Resolver {
	if fs == nil {
		fs = system.DefaultFS()
	}
	return &Resolver{fs: fs}
}

// Candidates returns every path binDirs/artifact that exists as a
// non-directory, in directory order.
func (r *Resolver) Candidates(binDirs []string, artifact string) []string {
	var found []string
	for _, dir := range binDirs {
		candidate := filepath.Join(dir, artifact)
		if r.fs.Exists(candidate) && !r.fs.IsDir(candidate) {
			found = append(found, candidate)
		}
	}
	return found
}

// Resolve returns the only copy of artifact in binDirs. Zero or multiple
// copies is an initialization error; every candidate is logged first.
func (r *Resolver) Resolve(binDirs []string, artifact string) (string, error) {
	candidates := r.Candidates(binDirs, artifact)

	switch len(candidates) {
	case 1:
		logging.Debug("resolved interception library", "path", candidates[0])
		return candidates[0], nil
	case 0:
		logging.Error("interception library not found", "artifact", artifact, "bin_dirs", binDirs)
	default:
		logging.Error("multiple interception libraries found", "artifact", artifact, "count", len(candidates))
		for _, c := range candidates {
			logging.Error("  candidate", "path", c)
		}
	}
	return "", errors.InitializationError(artifact, candidates)
}

// Resolve is a convenience wrapper using the OS file system.
func Resolve(binDirs []string, artifact string) (string, error) {
	return NewResolver(nil).Resolve(binDirs, artifact)
}

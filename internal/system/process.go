package system

import (
	"errors"

	"golang.org/x/sys/unix"
)

// osProcessTable checks liveness with signal 0.
type osProcessTable struct{}

// Alive sends signal 0 to pid. ESRCH means the process is gone; EPERM means
// it exists but belongs to someone else. A zombie still counts as alive
// until its parent reaps it.
func (p *osProcessTable) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, unix.EPERM)
}

//go:build !windows

package terminal

import (
	"errors"
	"os"
	"syscall"
)

// signalGroup signals the child's whole process group. pty.Start makes the
// child a session leader, so its pid is also the group id.
func signalGroup(proc *os.Process, sig syscall.Signal) error {
	if err := syscall.Kill(-proc.Pid, sig); err == nil || errors.Is(err, syscall.ESRCH) {
		return err
	}
	return proc.Signal(sig)
}

//go:build windows

package terminal

import (
	"os"
	"syscall"
)

func signalGroup(proc *os.Process, _ syscall.Signal) error {
	return proc.Kill()
}

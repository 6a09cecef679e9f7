//go:build !windows

package process

import (
	"os"
	"syscall"
)

// RelayedSignals are the signals the launcher forwards to its child.
var RelayedSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// TerminateSignal asks a child to shut down.
var TerminateSignal os.Signal = syscall.SIGTERM

func signalProcess(p *os.Process, sig os.Signal) error {
	return p.Signal(sig)
}

func terminateProcess(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}

// isProcessRunning checks if a process with the given PID exists.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 doesn't send a signal but checks if the process exists
	err = process.Signal(syscall.Signal(0))
	return err == nil || err == syscall.EPERM
}

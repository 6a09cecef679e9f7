//go:build windows

package process

import (
	"errors"
	"os"
)

// RelayedSignals are the signals the launcher forwards to its child.
// Windows only delivers os.Interrupt (Ctrl+C / Ctrl+Break) to console programs.
var RelayedSignals = []os.Signal{os.Interrupt}

// TerminateSignal asks a child to shut down.
var TerminateSignal = os.Kill

// signalProcess leaves os.Interrupt alone: the console already delivered the
// Ctrl+C or Ctrl+Break event to every process attached to it, the child
// included, and os.Process cannot send it again. Anything else kills.
func signalProcess(p *os.Process, sig os.Signal) error {
	if sig == os.Interrupt {
		return nil
	}
	return p.Kill()
}

func terminateProcess(p *os.Process) error {
	return p.Kill()
}

// isProcessRunning always reports false: orphan detection relies on
// signal 0, which Windows lacks, so tracked entries are simply dropped.
func isProcessRunning(pid int) bool {
	return false
}

// commandLine is never reached on windows because isProcessRunning is false.
func commandLine(pid int) ([]string, error) {
	return nil, errors.New("process command lines are not available on windows")
}

//go:build !linux && !windows

package process

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// commandLine returns the command line of a running process as reported by
// ps. Arguments come back space-joined, so they are split on whitespace.
func commandLine(pid int) ([]string, error) {
	out, err := exec.Command("ps", "-o", "args=", "-p", strconv.Itoa(pid)).Output()
	if err != nil {
		return nil, fmt.Errorf("ps -p %d: %w", pid, err)
	}
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return nil, fmt.Errorf("pid %d has no command line", pid)
	}
	return fields, nil
}

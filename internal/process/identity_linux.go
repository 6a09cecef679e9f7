//go:build linux

package process

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// commandLine returns the argv of a running process from /proc.
func commandLine(pid int) ([]string, error) {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/cmdline")
	if err != nil {
		return nil, err
	}
	data = bytes.TrimRight(data, "\x00")
	if len(data) == 0 {
		// zombies and kernel threads
		return nil, fmt.Errorf("pid %d has no command line", pid)
	}
	return strings.Split(string(data), "\x00"), nil
}

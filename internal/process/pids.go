package process

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const pidsFile = "pids.json"

// Entry records one launched child.
type Entry struct {
	LauncherPID int       `json:"launcherPid"`
	PID         int       `json:"pid"`
	Command     string    `json:"command"`
	Args        []string  `json:"args,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
}

// PIDTracker records launched children so that a child whose launcher died
// (for example killed with SIGKILL) can be terminated on the next launch.
// Several launchers may share the file; each mutation reloads it first.
type PIDTracker struct {
	path string
	mu   sync.Mutex
	pids map[string]Entry // launch ID -> entry
}

// NewPIDTracker creates a tracker backed by dir/pids.json.
func NewPIDTracker(dir string) *PIDTracker {
	pt := &PIDTracker{
		path: filepath.Join(dir, pidsFile),
		pids: make(map[string]Entry),
	}
	pt.load()
	return pt
}

// load reads PIDs from the tracking file.
func (pt *PIDTracker) load() {
	pt.pids = make(map[string]Entry)

	data, err := os.ReadFile(pt.path)
	if err != nil {
		// File doesn't exist or can't be read, start fresh
		return
	}

	if err := json.Unmarshal(data, &pt.pids); err != nil {
		log.Printf("Failed to parse PID file: %v", err)
		pt.pids = make(map[string]Entry)
	}
}

// save writes PIDs to the tracking file atomically.
func (pt *PIDTracker) save() error {
	dir := filepath.Dir(pt.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(pt.pids, "", "  ")
	if err != nil {
		return err
	}

	tmp := pt.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, pt.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Add tracks a child under its launch ID. LauncherPID defaults to this process.
func (pt *PIDTracker) Add(launchID string, e Entry) error {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if e.LauncherPID == 0 {
		e.LauncherPID = os.Getpid()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}

	pt.load()
	pt.pids[launchID] = e
	return pt.save()
}

// Remove stops tracking a launch.
func (pt *PIDTracker) Remove(launchID string) error {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.load()
	delete(pt.pids, launchID)
	return pt.save()
}

// Entries returns a copy of the tracked entries.
func (pt *PIDTracker) Entries() map[string]Entry {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.load()
	out := make(map[string]Entry, len(pt.pids))
	for k, v := range pt.pids {
		out[k] = v
	}
	return out
}

// CleanupOrphans terminates children whose launcher is gone and drops their
// entries. A live PID is only signalled while it still runs the recorded
// command. Entries of launchers that are still alive are kept.
// Returns the number of orphans terminated.
func (pt *PIDTracker) CleanupOrphans() int {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.load()
	if len(pt.pids) == 0 {
		return 0
	}

	self := os.Getpid()
	killed := 0
	for launchID, e := range pt.pids {
		if e.LauncherPID != self && isProcessRunning(e.LauncherPID) {
			continue
		}
		if isProcessRunning(e.PID) && pt.isTrackedChild(launchID, e) {
			log.Printf("Found orphan process: launch=%s pid=%d, terminating", launchID, e.PID)
			if err := killProcess(e.PID); err != nil {
				log.Printf("Failed to kill orphan pid=%d: %v", e.PID, err)
			} else {
				killed++
			}
		}
		delete(pt.pids, launchID)
	}

	if err := pt.save(); err != nil {
		log.Printf("Failed to save PID file after cleanup: %v", err)
	}

	return killed
}

// isTrackedChild checks that the process now holding e.PID is still the
// recorded command. The file survives reboots and SIGKILLed launchers, so the
// PID may belong to an unrelated process by now.
func (pt *PIDTracker) isTrackedChild(launchID string, e Entry) bool {
	argv, err := commandLine(e.PID)
	if err != nil {
		log.Printf("Cannot verify orphan pid=%d (launch=%s), leaving it alone: %v", e.PID, launchID, err)
		return false
	}
	if !e.sameCommand(argv) {
		log.Printf("PID %d (launch=%s) now runs %q, not the tracked server; leaving it alone",
			e.PID, launchID, strings.Join(argv, " "))
		return false
	}
	return true
}

// killProcess asks a process to terminate without waiting for it.
func killProcess(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return terminateProcess(process)
}

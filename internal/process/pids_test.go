package process

import (
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

func TestPIDTracker_AddAndRemove(t *testing.T) {
	dir := t.TempDir()
	pt := NewPIDTracker(dir)

	err := pt.Add("launch-1", Entry{PID: 12345, Command: "/usr/bin/python3", Args: []string{"-m", "api_tester_mcp.server"}})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// A second tracker on the same directory sees the entry
	entry, ok := NewPIDTracker(dir).Entries()["launch-1"]
	if !ok {
		t.Fatal("expected launch-1 to be tracked")
	}
	if entry.PID != 12345 {
		t.Errorf("expected PID 12345, got %d", entry.PID)
	}
	if entry.LauncherPID != os.Getpid() {
		t.Errorf("expected launcher PID %d, got %d", os.Getpid(), entry.LauncherPID)
	}
	if entry.Command != "/usr/bin/python3" {
		t.Errorf("expected command '/usr/bin/python3', got %q", entry.Command)
	}
	if entry.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}

	if err := pt.Remove("launch-1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok := NewPIDTracker(dir).Entries()["launch-1"]; ok {
		t.Error("expected launch-1 to be removed")
	}
}

func TestPIDTracker_SharedFileMerges(t *testing.T) {
	dir := t.TempDir()
	a := NewPIDTracker(dir)
	b := NewPIDTracker(dir)

	if err := a.Add("launch-a", Entry{PID: 1001}); err != nil {
		t.Fatal(err)
	}
	// b was created before a wrote; it must not clobber launch-a
	if err := b.Add("launch-b", Entry{PID: 1002}); err != nil {
		t.Fatal(err)
	}

	entries := NewPIDTracker(dir).Entries()
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d: %v", len(entries), entries)
	}
}

func TestPIDTracker_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/pids.json", []byte("{corrupt"), 0600); err != nil {
		t.Fatal(err)
	}

	pt := NewPIDTracker(dir)
	if len(pt.Entries()) != 0 {
		t.Error("expected corrupt file to be treated as empty")
	}
	if err := pt.Add("launch-1", Entry{PID: 1}); err != nil {
		t.Fatalf("Add after corrupt file failed: %v", err)
	}
}

func TestPIDTracker_CleanupOrphans_ProcessGone(t *testing.T) {
	pt := NewPIDTracker(t.TempDir())

	// PIDs this large do not exist on any test machine
	if err := pt.Add("stale", Entry{LauncherPID: 999999998, PID: 999999999}); err != nil {
		t.Fatal(err)
	}

	if killed := pt.CleanupOrphans(); killed != 0 {
		t.Errorf("expected 0 killed, got %d", killed)
	}
	if len(pt.Entries()) != 0 {
		t.Error("expected stale entry to be dropped")
	}
}

func TestPIDTracker_CleanupOrphans_LiveLauncherKept(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("liveness checks are unavailable on windows")
	}

	launcher := startSleeper(t)
	child := startSleeper(t)

	pt := NewPIDTracker(t.TempDir())
	if err := pt.Add("other-launcher", Entry{LauncherPID: launcher.Process.Pid, PID: child.Process.Pid}); err != nil {
		t.Fatal(err)
	}

	if killed := pt.CleanupOrphans(); killed != 0 {
		t.Errorf("expected 0 killed while launcher alive, got %d", killed)
	}
	if _, ok := pt.Entries()["other-launcher"]; !ok {
		t.Error("entry of a live launcher was dropped")
	}
}

func TestPIDTracker_CleanupOrphans_KillsOrphan(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("liveness checks are unavailable on windows")
	}

	child := startSleeper(t)

	pt := NewPIDTracker(t.TempDir())
	entry := Entry{LauncherPID: 999999998, PID: child.Process.Pid, Command: child.Args[0], Args: child.Args[1:]}
	if err := pt.Add("dead-launcher", entry); err != nil {
		t.Fatal(err)
	}

	if killed := pt.CleanupOrphans(); killed != 1 {
		t.Fatalf("expected 1 killed, got %d", killed)
	}

	done := make(chan error, 1)
	go func() { done <- child.Wait() }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("orphan was not terminated")
	}
	if len(pt.Entries()) != 0 {
		t.Error("expected orphan entry to be dropped")
	}
}

func TestPIDTracker_CleanupOrphans_ReusedPIDLeftAlone(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("liveness checks are unavailable on windows")
	}

	// A stale entry whose PID now belongs to an unrelated process
	unrelated := startSleeper(t)

	pt := NewPIDTracker(t.TempDir())
	entry := Entry{
		LauncherPID: 999999998,
		PID:         unrelated.Process.Pid,
		Command:     "/usr/bin/python",
		Args:        []string{"-m", "api_tester_mcp.server"},
	}
	if err := pt.Add("stale", entry); err != nil {
		t.Fatal(err)
	}

	if killed := pt.CleanupOrphans(); killed != 0 {
		t.Fatalf("expected 0 killed, got %d", killed)
	}
	if len(pt.Entries()) != 0 {
		t.Error("expected stale entry to be dropped")
	}

	done := make(chan error, 1)
	go func() { done <- unrelated.Wait() }()
	select {
	case err := <-done:
		t.Fatalf("unrelated process was terminated: %v", err)
	case <-time.After(300 * time.Millisecond):
	}
	if !isProcessRunning(unrelated.Process.Pid) {
		t.Error("unrelated process is no longer running")
	}
}

func TestPIDTracker_CleanupOrphans_EntryWithoutCommandLeftAlone(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("liveness checks are unavailable on windows")
	}

	unrelated := startSleeper(t)

	pt := NewPIDTracker(t.TempDir())
	if err := pt.Add("legacy", Entry{LauncherPID: 999999998, PID: unrelated.Process.Pid}); err != nil {
		t.Fatal(err)
	}

	if killed := pt.CleanupOrphans(); killed != 0 {
		t.Fatalf("expected 0 killed, got %d", killed)
	}
	if !isProcessRunning(unrelated.Process.Pid) {
		t.Error("process without a recorded command was terminated")
	}
}

func TestEntry_SameCommand(t *testing.T) {
	entry := Entry{Command: "/usr/bin/python3", Args: []string{"-m", "api_tester_mcp.server", "--port", "3000"}}

	tests := []struct {
		name  string
		entry Entry
		argv  []string
		want  bool
	}{
		{"exact argv", entry, []string{"/usr/bin/python3", "-m", "api_tester_mcp.server", "--port", "3000"}, true},
		{"base name", entry, []string{"python3", "-m", "api_tester_mcp.server", "--port", "3000"}, true},
		{"space-joined line", entry, []string{"/usr/bin/python3 -m api_tester_mcp.server --port 3000"}, true},
		{"other program", entry, []string{"sleep", "30"}, false},
		{"other arguments", entry, []string{"/usr/bin/python3", "-m", "http.server", "--port", "3000"}, false},
		{"extra argument", entry, []string{"/usr/bin/python3", "-m", "api_tester_mcp.server", "--port", "3000", "-v"}, false},
		{"no command recorded", Entry{Args: []string{"-m"}}, []string{"/usr/bin/python3", "-m"}, false},
		{"empty argv", entry, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.sameCommand(tt.argv); got != tt.want {
				t.Errorf("sameCommand(%q) = %v, want %v", tt.argv, got, tt.want)
			}
		})
	}
}

// startSleeper starts a long-running helper process that is killed on cleanup.
func startSleeper(t *testing.T) *exec.Cmd {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run=TestHelperProcess", "--", "sleep")
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleeper: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})
	return cmd
}

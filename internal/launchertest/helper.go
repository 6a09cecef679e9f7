// Package launchertest provides a fake Python interpreter for launcher tests.
//
// The test binary impersonates python: InstallFakePython writes a shim
// script named python onto a private PATH that re-executes the test binary
// with -test.run=TestHelperProcess, and RunHelperProcess answers the
// invocations the launcher makes (version probe, import probe, pip install,
// the server module) according to a FakePythonConfig.
package launchertest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const (
	envHelper = "GO_WANT_HELPER_PROCESS"
	envConfig = "FAKE_PYTHON_CFG"
)

// Server modes of the fake interpreter.
const (
	// ServerModeExit prints the received arguments and exits with ServerExit.
	ServerModeExit = "exit"
	// ServerModeMCP serves MCP over stdio until stdin closes.
	ServerModeMCP = "mcp"
	// ServerModeWaitSignal waits for SIGINT or SIGTERM and exits with SignalExit.
	ServerModeWaitSignal = "wait-signal"
)

// Tool is a tool advertised by the fake MCP server.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// FakePythonConfig scripts the fake interpreter.
type FakePythonConfig struct {
	// Version is printed for --version; empty means "Python 3.11.4".
	Version     string `json:"version,omitempty"`
	VersionExit int    `json:"versionExit,omitempty"`
	// ProbeExit is the exit code of `-c` import probes.
	ProbeExit   int `json:"probeExit,omitempty"`
	InstallExit int `json:"installExit,omitempty"`
	// ScriptExit is the exit code of test_core.py and pytest runs.
	ScriptExit int `json:"scriptExit,omitempty"`

	ServerMode string `json:"serverMode,omitempty"`
	ServerExit int    `json:"serverExit,omitempty"`
	// SignalExit is the exit code after a signal in wait-signal mode; 0 means 130.
	SignalExit int    `json:"signalExit,omitempty"`
	Tools      []Tool `json:"tools,omitempty"`

	// RecordFile receives one JSON line per invocation.
	RecordFile string `json:"recordFile,omitempty"`
}

// Invocation is one recorded run of the fake interpreter.
type Invocation struct {
	Args       []string `json:"args"`
	Dir        string   `json:"dir"`
	PythonPath string   `json:"pythonPath"`
	LaunchID   string   `json:"launchId,omitempty"`
	// Signal is set on the record written when a signal arrives.
	Signal string `json:"signal,omitempty"`
}

// FakePython is an installed fake interpreter.
type FakePython struct {
	// Dir is the directory placed on PATH.
	Dir string
	// Path is the shim for the first name.
	Path   string
	record string
}

// InstallFakePython writes shims for names (default "python") into a temp
// directory and makes it the only PATH entry. The shims run the current test
// binary, so the calling package must define TestHelperProcess and call
// RunHelperProcess from it. Unix only; the test is skipped on windows.
func InstallFakePython(t *testing.T, cfg FakePythonConfig, names ...string) *FakePython {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("the fake interpreter shim needs /bin/sh")
	}
	if len(names) == 0 {
		names = []string{"python"}
	}

	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("locate test binary: %v", err)
	}

	dir := t.TempDir()
	if cfg.RecordFile == "" {
		cfg.RecordFile = filepath.Join(t.TempDir(), "invocations.jsonl")
	}

	script := fmt.Sprintf("#!/bin/sh\nexec %q -test.run=TestHelperProcess -- \"$@\"\n", exe)
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0755); err != nil {
			t.Fatalf("write %s shim: %v", name, err)
		}
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal fake python config: %v", err)
	}
	t.Setenv("PATH", dir)
	t.Setenv(envHelper, "1")
	t.Setenv(envConfig, string(cfgJSON))

	return &FakePython{Dir: dir, Path: filepath.Join(dir, names[0]), record: cfg.RecordFile}
}

// EmptyPath leaves PATH with a single empty directory so no interpreter can
// be found.
func EmptyPath(t *testing.T) {
	t.Helper()
	t.Setenv("PATH", t.TempDir())
}

// Invocations returns the recorded invocations in order.
func (f *FakePython) Invocations(t *testing.T) []Invocation {
	t.Helper()

	file, err := os.Open(f.record)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("open invocation record: %v", err)
	}
	defer file.Close()

	var out []Invocation
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var inv Invocation
		if err := json.Unmarshal(scanner.Bytes(), &inv); err != nil {
			t.Fatalf("parse invocation %q: %v", scanner.Text(), err)
		}
		out = append(out, inv)
	}
	return out
}

// Find returns the first invocation whose arguments start with prefix.
func (f *FakePython) Find(t *testing.T, prefix ...string) (Invocation, bool) {
	t.Helper()
	for _, inv := range f.Invocations(t) {
		if hasPrefix(inv.Args, prefix) {
			return inv, true
		}
	}
	return Invocation{}, false
}

// Kinds summarises the invocations as "version", "probe", "install",
// "server", "script" or "signal", in order.
func (f *FakePython) Kinds(t *testing.T) []string {
	t.Helper()
	var kinds []string
	for _, inv := range f.Invocations(t) {
		if inv.Signal != "" {
			kinds = append(kinds, "signal")
			continue
		}
		kinds = append(kinds, kindOf(inv.Args))
	}
	return kinds
}

func kindOf(args []string) string {
	switch {
	case len(args) == 0:
		return "unknown"
	case args[0] == "--version":
		return "version"
	case args[0] == "-c":
		return "probe"
	case hasPrefix(args, []string{"-m", "pip"}):
		return "install"
	case hasPrefix(args, []string{"-m", "pytest"}):
		return "script"
	case args[0] == "-m":
		return "server"
	case strings.HasSuffix(args[0], ".py"):
		return "script"
	}
	return "unknown"
}

func hasPrefix(args, prefix []string) bool {
	if len(args) < len(prefix) {
		return false
	}
	for i := range prefix {
		if args[i] != prefix[i] {
			return false
		}
	}
	return true
}

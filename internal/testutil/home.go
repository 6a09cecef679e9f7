// Package testutil provides common test utilities.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestHome creates an isolated $HOME directory for tests.
// This is critical because:
// - PIDTracker reads/writes ~/.config/api-tester-mcp/pids.json
// - Config reads ~/.config/api-tester-mcp/launcher.json
// - Orphan cleanup runs when a supervisor starts and could kill real processes
//
// The temp directory is automatically cleaned up when the test ends.
func SetupTestHome(t *testing.T) string {
	t.Helper()

	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	// Windows resolves the home directory from USERPROFILE
	t.Setenv("USERPROFILE", tmpHome)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpHome, ".config"))
	// A developer's own overrides must not leak into tests
	t.Setenv("API_TESTER_MCP_LAUNCHER_CONFIG", "")
	t.Setenv("API_TESTER_MCP_PYTHON", "")
	t.Setenv("API_TESTER_MCP_HOME", "")

	configDir := filepath.Join(tmpHome, ".config", "api-tester-mcp")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("create test config dir: %v", err)
	}

	return tmpHome
}

// WriteTestConfig writes a launcher configuration file to the isolated $HOME.
func WriteTestConfig(t *testing.T, configJSON string) string {
	t.Helper()

	home := os.Getenv("HOME")
	if home == "" {
		t.Fatal("HOME not set - call SetupTestHome first")
	}

	configPath := filepath.Join(home, ".config", "api-tester-mcp", "launcher.json")
	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	return configPath
}

// ClearCIEnv unsets every variable the launcher treats as a CI marker,
// so tests behave the same on a developer machine and in CI.
func ClearCIEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"CI", "GITHUB_ACTIONS", "CONTINUOUS_INTEGRATION", "BUILD_NUMBER", "RUN_ID"} {
		t.Setenv(name, "")
	}
}

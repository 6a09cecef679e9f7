package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirti676/api-tester-mcp/internal/config"
	"github.com/kirti676/api-tester-mcp/internal/launcher"
	"github.com/kirti676/api-tester-mcp/internal/launchertest"
	"github.com/kirti676/api-tester-mcp/internal/testutil"
)

func TestHelperProcess(t *testing.T) {
	launchertest.RunHelperProcess()
}

// buildBinary builds the api-tester-mcp binary for testing.
// It must run before the fake interpreter replaces PATH.
func buildBinary(t *testing.T) string {
	t.Helper()

	binary := filepath.Join(t.TempDir(), "api-tester-mcp")
	cmd := exec.Command("go", "build", "-o", binary, ".")
	cmd.Dir = filepath.Join(getModuleRoot(t), "cmd", "api-tester-mcp")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, out)
	}
	return binary
}

// getModuleRoot returns the root of the Go module.
func getModuleRoot(t *testing.T) string {
	t.Helper()

	// Walk up from current directory to find go.mod
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find module root")
		}
		dir = parent
	}
}

// cliEnv prepares an isolated home and package root and builds the binary.
func cliEnv(t *testing.T) (binary, root string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("CLI tests rely on the fake interpreter shim")
	}
	binary = buildBinary(t)
	testutil.SetupTestHome(t)
	testutil.ClearCIEnv(t)

	root = t.TempDir()
	// macOS temp dirs live behind a /private symlink
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return binary, root
}

func launcherCmd(binary, root string, args ...string) *exec.Cmd {
	cmd := exec.Command(binary, args...)
	cmd.Env = append(os.Environ(), config.EnvHome+"="+root)
	return cmd
}

// runCLI runs the launcher with the given args.
// Returns stdout, stderr and the exit code.
func runCLI(t *testing.T, binary, root string, args ...string) (string, string, int) {
	t.Helper()

	cmd := launcherCmd(binary, root, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("run launcher: %v", err)
		}
		code = exitErr.ExitCode()
	}
	return stdout.String(), stderr.String(), code
}

func TestHelp_PrintsUsageWithoutSpawning(t *testing.T) {
	binary, root := cliEnv(t)
	fake := launchertest.InstallFakePython(t, launchertest.FakePythonConfig{})

	for _, flag := range []string{"--help", "-h"} {
		t.Run(flag, func(t *testing.T) {
			stdout, _, code := runCLI(t, binary, root, "--port", "3000", flag)
			assert.Equal(t, 0, code)
			assert.Contains(t, stdout, "USAGE:")
			assert.Contains(t, stdout, "--setup")
		})
	}
	assert.Empty(t, fake.Invocations(t), "help must not run the interpreter")
}

func TestVersion(t *testing.T) {
	binary, root := cliEnv(t)
	fake := launchertest.InstallFakePython(t, launchertest.FakePythonConfig{})

	stdout, _, code := runCLI(t, binary, root, "--version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "api-tester-mcp v0.0.0-dev\n", stdout)
	assert.Empty(t, fake.Invocations(t))
}

func TestLaunch_ForwardsPort(t *testing.T) {
	binary, root := cliEnv(t)
	fake := launchertest.InstallFakePython(t, launchertest.FakePythonConfig{})

	stdout, stderr, code := runCLI(t, binary, root, "--port", "3000")
	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Empty(t, stdout, "stdout belongs to the server")

	assert.Equal(t, []string{"version", "probe", "server"}, fake.Kinds(t))
	server, ok := fake.Find(t, "-m", "api_tester_mcp.server")
	require.True(t, ok)
	assert.Equal(t, []string{"-m", "api_tester_mcp.server", "--port", "3000"}, server.Args)
	assert.Equal(t, root, server.Dir)
	assert.Equal(t, root, server.PythonPath)
	assert.NotEmpty(t, server.LaunchID)
}

func TestLaunch_ForwardsUnknownFlagsVerbatim(t *testing.T) {
	binary, root := cliEnv(t)
	fake := launchertest.InstallFakePython(t, launchertest.FakePythonConfig{})

	args := []string{"--config", "./api-config.json", "--verbose", "--", "--help"}
	_, stderr, code := runCLI(t, binary, root, args...)
	require.Equal(t, 0, code, "stderr: %s", stderr)

	server, ok := fake.Find(t, "-m", "api_tester_mcp.server")
	require.True(t, ok)
	assert.Equal(t, append([]string{"-m", "api_tester_mcp.server"}, args...), server.Args)
}

func TestLaunch_ForwardsCompletionWord(t *testing.T) {
	binary, root := cliEnv(t)
	fake := launchertest.InstallFakePython(t, launchertest.FakePythonConfig{})

	stdout, stderr, code := runCLI(t, binary, root, "__complete", "--port", "3000")
	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Empty(t, stdout)

	server, ok := fake.Find(t, "-m", "api_tester_mcp.server")
	require.True(t, ok)
	assert.Equal(t, []string{"-m", "api_tester_mcp.server", "__complete", "--port", "3000"}, server.Args)
}

func TestLaunch_PropagatesExitCode(t *testing.T) {
	binary, root := cliEnv(t)
	launchertest.InstallFakePython(t, launchertest.FakePythonConfig{ServerExit: 3})

	_, _, code := runCLI(t, binary, root)
	assert.Equal(t, 3, code)
}

func TestLaunch_NoInterpreter(t *testing.T) {
	binary, root := cliEnv(t)
	launchertest.EmptyPath(t)

	stdout, stderr, code := runCLI(t, binary, root, "--port", "3000")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	stderr = testutil.StripANSI(stderr)
	assert.Contains(t, stderr, "Python 3.8+ is required but not found in PATH.")
	assert.Contains(t, stderr, "brew install python3")
}

func TestLaunch_InstallsMissingDependencies(t *testing.T) {
	binary, root := cliEnv(t)
	fake := launchertest.InstallFakePython(t, launchertest.FakePythonConfig{ProbeExit: 1})

	stdout, stderr, code := runCLI(t, binary, root)
	require.Equal(t, 0, code, "stderr: %s", stderr)

	assert.Equal(t, []string{"version", "probe", "install", "server"}, fake.Kinds(t))
	install, _ := fake.Find(t, "-m", "pip")
	assert.Equal(t, []string{"-m", "pip", "install", "-e", "."}, install.Args)
	assert.Equal(t, root, install.Dir)

	// installer output must not corrupt the protocol stream
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Successfully installed")
	assert.Contains(t, stderr, "Python dependencies not found. Installing...")
}

func TestLaunch_InstallFailure(t *testing.T) {
	binary, root := cliEnv(t)
	fake := launchertest.InstallFakePython(t, launchertest.FakePythonConfig{ProbeExit: 1, InstallExit: 2})

	_, stderr, code := runCLI(t, binary, root)
	assert.Equal(t, 1, code)
	assert.NotContains(t, fake.Kinds(t), "server")

	stderr = testutil.StripANSI(stderr)
	assert.Contains(t, stderr, "Failed to install Python dependencies (exit code: 2)")
	assert.Contains(t, stderr, "pip install -e .")
}

func TestLaunch_RequirementsStrategyFromConfig(t *testing.T) {
	binary, root := cliEnv(t)
	testutil.WriteTestConfig(t, `{"schemaVersion": 1, "install": {"strategy": "requirements"}}`)
	fake := launchertest.InstallFakePython(t, launchertest.FakePythonConfig{ProbeExit: 1})

	_, stderr, code := runCLI(t, binary, root)
	require.Equal(t, 0, code, "stderr: %s", stderr)

	install, ok := fake.Find(t, "-m", "pip")
	require.True(t, ok)
	assert.Equal(t, []string{"-m", "pip", "install", "-r", "requirements.txt"}, install.Args)
}

func TestLaunch_InvalidConfig(t *testing.T) {
	binary, root := cliEnv(t)
	testutil.WriteTestConfig(t, `{"install": {"strategy": "conda"}}`)
	fake := launchertest.InstallFakePython(t, launchertest.FakePythonConfig{})

	_, stderr, code := runCLI(t, binary, root)
	assert.Equal(t, 1, code)
	assert.Contains(t, testutil.StripANSI(stderr), "Unexpected error")
	assert.Empty(t, fake.Invocations(t))
}

func TestLaunch_RelaysSignal(t *testing.T) {
	binary, root := cliEnv(t)
	fake := launchertest.InstallFakePython(t, launchertest.FakePythonConfig{
		ServerMode: launchertest.ServerModeWaitSignal,
		SignalExit: 130,
	})

	cmd := launcherCmd(binary, root)
	stderr := &syncBuffer{}
	cmd.Stderr = stderr
	require.NoError(t, cmd.Start())

	// Wait until the server has installed its signal handler
	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "ready")
	}, 20*time.Second, 20*time.Millisecond, "server did not start")

	require.NoError(t, cmd.Process.Signal(syscall.SIGINT))

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 130, exitErr.ExitCode())
	case <-time.After(20 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatal("launcher did not exit after relaying the signal")
	}

	assert.Equal(t, "signal", fake.Kinds(t)[len(fake.Kinds(t))-1])
	invs := fake.Invocations(t)
	assert.Equal(t, "interrupt", invs[len(invs)-1].Signal)
}

// syncBuffer is a bytes.Buffer safe to read while a process writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSetupFlag(t *testing.T) {
	binary, root := cliEnv(t)
	fake := launchertest.InstallFakePython(t, launchertest.FakePythonConfig{})

	stdout, stderr, code := runCLI(t, binary, root, "--setup")
	require.Equal(t, 0, code, "stderr: %s", stderr)

	assert.Equal(t, []string{"version", "install"}, fake.Kinds(t), "setup never launches the server")
	assert.Contains(t, stdout, "setup complete")
	for _, dir := range config.DefaultOutputDirs {
		assert.DirExists(t, filepath.Join(root, filepath.FromSlash(dir)))
	}
}

func TestSetupFlag_SkipsInCI(t *testing.T) {
	binary, root := cliEnv(t)
	fake := launchertest.InstallFakePython(t, launchertest.FakePythonConfig{})
	t.Setenv("GITHUB_ACTIONS", "true")

	stdout, _, code := runCLI(t, binary, root, "--setup")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "skipping Python dependency installation")
	assert.Empty(t, fake.Invocations(t))
}

func TestRunLauncher_HelpInProcess(t *testing.T) {
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	require.NoError(t, run(context.Background(), []string{"--verbose", "--help"}))
	assert.Contains(t, stdout.String(), "API Tester MCP Server v"+version)
	assert.Contains(t, stdout.String(), launcher.EnvDebugLog)
	assert.Empty(t, stderr.String())
}

func TestRunLauncher_CompletionWordIsNotACommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	require.NoError(t, run(context.Background(), []string{"__complete", "--version"}))
	assert.Equal(t, name+" v"+version+"\n", stdout.String())
	assert.Empty(t, stderr.String())
}

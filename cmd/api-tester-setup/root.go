package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirti676/api-tester-mcp/internal/launcher"
)

// Version information (set at build time via ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "api-tester-setup",
	Short: "Setup and diagnostics for the API Tester MCP server",
	Long: `api-tester-setup prepares and inspects an api_tester_mcp installation.

It installs the Python dependencies, checks that the server answers an MCP
handshake, prints client configuration and runs the bundled demo and tests.
The server itself is started by api-tester-mcp.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
}

func init() {
	// Disable automatic completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Suppress errors from being printed twice
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func Execute() {
	closeLog := launcher.SetupDebugLog(os.Getenv)
	err := rootCmd.Execute()
	closeLog()

	if err != nil {
		var exitErr *launcher.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirti676/api-tester-mcp/internal/config"
	"github.com/kirti676/api-tester-mcp/internal/console"
	"github.com/kirti676/api-tester-mcp/internal/launcher"
)

const name = "api-tester-mcp"

// version is set at build time via ldflags
var version = "0.0.0-dev"

var rootCmd = &cobra.Command{
	Use:   name + " [options]",
	Short: "Launch the API Tester MCP server",
	Long: `api-tester-mcp starts the API Tester MCP server (the api_tester_mcp Python
package), installing its Python dependencies first when they are missing.

Every argument except --help, --version and --setup is passed to the server
unchanged.`,
	// Flags belong to the server; the launcher intercepts its own by hand
	DisableFlagParsing: true,
	Args:               cobra.ArbitraryArgs,
	RunE:               runLauncher,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Suppress errors from being printed twice
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func runLauncher(cmd *cobra.Command, args []string) error {
	inv := launcher.ParseArgs(args)
	stdout := cmd.OutOrStdout()

	switch {
	case inv.Help:
		printUsage(stdout)
		return nil
	case inv.Version:
		fmt.Fprintf(stdout, "%s v%s\n", name, version)
		return nil
	}

	// stdout carries the MCP protocol; only setup may print there
	statusOut := cmd.ErrOrStderr()
	if inv.Setup {
		statusOut = stdout
	}
	status := console.New(statusOut)
	errs := console.New(cmd.ErrOrStderr())

	sup, err := launcher.Bootstrap(status)
	if err != nil {
		launcher.Report(errs, err)
		return &launcher.ExitError{Code: 1}
	}
	defer sup.Close()

	if inv.Setup {
		return runSetup(cmd.Context(), sup, errs)
	}

	code, err := sup.Run(cmd.Context(), inv.Forward)
	if err != nil {
		launcher.Report(errs, err)
	}
	if code != 0 {
		return &launcher.ExitError{Code: code}
	}
	return nil
}

func runSetup(ctx context.Context, sup *launcher.Supervisor, errs *console.Printer) error {
	err := sup.Setup(ctx, launcher.SetupOptions{
		CI:        launcher.DetectCI(os.Getenv),
		AssumeYes: true,
	})
	if err != nil {
		launcher.Report(errs, err)
		return &launcher.ExitError{Code: 1}
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `
API Tester MCP Server v%s

USAGE:
  npx @kirti676/api-tester-mcp [options]
  %s [options]

OPTIONS:
  --help, -h          Show this help message
  --version, -v       Show version information
  --setup             Install Python dependencies and exit
  --config <path>     Path to configuration file
  --port <port>       Port to listen on (default: stdio)
  --host <host>       Host to bind to (default: localhost)
  --verbose           Enable verbose logging

  Any other option is passed to the server unchanged. Everything after
  a standalone -- is passed through without interpretation.

ENVIRONMENT:
  %-24s Python interpreter to try first
  %-24s Directory holding the api_tester_mcp package
  %-24s Launcher config file (default ~/.config/api-tester-mcp/launcher.json)
  %-24s Write a debug log to this file

EXAMPLES:
  # Run via npx (recommended)
  npx @kirti676/api-tester-mcp

  # Run with custom config
  npx @kirti676/api-tester-mcp --config ./api-config.json

  # Run on specific port
  npx @kirti676/api-tester-mcp --port 3000

For more information, visit: https://github.com/kirti676/api_tester_mcp
`, version, name, config.EnvPython, config.EnvHome, config.EnvConfigPath, launcher.EnvDebugLog)
}

// run hands every argument to the launcher. Cobra's Execute would route a
// leading __complete to its hidden completion command, so it is bypassed.
func run(ctx context.Context, args []string) error {
	rootCmd.SetContext(ctx)
	return rootCmd.RunE(rootCmd, args)
}

// Execute runs the launcher and exits with the server's exit code.
func Execute() {
	closeLog := launcher.SetupDebugLog(os.Getenv)
	err := run(context.Background(), os.Args[1:])
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

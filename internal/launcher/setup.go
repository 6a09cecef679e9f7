package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kirti676/api-tester-mcp/internal/events"
)

// SetupOptions controls the setup flow.
type SetupOptions struct {
	// CI is computed once by the caller with DetectCI.
	CI bool
	// AssumeYes skips the confirmation prompt.
	AssumeYes bool
	// Confirm asks whether to proceed with installation. Nil never asks.
	Confirm func(question string) (bool, error)
}

// Setup installs the Python dependencies and creates the output directories
// without launching the server. A missing interpreter is not an error here:
// the launcher checks again at runtime.
func (s *Supervisor) Setup(ctx context.Context, opts SetupOptions) error {
	if opts.CI && s.cfg.Install.ShouldSkipInCI() {
		s.status.Step("Running in CI environment - skipping Python dependency installation")
		s.status.Success("Package ready")
		s.transition(events.StateExited, "skipped in CI")
		return nil
	}

	s.status.Title("Setting up API Tester MCP")

	interp, err := s.ResolveInterpreter(ctx)
	if err != nil {
		var notFound *InterpreterNotFoundError
		if !errors.As(err, &notFound) {
			return s.fail(err)
		}
		s.status.Warn("Python %s+ not found in PATH", s.cfg.MinPythonVersion)
		s.status.Println("Python dependencies will be installed when needed.")
		s.status.Success("Setup completed (Python will be checked at runtime)")
		s.transition(events.StateExited, "no interpreter")
		return nil
	}
	s.status.Success("Found Python: %s", interp)

	if opts.Confirm != nil && !opts.AssumeYes {
		ok, err := opts.Confirm(fmt.Sprintf("Install Python dependencies with `%s`?", s.cfg.InstallCommandLine()))
		if err != nil {
			return s.fail(fmt.Errorf("confirm installation: %w", err))
		}
		if !ok {
			s.status.Warn("Setup cancelled; dependencies will be installed on first launch")
			s.transition(events.StateExited, "declined")
			return nil
		}
	}

	if err := s.InstallDependencies(ctx, interp); err != nil {
		return s.fail(err)
	}

	created, err := s.EnsureOutputDirs()
	if err != nil {
		return s.fail(err)
	}
	for _, dir := range created {
		s.status.Step("Created directory: %s", dir)
	}

	s.status.Success("API Tester MCP setup complete!")
	s.status.Hint("Usage:",
		"api-tester-mcp [options]",
		"or use as MCP server in your client configuration",
	)
	s.transition(events.StateExited, "setup complete")
	return nil
}

// EnsureOutputDirs creates the configured output directories under the
// package root and returns the ones that did not exist yet.
func (s *Supervisor) EnsureOutputDirs() ([]string, error) {
	var created []string
	for _, dir := range s.cfg.OutputDirs {
		path := filepath.Join(s.root, filepath.FromSlash(dir))
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return created, fmt.Errorf("create output directory %s: %w", dir, err)
		}
		created = append(created, dir)
	}
	return created, nil
}

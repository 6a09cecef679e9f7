package launcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kirti676/api-tester-mcp/internal/console"
)

// remediator is implemented by errors that carry a user-facing headline and
// remediation hints.
type remediator interface {
	Headline() string
	Remediation() (heading string, lines []string)
}

// Rejection records why an interpreter candidate was skipped.
type Rejection struct {
	Name   string
	Reason string
}

// InterpreterNotFoundError is returned when no candidate answers the version probe.
type InterpreterNotFoundError struct {
	Candidates []string
	Rejected   []Rejection
	MinVersion string
}

func (e *InterpreterNotFoundError) Error() string {
	if len(e.Rejected) == 0 {
		return "no usable Python interpreter found"
	}
	reasons := make([]string, 0, len(e.Rejected))
	for _, r := range e.Rejected {
		reasons = append(reasons, r.Name+": "+r.Reason)
	}
	return "no usable Python interpreter found (" + strings.Join(reasons, "; ") + ")"
}

func (e *InterpreterNotFoundError) Headline() string {
	return fmt.Sprintf("Python %s+ is required but not found in PATH.", orDefault(e.MinVersion, "3"))
}

func (e *InterpreterNotFoundError) Remediation() (string, []string) {
	lines := []string{
		"- Windows: https://python.org/downloads/",
		"- macOS: brew install python3",
		"- Linux: apt-get install python3 python3-pip",
	}
	for _, r := range e.Rejected {
		lines = append(lines, fmt.Sprintf("(skipped %s: %s)", r.Name, r.Reason))
	}
	return fmt.Sprintf("Please install Python %s or higher:", orDefault(e.MinVersion, "3")), lines
}

// DependencyProbeError means the interpreter could not be invoked for the
// import probe. It is not fatal: the launcher falls through to installation.
type DependencyProbeError struct {
	Interpreter string
	Err         error
}

func (e *DependencyProbeError) Error() string {
	return fmt.Sprintf("probe dependencies with %s: %v", e.Interpreter, e.Err)
}

func (e *DependencyProbeError) Unwrap() error { return e.Err }

// DependencyInstallError is returned when the package manager fails.
// ExitCode is -1 when the installer could not be started or reported no code.
type DependencyInstallError struct {
	ExitCode int
	Command  string
	Err      error
}

func (e *DependencyInstallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to install Python dependencies: %v", e.Err)
	}
	return fmt.Sprintf("failed to install Python dependencies (exit code: %d)", e.ExitCode)
}

func (e *DependencyInstallError) Unwrap() error { return e.Err }

func (e *DependencyInstallError) Headline() string {
	msg := e.Error()
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func (e *DependencyInstallError) Remediation() (string, []string) {
	return "Please try manually installing:", []string{e.Command}
}

// SpawnError is returned when the server process cannot be started. It is
// distinct from the server running and exiting non-zero, which is not an error.
type SpawnError struct {
	Command    string
	InstallCmd string
	MinVersion string
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

func (e *SpawnError) Headline() string {
	return fmt.Sprintf("Failed to start API Tester MCP server: %v", e.Err)
}

func (e *SpawnError) Remediation() (string, []string) {
	return "Troubleshooting:", []string{
		fmt.Sprintf("1. Ensure Python %s+ is installed", orDefault(e.MinVersion, "3")),
		"2. Try: " + orDefault(e.InstallCmd, "pip install -e ."),
		"3. Check that all dependencies are installed",
	}
}

// UnexpectedError wraps any failure outside the launcher's taxonomy.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string { return "unexpected error: " + e.Err.Error() }

func (e *UnexpectedError) Unwrap() error { return e.Err }

func (e *UnexpectedError) Headline() string { return "Unexpected error: " + e.Err.Error() }

func (e *UnexpectedError) Remediation() (string, []string) { return "", nil }

// ExitError carries a process exit code up to main without being printed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Classify maps any error onto the launcher taxonomy; unknown errors become
// UnexpectedError.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var r remediator
	if errors.As(err, &r) {
		return err
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return &UnexpectedError{Err: err}
}

// Report prints a fatal error with its remediation hints.
func Report(p *console.Printer, err error) {
	if err == nil {
		return
	}
	var r remediator
	if !errors.As(Classify(err), &r) {
		p.Error("%v", err)
		return
	}
	p.Error("%s", r.Headline())
	heading, lines := r.Remediation()
	p.Hint(heading, lines...)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

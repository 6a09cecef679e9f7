package launcher

import (
	"context"

	"github.com/kirti676/api-tester-mcp/internal/process"
)

// Interpreter arguments of the bundled demo and test suite.
var (
	DemoArgs = []string{"test_core.py"}
	TestArgs = []string{"-m", "pytest", "tests/"}
)

// ScriptSpec builds `<interp> args...` in the package root with the same
// environment the server gets.
func (s *Supervisor) ScriptSpec(interp *Interpreter, args []string) process.Spec {
	return process.Spec{
		Path: interp.Path,
		Args: append([]string(nil), args...),
		Dir:  s.root,
		Env:  BuildChildEnv(s.environ, s.root, s.launchID, s.cfg.Env),
	}
}

// RunScript runs the interpreter with args to completion on inherited stdio
// and returns its exit code. The output directories are created first since
// the demo writes its reports there. Supervisor state is left untouched.
func (s *Supervisor) RunScript(ctx context.Context, interp *Interpreter, args []string) (int, error) {
	if _, err := s.EnsureOutputDirs(); err != nil {
		return 1, err
	}

	spec := s.ScriptSpec(interp, args)
	s.status.Step("Running %s", spec.String())
	status, err := s.runner.Run(ctx, spec)
	if err != nil {
		return 1, s.spawnError(spec, err)
	}
	// A killed demo or test run counts as a failure.
	if !status.HasCode {
		return 1, nil
	}
	return status.Code, nil
}

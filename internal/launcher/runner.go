package launcher

import (
	"context"
	"os"
	"os/exec"

	"github.com/kirti676/api-tester-mcp/internal/process"
)

// Child is a running server process.
type Child interface {
	PID() int
	Signal(sig os.Signal) error
	Wait() process.ExitStatus
}

// Runner executes the interpreter. The default runner uses os/exec; tests
// substitute a fake.
type Runner interface {
	LookPath(name string) (string, error)
	// Output runs a probe and captures its output. The error is set only when
	// the process could not be run.
	Output(ctx context.Context, spec process.Spec) ([]byte, process.ExitStatus, error)
	// Run runs a command to completion.
	Run(ctx context.Context, spec process.Spec) (process.ExitStatus, error)
	// Start spawns a long-lived process.
	Start(spec process.Spec) (Child, error)
}

type execRunner struct{}

// ExecRunner returns the Runner backed by real processes.
func ExecRunner() Runner { return execRunner{} }

func (execRunner) LookPath(name string) (string, error) { return exec.LookPath(name) }

func (execRunner) Output(ctx context.Context, spec process.Spec) ([]byte, process.ExitStatus, error) {
	return process.Output(ctx, spec)
}

func (execRunner) Run(ctx context.Context, spec process.Spec) (process.ExitStatus, error) {
	return process.Run(ctx, spec)
}

func (execRunner) Start(spec process.Spec) (Child, error) {
	h, err := process.Spawn(spec)
	if err != nil {
		return nil, err
	}
	return h, nil
}

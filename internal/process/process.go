// Package process spawns and tracks the child processes of the launcher.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// GracefulShutdownTimeout is how long Stop waits after SIGTERM before SIGKILL.
const GracefulShutdownTimeout = 5 * time.Second

// Spec describes a process invocation.
type Spec struct {
	// Path is the executable, either resolved or looked up on PATH.
	Path string
	// Args excludes argv[0].
	Args []string
	Dir  string
	// Env is the complete environment; nil inherits the parent's.
	Env []string

	// Nil streams are inherited from the parent process.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Cmd builds an *exec.Cmd for the spec. Streams are left untouched so the
// caller can attach pipes (the MCP handshake does this).
func (s Spec) Cmd(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, s.Path, s.Args...)
	cmd.Dir = s.Dir
	cmd.Env = s.Env
	return cmd
}

// String renders the command line for logs.
func (s Spec) String() string {
	return strings.TrimSpace(s.Path + " " + strings.Join(s.Args, " "))
}

// ExitStatus reports how a process ended.
type ExitStatus struct {
	// Code is the exit code; only meaningful when HasCode is true.
	Code    int
	HasCode bool
	// Signal names the terminating signal, if any.
	Signal string
}

// ExitCode returns the process exit code, defaulting to 0 when the process
// reported none (for instance because a signal terminated it).
func (e ExitStatus) ExitCode() int {
	if !e.HasCode {
		return 0
	}
	return e.Code
}

// Success reports a zero exit code.
func (e ExitStatus) Success() bool {
	return e.HasCode && e.Code == 0
}

func (e ExitStatus) String() string {
	switch {
	case e.Signal != "":
		return "terminated by " + e.Signal
	case e.HasCode:
		return fmt.Sprintf("exit code %d", e.Code)
	default:
		return "no exit code"
	}
}

// statusOf extracts an ExitStatus from a finished process state.
func statusOf(state *os.ProcessState) ExitStatus {
	if state == nil {
		return ExitStatus{}
	}
	status := ExitStatus{}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		status.Signal = ws.Signal().String()
		return status
	}
	if code := state.ExitCode(); code >= 0 {
		status.Code = code
		status.HasCode = true
	}
	return status
}

// Output runs a probe command with captured stdout and stderr.
// A non-zero exit is reported in the status, not as an error; the error is
// only set when the process could not be run at all.
func Output(ctx context.Context, spec Spec) ([]byte, ExitStatus, error) {
	cmd := spec.Cmd(ctx)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return out.Bytes(), ExitStatus{}, fmt.Errorf("run %s: %w", spec.Path, err)
		}
	}
	return out.Bytes(), statusOf(cmd.ProcessState), nil
}

// Run runs a command to completion with the spec's streams (inherited when nil).
// As with Output, a non-zero exit is not an error.
func Run(ctx context.Context, spec Spec) (ExitStatus, error) {
	h, err := Spawn(spec)
	if err != nil {
		return ExitStatus{}, err
	}

	select {
	case <-h.Done():
	case <-ctx.Done():
		_ = h.Stop()
	}
	return h.Wait(), nil
}

// Handle represents a running child process.
type Handle struct {
	cmd       *exec.Cmd
	startedAt time.Time
	done      chan struct{} // closed when process exits
	status    ExitStatus
	stopMu    sync.Mutex
	stopped   bool
}

// Spawn starts the process described by spec.
func Spawn(spec Spec) (*Handle, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdin = orDefault(spec.Stdin, os.Stdin)
	cmd.Stdout = orDefaultWriter(spec.Stdout, os.Stdout)
	cmd.Stderr = orDefaultWriter(spec.Stderr, os.Stderr)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start process: %w", err)
	}
	log.Printf("process: started pid=%d cmd=%s", cmd.Process.Pid, spec)

	h := &Handle{
		cmd:       cmd,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
	go h.watchProcess()
	return h, nil
}

func orDefault(r io.Reader, def io.Reader) io.Reader {
	if r == nil {
		return def
	}
	return r
}

func orDefaultWriter(w io.Writer, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}

// watchProcess reaps the process and records its exit status.
func (h *Handle) watchProcess() {
	err := h.cmd.Wait()
	h.status = statusOf(h.cmd.ProcessState)
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			log.Printf("process: wait pid=%d: %v", h.PID(), err)
		}
	}
	log.Printf("process: pid=%d exited (%s) after %s", h.PID(), h.status, time.Since(h.startedAt).Round(time.Millisecond))
	close(h.done)
}

// PID returns the process ID.
func (h *Handle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Done is closed once the process has exited and been reaped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the process exits and returns its status.
func (h *Handle) Wait() ExitStatus {
	<-h.done
	return h.status
}

// IsRunning returns true if the process has not exited yet.
func (h *Handle) IsRunning() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Signal delivers sig to the process. Signalling an exited process is a no-op.
func (h *Handle) Signal(sig os.Signal) error {
	if !h.IsRunning() {
		return nil
	}
	err := signalProcess(h.cmd.Process, sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// Stop terminates the process gracefully, then forcefully after GracefulShutdownTimeout.
func (h *Handle) Stop() error {
	h.stopMu.Lock()
	if h.stopped {
		h.stopMu.Unlock()
		<-h.done
		return nil
	}
	h.stopped = true
	h.stopMu.Unlock()

	if err := terminateProcess(h.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		log.Printf("process: terminate pid=%d: %v", h.PID(), err)
	}

	select {
	case <-h.done:
	case <-time.After(GracefulShutdownTimeout):
		_ = h.cmd.Process.Kill()
		<-h.done
	}
	return nil
}

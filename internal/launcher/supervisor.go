// Package launcher supervises the api_tester_mcp Python server: it finds an
// interpreter, makes sure the dependencies are installed, launches the server
// and relays signals until it exits.
package launcher

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kirti676/api-tester-mcp/internal/config"
	"github.com/kirti676/api-tester-mcp/internal/console"
	"github.com/kirti676/api-tester-mcp/internal/events"
	"github.com/kirti676/api-tester-mcp/internal/process"
)

// Options configures a Supervisor. Only Config and PackageRoot are required.
type Options struct {
	Config      *config.Config
	PackageRoot string

	// Status receives user-facing status lines. The launcher points it at
	// stderr because stdout carries the MCP protocol.
	Status *console.Printer
	// InstallOutput receives the installer's stdout during Run; nil means os.Stderr.
	InstallOutput io.Writer

	Runner  Runner
	Bus     *events.Bus
	Tracker *process.PIDTracker

	// Environ is the parent environment handed to children; nil means os.Environ().
	Environ  []string
	LaunchID string

	Notify     func(c chan<- os.Signal, sig ...os.Signal)
	StopNotify func(c chan<- os.Signal)
}

// Supervisor owns a single launch. It is not reusable: states only move forward.
type Supervisor struct {
	cfg        *config.Config
	root       string
	status     *console.Printer
	installOut io.Writer
	runner     Runner
	bus        *events.Bus
	tracker    *process.PIDTracker
	environ    []string
	launchID   string
	notify     func(c chan<- os.Signal, sig ...os.Signal)
	stopNotify func(c chan<- os.Signal)

	mu      sync.Mutex
	state   events.LaunchState
	history []events.LaunchState
}

// New creates a supervisor in the Idle state.
func New(opts Options) *Supervisor {
	s := &Supervisor{
		cfg:        opts.Config,
		root:       opts.PackageRoot,
		status:     opts.Status,
		installOut: opts.InstallOutput,
		runner:     opts.Runner,
		bus:        opts.Bus,
		tracker:    opts.Tracker,
		environ:    opts.Environ,
		launchID:   opts.LaunchID,
		notify:     opts.Notify,
		stopNotify: opts.StopNotify,
		state:      events.StateIdle,
		history:    []events.LaunchState{events.StateIdle},
	}
	if s.cfg == nil {
		s.cfg = config.NewConfig()
	}
	if s.status == nil {
		s.status = console.New(nil)
	}
	if s.installOut == nil {
		s.installOut = os.Stderr
	}
	if s.runner == nil {
		s.runner = ExecRunner()
	}
	if s.environ == nil {
		s.environ = os.Environ()
	}
	if s.launchID == "" {
		s.launchID = uuid.NewString()
	}
	if s.notify == nil {
		s.notify = signal.Notify
	}
	if s.stopNotify == nil {
		s.stopNotify = signal.Stop
	}
	return s
}

// LaunchID identifies this launch in events, the PID file and the child's env.
func (s *Supervisor) LaunchID() string { return s.launchID }

// PackageRoot returns the directory the server and installer run in.
func (s *Supervisor) PackageRoot() string { return s.root }

// Config returns the supervisor's configuration.
func (s *Supervisor) Config() *config.Config { return s.cfg }

// State returns the current state.
func (s *Supervisor) State() events.LaunchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns every state entered so far, starting with Idle.
func (s *Supervisor) History() []events.LaunchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.LaunchState(nil), s.history...)
}

// Close releases the event bus.
func (s *Supervisor) Close() {
	s.bus.Close()
}

func (s *Supervisor) transition(to events.LaunchState, detail string) {
	s.apply(events.NewStateChangedEvent(s.launchID, events.StateIdle, to, detail))
}

// apply moves the state machine forward. Backward moves and moves out of a
// terminal state are ignored.
func (s *Supervisor) apply(evt events.StateChangedEvent) {
	s.mu.Lock()
	from := s.state
	if from.IsTerminal() || evt.NewState <= from {
		s.mu.Unlock()
		log.Printf("launcher: ignoring transition %s -> %s", from, evt.NewState)
		return
	}
	s.state = evt.NewState
	s.history = append(s.history, evt.NewState)
	s.mu.Unlock()

	evt.OldState = from
	s.bus.Publish(evt)
}

// fail records a fatal error and returns it classified.
func (s *Supervisor) fail(err error) error {
	err = Classify(err)
	s.transition(events.StateFailed, err.Error())
	s.bus.Publish(events.NewErrorEvent(s.launchID, err, "launch failed"))
	return err
}

// ProbeScript renders the dependency import check for `python -c`.
func ProbeScript(modules []string) string {
	parts := make([]string, 0, len(modules))
	for _, m := range modules {
		parts = append(parts, "import "+m)
	}
	return strings.Join(parts, "; ")
}

// CheckDependencies reports whether every probe module imports. A failing
// import is (false, nil); only failure to invoke the interpreter is an error.
func (s *Supervisor) CheckDependencies(ctx context.Context, interp *Interpreter) (bool, error) {
	s.transition(events.StateCheckingDependencies, interp.Path)

	out, status, err := s.runner.Output(ctx, process.Spec{
		Path: interp.Path,
		Args: []string{"-c", ProbeScript(s.cfg.DependencyProbe)},
		Env:  s.environ,
	})
	if err != nil {
		return false, &DependencyProbeError{Interpreter: interp.Path, Err: err}
	}
	if !status.Success() {
		log.Printf("launcher: dependency probe failed (%s): %s", status, strings.TrimSpace(string(out)))
		return false, nil
	}
	return true, nil
}

// InstallDependencies runs the configured pip install in the package root
// with inherited stdio.
func (s *Supervisor) InstallDependencies(ctx context.Context, interp *Interpreter) error {
	return s.installDependencies(ctx, interp, nil, nil)
}

func (s *Supervisor) installDependencies(ctx context.Context, interp *Interpreter, stdin io.Reader, stdout io.Writer) error {
	command := s.cfg.InstallCommandLine()
	s.transition(events.StateInstallingDependencies, command)
	s.status.Step("Installing Python dependencies (%s)...", command)

	status, err := s.runner.Run(ctx, process.Spec{
		Path:   interp.Path,
		Args:   s.cfg.InstallArgs(),
		Dir:    s.root,
		Env:    s.environ,
		Stdin:  stdin,
		Stdout: stdout,
	})
	if err != nil {
		return &DependencyInstallError{ExitCode: -1, Command: command, Err: err}
	}
	if !status.Success() {
		code := -1
		if status.HasCode {
			code = status.Code
		}
		return &DependencyInstallError{ExitCode: code, Command: command}
	}

	s.status.Success("Python dependencies installed successfully")
	return nil
}

// ServerSpec builds the server invocation: `<interp> -m <module> args...` in
// the package root with PYTHONPATH set to it.
func (s *Supervisor) ServerSpec(interp *Interpreter, args []string) process.Spec {
	argv := make([]string, 0, len(args)+2)
	argv = append(argv, "-m", s.cfg.ServerModule)
	argv = append(argv, args...)
	return process.Spec{
		Path: interp.Path,
		Args: argv,
		Dir:  s.root,
		Env:  BuildChildEnv(s.environ, s.root, s.launchID, s.cfg.Env),
	}
}

// Launch spawns the server with inherited stdio.
func (s *Supervisor) Launch(ctx context.Context, interp *Interpreter, args []string) (Child, error) {
	spec := s.ServerSpec(interp, args)
	if err := ctx.Err(); err != nil {
		return nil, s.spawnError(spec, err)
	}

	if s.tracker != nil {
		if n := s.tracker.CleanupOrphans(); n > 0 {
			log.Printf("launcher: terminated %d orphaned server(s)", n)
		}
	}

	s.status.Step("Starting API Tester MCP server...")
	child, err := s.runner.Start(spec)
	if err != nil {
		return nil, s.spawnError(spec, err)
	}

	if s.tracker != nil {
		entry := process.Entry{PID: child.PID(), Command: spec.Path, Args: spec.Args}
		if err := s.tracker.Add(s.launchID, entry); err != nil {
			log.Printf("launcher: track pid=%d: %v", child.PID(), err)
		}
	}

	evt := events.NewStateChangedEvent(s.launchID, events.StateIdle, events.StateLaunched, spec.String())
	evt.PID = child.PID()
	s.apply(evt)
	return child, nil
}

func (s *Supervisor) spawnError(spec process.Spec, err error) error {
	return &SpawnError{
		Command:    spec.String(),
		InstallCmd: s.cfg.InstallCommandLine(),
		MinVersion: s.cfg.MinPythonVersion,
		Err:        err,
	}
}

// RelaySignals forwards each signal received on sigCh to the child, one per
// receipt, until done is closed. Cancelling ctx asks the child to terminate
// once; the relay keeps waiting for done afterwards.
func (s *Supervisor) RelaySignals(ctx context.Context, child Child, sigCh <-chan os.Signal, done <-chan struct{}) {
	ctxDone := ctx.Done()
	for {
		select {
		case <-done:
			return
		case sig := <-sigCh:
			s.forward(child, sig)
		case <-ctxDone:
			ctxDone = nil
			s.forward(child, process.TerminateSignal)
		}
	}
}

// forward relays sig to the child. On windows an interrupt is a no-op since
// the console delivers it to the child directly.
func (s *Supervisor) forward(child Child, sig os.Signal) {
	err := child.Signal(sig)
	if err != nil {
		log.Printf("launcher: relay %s to pid=%d: %v", sig, child.PID(), err)
	} else {
		log.Printf("launcher: relayed %s to pid=%d", sig, child.PID())
	}
	s.bus.Publish(events.NewSignalRelayedEvent(s.launchID, sig.String(), child.PID(), err))
}

// AwaitExit blocks until the child exits and returns its exit code, 0 when
// the child reported none.
func (s *Supervisor) AwaitExit(child Child) int {
	status := child.Wait()
	if s.tracker != nil {
		if err := s.tracker.Remove(s.launchID); err != nil {
			log.Printf("launcher: untrack launch=%s: %v", s.launchID, err)
		}
	}

	code := status.ExitCode()
	evt := events.NewStateChangedEvent(s.launchID, events.StateIdle, events.StateExited, status.String())
	evt.PID = child.PID()
	evt.Exit = &events.ExitInfo{Code: code, Signal: status.Signal}
	s.apply(evt)
	return code
}

// Supervise relays signals to the child while waiting for it to exit, and
// returns the child's exit code.
func (s *Supervisor) Supervise(ctx context.Context, child Child, sigCh <-chan os.Signal) int {
	evt := events.NewStateChangedEvent(s.launchID, events.StateIdle, events.StateRelaying, "")
	evt.PID = child.PID()
	s.apply(evt)

	done := make(chan struct{})
	var code int
	var g errgroup.Group
	g.Go(func() error {
		defer close(done)
		code = s.AwaitExit(child)
		return nil
	})
	g.Go(func() error {
		s.RelaySignals(ctx, child, sigCh, done)
		return nil
	})
	_ = g.Wait()
	return code
}

// Run performs a whole launch and returns the code the launcher should exit
// with. Fatal failures are returned as classified errors alongside code 1;
// a server exiting non-zero is not an error.
func (s *Supervisor) Run(ctx context.Context, args []string) (int, error) {
	interp, err := s.ResolveInterpreter(ctx)
	if err != nil {
		return 1, s.fail(err)
	}

	ok, err := s.CheckDependencies(ctx, interp)
	if err != nil {
		log.Printf("launcher: %v", err)
		s.status.Warn("Could not check Python dependencies: %v", err)
	}
	if !ok {
		s.status.Warn("Python dependencies not found. Installing...")
		// stdin and stdout belong to the MCP client; keep the installer off them
		if err := s.installDependencies(ctx, interp, strings.NewReader(""), s.installOut); err != nil {
			return 1, s.fail(err)
		}
	}

	// Subscribe before spawning so no signal slips between spawn and relay
	sigCh := make(chan os.Signal, 4)
	s.notify(sigCh, process.RelayedSignals...)
	defer s.stopNotify(sigCh)

	child, err := s.Launch(ctx, interp, args)
	if err != nil {
		return 1, s.fail(err)
	}
	return s.Supervise(ctx, child, sigCh), nil
}

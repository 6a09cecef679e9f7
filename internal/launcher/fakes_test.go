package launcher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/kirti676/api-tester-mcp/internal/config"
	"github.com/kirti676/api-tester-mcp/internal/console"
	"github.com/kirti676/api-tester-mcp/internal/process"
)

var errNotFound = errors.New("executable file not found in $PATH")

// fakeChild is a server process that exits when told to, or when signalled
// if exitOnSignal is set.
type fakeChild struct {
	pid          int
	exit         chan process.ExitStatus
	exitOnSignal *process.ExitStatus

	mu      sync.Mutex
	signals []os.Signal
}

func newFakeChild(pid int) *fakeChild {
	return &fakeChild{pid: pid, exit: make(chan process.ExitStatus, 1)}
}

// exitedChild has already finished with status.
func exitedChild(status process.ExitStatus) *fakeChild {
	c := newFakeChild(4242)
	c.exit <- status
	return c
}

func (c *fakeChild) PID() int { return c.pid }

func (c *fakeChild) Signal(sig os.Signal) error {
	c.mu.Lock()
	c.signals = append(c.signals, sig)
	c.mu.Unlock()
	if c.exitOnSignal != nil {
		select {
		case c.exit <- *c.exitOnSignal:
		default:
		}
	}
	return nil
}

func (c *fakeChild) Wait() process.ExitStatus { return <-c.exit }

func (c *fakeChild) Signals() []os.Signal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]os.Signal(nil), c.signals...)
}

// fakeRunner answers interpreter invocations from canned results and
// records every call in order.
type fakeRunner struct {
	paths       map[string]string
	versionOut  map[string]string
	versionCode map[string]int

	probeCode     int
	probeErr      error
	installStatus process.ExitStatus
	installErr    error
	scriptStatus  process.ExitStatus
	startErr      error
	child         *fakeChild
	started       chan struct{}

	mu    sync.Mutex
	calls []string
	specs map[string]process.Spec
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		paths:         map[string]string{"python": "/usr/bin/python"},
		versionOut:    map[string]string{},
		versionCode:   map[string]int{},
		installStatus: process.ExitStatus{Code: 0, HasCode: true},
		scriptStatus:  process.ExitStatus{Code: 0, HasCode: true},
		child:         exitedChild(process.ExitStatus{Code: 0, HasCode: true}),
		started:       make(chan struct{}),
		specs:         map[string]process.Spec{},
	}
}

func (r *fakeRunner) record(call string, spec process.Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	if spec.Path != "" {
		r.specs[call] = spec
	}
}

func (r *fakeRunner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *fakeRunner) Spec(call string) (process.Spec, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.specs[call]
	return s, ok
}

func (r *fakeRunner) LookPath(name string) (string, error) {
	r.record("lookpath "+name, process.Spec{})
	if p, ok := r.paths[name]; ok {
		return p, nil
	}
	return "", errNotFound
}

func (r *fakeRunner) Output(_ context.Context, spec process.Spec) ([]byte, process.ExitStatus, error) {
	switch spec.Args[0] {
	case "--version":
		r.record("version "+spec.Path, spec)
		out, ok := r.versionOut[spec.Path]
		if !ok {
			out = "Python 3.11.4"
		}
		return []byte(out), process.ExitStatus{Code: r.versionCode[spec.Path], HasCode: true}, nil
	case "-c":
		r.record("probe", spec)
		if r.probeErr != nil {
			return nil, process.ExitStatus{}, r.probeErr
		}
		return nil, process.ExitStatus{Code: r.probeCode, HasCode: true}, nil
	}
	r.record("output", spec)
	return nil, process.ExitStatus{Code: 2, HasCode: true}, nil
}

func (r *fakeRunner) Run(_ context.Context, spec process.Spec) (process.ExitStatus, error) {
	if len(spec.Args) < 2 || spec.Args[1] != "pip" {
		r.record("script", spec)
		return r.scriptStatus, nil
	}
	r.record("install", spec)
	if r.installErr != nil {
		return process.ExitStatus{}, r.installErr
	}
	return r.installStatus, nil
}

func (r *fakeRunner) Start(spec process.Spec) (Child, error) {
	r.record("start", spec)
	if r.startErr != nil {
		return nil, r.startErr
	}
	close(r.started)
	return r.child, nil
}

// fakeSignals stands in for signal.Notify.
type fakeSignals struct {
	mu      sync.Mutex
	ch      chan<- os.Signal
	sigs    []os.Signal
	stopped bool
	runner  *fakeRunner
}

func (f *fakeSignals) Notify(c chan<- os.Signal, sig ...os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ch = c
	f.sigs = sig
	if f.runner != nil {
		f.runner.record("notify", process.Spec{})
	}
}

func (f *fakeSignals) Stop(chan<- os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeSignals) Registered() []os.Signal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sigs
}

func (f *fakeSignals) Stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func (f *fakeSignals) Send(sig os.Signal) {
	f.mu.Lock()
	ch := f.ch
	f.mu.Unlock()
	ch <- sig
}

type harness struct {
	sup     *Supervisor
	runner  *fakeRunner
	signals *fakeSignals
	status  *bytes.Buffer
	install *bytes.Buffer
	root    string
}

func newHarness(t *testing.T, runner *fakeRunner, cfg *config.Config) *harness {
	t.Helper()
	if cfg == nil {
		cfg = config.NewConfig()
	}
	h := &harness{
		runner:  runner,
		signals: &fakeSignals{runner: runner},
		status:  &bytes.Buffer{},
		install: &bytes.Buffer{},
		root:    t.TempDir(),
	}
	h.sup = New(Options{
		Config:        cfg,
		PackageRoot:   h.root,
		Status:        console.New(h.status),
		InstallOutput: h.install,
		Runner:        runner,
		Environ:       []string{"PATH=/usr/bin", "PYTHONPATH=/elsewhere", "HOME=/home/test"},
		LaunchID:      "launch-test",
		Notify:        h.signals.Notify,
		StopNotify:    h.signals.Stop,
	})
	return h
}

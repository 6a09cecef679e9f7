package launcher

import (
	"io"
	"log"
	"os"

	"github.com/kirti676/api-tester-mcp/internal/config"
	"github.com/kirti676/api-tester-mcp/internal/console"
	"github.com/kirti676/api-tester-mcp/internal/events"
	"github.com/kirti676/api-tester-mcp/internal/process"
)

// EnvDebugLog names a file that receives the debug log. Flags cannot be used
// for this because every flag is forwarded to the server.
const EnvDebugLog = "API_TESTER_MCP_DEBUG_LOG"

// SetupDebugLog points the standard logger at the debug log file, or
// discards it. The returned function closes the file.
func SetupDebugLog(getenv func(string) string) func() {
	path := getenv(EnvDebugLog)
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("=== api-tester-mcp starting pid=%d ===", os.Getpid())
	return func() {
		log.SetOutput(io.Discard)
		f.Close()
	}
}

// LogEvent writes a lifecycle event to the debug log.
func LogEvent(e events.Event) {
	switch evt := e.(type) {
	case events.StateChangedEvent:
		log.Printf("EVENT StateChanged: launch=%s old=%s new=%s pid=%d detail=%s",
			evt.LaunchID(), evt.OldState, evt.NewState, evt.PID, evt.Detail)
	case events.SignalRelayedEvent:
		log.Printf("EVENT SignalRelayed: launch=%s signal=%s pid=%d err=%v",
			evt.LaunchID(), evt.Signal, evt.PID, evt.Err)
	case events.ErrorEvent:
		log.Printf("EVENT Error: launch=%s msg=%s err=%v", evt.LaunchID(), evt.Message, evt.Err)
	}
}

// Bootstrap builds a supervisor from the config file and the process
// environment. Status lines go to status.
func Bootstrap(status *console.Printer) (*Supervisor, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	exe, err := os.Executable()
	if err != nil {
		log.Printf("launcher: locate executable: %v", err)
		exe = ""
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := cfg.ResolvePackageRoot(exe, cwd)
	if err != nil {
		return nil, err
	}
	log.Printf("launcher: package root %s", root)

	var tracker *process.PIDTracker
	if cfg.PIDTrackingEnabled() {
		if dir, err := config.Dir(); err != nil {
			log.Printf("launcher: pid tracking disabled: %v", err)
		} else {
			tracker = process.NewPIDTracker(dir)
		}
	}

	bus := events.NewBus()
	bus.Subscribe(LogEvent)

	return New(Options{
		Config:      cfg,
		PackageRoot: root,
		Status:      status,
		Runner:      ExecRunner(),
		Bus:         bus,
		Tracker:     tracker,
	}), nil
}

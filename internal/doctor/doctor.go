// Package doctor checks that the Python server can be started and speaks MCP.
package doctor

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kirti676/api-tester-mcp/internal/launcher"
	"github.com/kirti676/api-tester-mcp/internal/process"
)

// DefaultTimeout bounds the MCP handshake.
const DefaultTimeout = 30 * time.Second

// ToolInfo describes a tool advertised by the server.
type ToolInfo struct {
	Name        string
	Description string
}

// Report is the outcome of a successful handshake.
type Report struct {
	ServerName      string
	ServerVersion   string
	ProtocolVersion string
	Tools           []ToolInfo
	Elapsed         time.Duration
}

// Handshake connects an MCP client over transport, performs initialize and
// lists every tool page.
func Handshake(ctx context.Context, transport mcp.Transport, clientVersion string) (*Report, error) {
	start := time.Now()

	client := mcp.NewClient(&mcp.Implementation{Name: "api-tester-doctor", Version: clientVersion}, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	defer session.Close()

	report := &Report{}
	if init := session.InitializeResult(); init != nil {
		report.ProtocolVersion = init.ProtocolVersion
		if init.ServerInfo != nil {
			report.ServerName = init.ServerInfo.Name
			report.ServerVersion = init.ServerInfo.Version
		}
	}

	params := &mcp.ListToolsParams{}
	for {
		res, err := session.ListTools(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("list tools: %w", err)
		}
		for _, tool := range res.Tools {
			report.Tools = append(report.Tools, ToolInfo{Name: tool.Name, Description: tool.Description})
		}
		if res.NextCursor == "" {
			break
		}
		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}

	report.Elapsed = time.Since(start)
	log.Printf("doctor: handshake with %s %s done in %s (%d tools)",
		report.ServerName, report.ServerVersion, report.Elapsed.Round(time.Millisecond), len(report.Tools))
	return report, nil
}

// ServerTransport runs spec as an MCP server over its stdin and stdout.
// The server's stderr goes to stderr.
func ServerTransport(ctx context.Context, spec process.Spec, stderr io.Writer) *mcp.CommandTransport {
	cmd := spec.Cmd(ctx)
	cmd.Stderr = stderr
	return &mcp.CommandTransport{Command: cmd}
}

// Step is one diagnostic check.
type Step struct {
	Name    string
	OK      bool
	Skipped bool
	Detail  string
}

// Result collects every step of a diagnosis.
type Result struct {
	Interpreter *launcher.Interpreter
	Steps       []Step
	Report      *Report
}

// OK reports whether every step that ran passed.
func (r *Result) OK() bool {
	for _, s := range r.Steps {
		if !s.OK && !s.Skipped {
			return false
		}
	}
	return true
}

func (r *Result) add(name string, ok bool, detail string) {
	r.Steps = append(r.Steps, Step{Name: name, OK: ok, Detail: detail})
}

func (r *Result) skip(name, detail string) {
	r.Steps = append(r.Steps, Step{Name: name, Skipped: true, Detail: detail})
}

// Options tunes Diagnose.
type Options struct {
	// Timeout bounds the handshake; zero means DefaultTimeout.
	Timeout       time.Duration
	ClientVersion string
	// ServerArgs are passed to the server module.
	ServerArgs []string
	// Stderr receives the server's stderr; nil discards it.
	Stderr io.Writer
}

// Diagnose resolves the interpreter, probes the dependencies and performs an
// MCP handshake with the server. It never installs anything; later steps are
// skipped once one fails.
func Diagnose(ctx context.Context, sup *launcher.Supervisor, opts Options) *Result {
	res := &Result{}

	interp, err := sup.ResolveInterpreter(ctx)
	if err != nil {
		res.add("Python interpreter", false, err.Error())
		res.skip("Python dependencies", "no interpreter")
		res.skip("MCP handshake", "no interpreter")
		return res
	}
	res.Interpreter = interp
	res.add("Python interpreter", true, interp.String())

	ok, err := sup.CheckDependencies(ctx, interp)
	switch {
	case err != nil:
		res.add("Python dependencies", false, err.Error())
	case !ok:
		res.add("Python dependencies", false, "missing; run `api-tester-setup setup` or `"+sup.Config().InstallCommandLine()+"`")
	default:
		res.add("Python dependencies", true, "importable")
	}
	if err != nil || !ok {
		res.skip("MCP handshake", "dependencies missing")
		return res
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stderr := opts.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	spec := sup.ServerSpec(interp, opts.ServerArgs)
	report, err := Handshake(hctx, ServerTransport(hctx, spec, stderr), opts.ClientVersion)
	if err != nil {
		res.add("MCP handshake", false, err.Error())
		return res
	}
	res.Report = report
	res.add("MCP handshake", true, fmt.Sprintf("%s %s (protocol %s, %d tools)",
		report.ServerName, report.ServerVersion, report.ProtocolVersion, len(report.Tools)))
	return res
}

package launchertest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RunHelperProcess implements the fake interpreter when the test binary is
// re-executed through a shim. Packages using InstallFakePython call it from
// their own TestHelperProcess:
//
//	func TestHelperProcess(t *testing.T) {
//	    launchertest.RunHelperProcess()
//	}
//
// It returns immediately in a normal test run.
func RunHelperProcess() {
	if os.Getenv(envHelper) != "1" {
		return
	}

	var cfg FakePythonConfig
	if err := json.Unmarshal([]byte(os.Getenv(envConfig)), &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "fake python: bad config: %v\n", err)
		os.Exit(2)
	}

	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	os.Exit(fakePython(cfg, args))
}

func fakePython(cfg FakePythonConfig, args []string) int {
	record(cfg, Invocation{Args: args})

	switch kindOf(args) {
	case "version":
		version := cfg.Version
		if version == "" {
			version = "Python 3.11.4"
		}
		fmt.Println(version)
		return cfg.VersionExit
	case "probe":
		if cfg.ProbeExit != 0 {
			fmt.Fprintln(os.Stderr, "ModuleNotFoundError: No module named 'fastmcp'")
		}
		return cfg.ProbeExit
	case "install":
		fmt.Println("Successfully installed fastmcp pydantic requests")
		return cfg.InstallExit
	case "script":
		fmt.Println("running", strings.Join(args, " "))
		return cfg.ScriptExit
	case "server":
		return serve(cfg, args[2:])
	}
	fmt.Fprintf(os.Stderr, "fake python: unexpected invocation %q\n", args)
	return 2
}

func serve(cfg FakePythonConfig, args []string) int {
	switch cfg.ServerMode {
	case ServerModeMCP:
		return serveMCP(cfg)
	case ServerModeWaitSignal:
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		fmt.Fprintln(os.Stderr, "ready")
		select {
		case sig := <-sigCh:
			record(cfg, Invocation{Args: args, Signal: sig.String()})
			if cfg.SignalExit == 0 {
				return 130
			}
			return cfg.SignalExit
		case <-time.After(30 * time.Second):
			return 3
		}
	default:
		fmt.Fprintln(os.Stderr, "server args:", strings.Join(args, " "))
		return cfg.ServerExit
	}
}

// serveMCP runs a go-sdk MCP server on stdio advertising cfg.Tools.
func serveMCP(cfg FakePythonConfig) int {
	server := mcp.NewServer(&mcp.Implementation{Name: "api-tester-mcp", Version: "test"}, nil)
	for _, tool := range cfg.Tools {
		name := tool.Name
		mcp.AddTool(server, &mcp.Tool{Name: tool.Name, Description: tool.Description},
			func(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
				return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: name + " ok"}}}, nil, nil
			})
	}

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		fmt.Fprintf(os.Stderr, "fake python: mcp server: %v\n", err)
		return cfg.ServerExit
	}
	return cfg.ServerExit
}

func record(cfg FakePythonConfig, inv Invocation) {
	if cfg.RecordFile == "" {
		return
	}
	inv.Dir, _ = os.Getwd()
	inv.PythonPath = os.Getenv("PYTHONPATH")
	inv.LaunchID = os.Getenv("API_TESTER_MCP_LAUNCH_ID")

	data, err := json.Marshal(inv)
	if err != nil {
		return
	}
	f, err := os.OpenFile(cfg.RecordFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	f.Write(append(data, '\n'))
}

package mcpinstall

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Defaults of the client snippet.
const (
	DefaultClientCommand = "api-tester-mcp"
	DefaultHost          = "localhost"
	DefaultPort          = 8000
)

// ClientServer is one entry under mcpServers.
type ClientServer struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

// ClientConfig is the configuration block MCP clients read.
type ClientConfig struct {
	MCPServers map[string]ClientServer `json:"mcpServers"`
}

// NewClientConfig builds a config with a single server entry.
func NewClientConfig(name, command string, args []string) ClientConfig {
	if args == nil {
		args = []string{}
	}
	return ClientConfig{MCPServers: map[string]ClientServer{
		name: {Command: command, Args: args},
	}}
}

// ServerArgs renders the host and port flags, omitting unset values.
func ServerArgs(host string, port int) []string {
	var args []string
	if host != "" {
		args = append(args, "--host", host)
	}
	if port > 0 {
		args = append(args, "--port", strconv.Itoa(port))
	}
	return args
}

// JSON renders the config indented by two spaces.
func (c ClientConfig) JSON() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return "", fmt.Errorf("encode client config: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

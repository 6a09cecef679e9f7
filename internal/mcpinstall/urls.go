// Package mcpinstall renders MCP client configuration for the launcher:
// one-click install URLs for VS Code and the mcpServers snippet.
package mcpinstall

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Defaults for the published npm package.
const (
	DefaultName    = "api-tester"
	DefaultCommand = "npx"
	DefaultPackage = "@kirti676/api-tester-mcp@latest"
)

const (
	redirectBase = "https://insiders.vscode.dev/redirect?url="
	badgeVSCode  = "https://img.shields.io/badge/Install%20in-VS%20Code-blue?style=for-the-badge&logo=visual-studio-code"
	badgeInsider = "https://img.shields.io/badge/Install%20in-VS%20Code%20Insiders-blue?style=for-the-badge&logo=visual-studio-code"
)

// ServerConfig is the server entry VS Code installs. Field order is the
// JSON key order.
type ServerConfig struct {
	Name    string   `json:"name"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// DefaultServerConfig runs the latest published package through npx.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{Name: DefaultName, Command: DefaultCommand, Args: []string{DefaultPackage}}
}

// InstallURLs holds every rendering of one server config.
type InstallURLs struct {
	Config ServerConfig
	// Encoded is the component-encoded compact JSON of Config.
	Encoded string

	VSCode         string
	VSCodeInsiders string

	WebVSCode         string
	WebVSCodeInsiders string

	BadgeVSCode         string
	BadgeVSCodeInsiders string
}

// Generate renders the install URLs for cfg.
func Generate(cfg ServerConfig) (*InstallURLs, error) {
	if cfg.Name == "" || cfg.Command == "" {
		return nil, fmt.Errorf("server config needs a name and a command")
	}
	if cfg.Args == nil {
		cfg.Args = []string{}
	}

	raw, err := compactJSON(cfg)
	if err != nil {
		return nil, err
	}
	encoded := EncodeURIComponent(raw)

	u := &InstallURLs{
		Config:            cfg,
		Encoded:           encoded,
		VSCode:            "vscode:mcp/install?" + encoded,
		VSCodeInsiders:    "vscode-insiders:mcp/install?" + encoded,
		WebVSCode:         redirectBase + "vscode%3Amcp%2Finstall%3F" + encoded,
		WebVSCodeInsiders: redirectBase + "vscode-insiders%3Amcp%2Finstall%3F" + encoded,
	}
	u.BadgeVSCode = fmt.Sprintf("[![Install in VS Code](%s)](%s)", badgeVSCode, u.WebVSCode)
	u.BadgeVSCodeInsiders = fmt.Sprintf("[![Install in VS Code Insiders](%s)](%s)", badgeInsider, u.WebVSCodeInsiders)
	return u, nil
}

// PrettyConfig renders the config as indented JSON.
func (u *InstallURLs) PrettyConfig() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(u.Config); err != nil {
		return "", fmt.Errorf("encode server config: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func compactJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode server config: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// EncodeURIComponent percent-encodes s the way JavaScript's
// encodeURIComponent does: every UTF-8 byte except A-Z a-z 0-9 and
// - _ . ! ~ * ' ( ) is escaped with upper-case hex.
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

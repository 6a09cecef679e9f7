package mcpinstall

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultEncoded = "%7B%22name%22%3A%22api-tester%22%2C%22command%22%3A%22npx%22%2C%22args%22%3A%5B%22%40kirti676%2Fapi-tester-mcp%40latest%22%5D%7D"

func TestEncodeURIComponent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abcXYZ019", "abcXYZ019"},
		{"-_.!~*'()", "-_.!~*'()"},
		{"a b", "a%20b"},
		{"a+b=c&d", "a%2Bb%3Dc%26d"},
		{":/?#[]@", "%3A%2F%3F%23%5B%5D%40"},
		{"héllo wörld & <tag> ~!*()'", "h%C3%A9llo%20w%C3%B6rld%20%26%20%3Ctag%3E%20~!*()'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EncodeURIComponent(tt.in), "input %q", tt.in)
	}
}

func TestEncodeURIComponent_RoundTrips(t *testing.T) {
	in := `{"args":["--config","C:\\Users\\me\\api config.json"]}`
	out, err := url.PathUnescape(EncodeURIComponent(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestGenerate_Default(t *testing.T) {
	urls, err := Generate(DefaultServerConfig())
	require.NoError(t, err)

	assert.Equal(t, defaultEncoded, urls.Encoded)
	assert.Equal(t, "vscode:mcp/install?"+defaultEncoded, urls.VSCode)
	assert.Equal(t, "vscode-insiders:mcp/install?"+defaultEncoded, urls.VSCodeInsiders)
	assert.Equal(t, "https://insiders.vscode.dev/redirect?url=vscode%3Amcp%2Finstall%3F"+defaultEncoded, urls.WebVSCode)
	assert.Equal(t, "https://insiders.vscode.dev/redirect?url=vscode-insiders%3Amcp%2Finstall%3F"+defaultEncoded, urls.WebVSCodeInsiders)
	assert.Equal(t,
		"[![Install in VS Code](https://img.shields.io/badge/Install%20in-VS%20Code-blue?style=for-the-badge&logo=visual-studio-code)]"+
			"(https://insiders.vscode.dev/redirect?url=vscode%3Amcp%2Finstall%3F"+defaultEncoded+")",
		urls.BadgeVSCode)
	assert.Contains(t, urls.BadgeVSCodeInsiders, "Install in VS Code Insiders")
	assert.Contains(t, urls.BadgeVSCodeInsiders, "vscode-insiders%3Amcp%2Finstall%3F"+defaultEncoded)
}

func TestGenerate_CustomConfig(t *testing.T) {
	urls, err := Generate(ServerConfig{Name: "local-tester", Command: "api-tester-mcp"})
	require.NoError(t, err)

	raw, err := url.PathUnescape(urls.Encoded)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"local-tester","command":"api-tester-mcp","args":[]}`, raw)

	pretty, err := urls.PrettyConfig()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"local-tester\",\n  \"command\": \"api-tester-mcp\",\n  \"args\": []\n}", pretty)
}

func TestGenerate_DoesNotEscapeHTML(t *testing.T) {
	urls, err := Generate(ServerConfig{Name: "a&b", Command: "<cmd>"})
	require.NoError(t, err)
	assert.Contains(t, urls.Encoded, "a%26b")
	assert.Contains(t, urls.Encoded, "%3Ccmd%3E")
}

func TestGenerate_RequiresNameAndCommand(t *testing.T) {
	_, err := Generate(ServerConfig{Name: "x"})
	assert.Error(t, err)
	_, err = Generate(ServerConfig{Command: "x"})
	assert.Error(t, err)
}

func TestClientConfig_Default(t *testing.T) {
	cfg := NewClientConfig(DefaultName, DefaultClientCommand, ServerArgs(DefaultHost, DefaultPort))
	out, err := cfg.JSON()
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"mcpServers": {
			"api-tester": {
				"command": "api-tester-mcp",
				"args": ["--host", "localhost", "--port", "8000"]
			}
		}
	}`, out)

	var decoded ClientConfig
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, cfg, decoded)
}

func TestServerArgs(t *testing.T) {
	assert.Equal(t, []string{"--host", "0.0.0.0", "--port", "3000"}, ServerArgs("0.0.0.0", 3000))
	assert.Equal(t, []string{"--port", "3000"}, ServerArgs("", 3000))
	assert.Nil(t, ServerArgs("", 0))

	out, err := NewClientConfig("api-tester", "api-tester-mcp", ServerArgs("", 0)).JSON()
	require.NoError(t, err)
	assert.Contains(t, out, `"args": []`)
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const (
	configDir  = ".config/api-tester-mcp"
	configFile = "launcher.json"
	// configFileYAML is used when only the YAML variant exists.
	configFileYAML = "launcher.yaml"

	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "API_TESTER_MCP_LAUNCHER_CONFIG"
	// EnvPython pins an interpreter that is tried before the configured list.
	EnvPython = "API_TESTER_MCP_PYTHON"
	// EnvHome overrides the package root.
	EnvHome = "API_TESTER_MCP_HOME"
)

// packageMarkers identify a directory holding the Python package.
var packageMarkers = []string{"api_tester_mcp", "pyproject.toml", "requirements.txt"}

// Dir returns the launcher's state directory (~/.config/api-tester-mcp).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// ConfigPath returns the full path to the config file.
// EnvConfigPath takes precedence over the default location. In the default
// directory launcher.json wins over launcher.yaml; when neither exists the
// JSON path is returned.
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	jsonPath := filepath.Join(dir, configFile)
	if _, err := os.Stat(jsonPath); err != nil {
		yamlPath := filepath.Join(dir, configFileYAML)
		if _, err := os.Stat(yamlPath); err == nil {
			return yamlPath, nil
		}
	}
	return jsonPath, nil
}

// DefaultPath returns where a new config file goes in the default directory.
func DefaultPath(asYAML bool) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if asYAML {
		return filepath.Join(dir, configFileYAML), nil
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the configuration from the default path.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from a specific path.
// Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
// Returns a default config if the file doesn't exist.
func LoadFrom(path string) (*Config, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data, isYAML(path))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes, validates and defaults a config document.
func Parse(data []byte, asYAML bool) (*Config, error) {
	var doc any
	if asYAML {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// An empty YAML document decodes to nil
	if doc == nil {
		return NewConfig(), nil
	}

	if err := Validate(doc); err != nil {
		return nil, err
	}

	var cfg Config
	if asYAML {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Validate checks a decoded config document against the launcher schema.
func Validate(doc any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(jsonSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// SaveTo writes the configuration to a specific path atomically.
// Uses a temp file + rename pattern for atomic writes.
func SaveTo(cfg *Config, path string) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var data []byte
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("rename config: %w", err)
	}

	return nil
}

// ApplyEnv applies the environment overrides on top of the file config.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if py := getenv(EnvPython); py != "" {
		candidates := []string{py}
		for _, name := range c.Interpreters {
			if name != py {
				candidates = append(candidates, name)
			}
		}
		c.Interpreters = candidates
	}
	if home := getenv(EnvHome); home != "" {
		c.PackageRoot = home
	}
}

// ResolvePackageRoot determines the directory holding the Python package.
// An explicit PackageRoot wins; otherwise the executable's directory and its
// parent are searched for a package marker, falling back to cwd.
func (c *Config) ResolvePackageRoot(executable, cwd string) (string, error) {
	if c.PackageRoot != "" {
		root, err := expandHome(c.PackageRoot)
		if err != nil {
			return "", err
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return "", fmt.Errorf("resolve package root: %w", err)
		}
		return abs, nil
	}

	if executable != "" {
		if resolved, err := filepath.EvalSymlinks(executable); err == nil {
			executable = resolved
		}
		exeDir := filepath.Dir(executable)
		for _, dir := range []string{exeDir, filepath.Dir(exeDir)} {
			if hasPackageMarker(dir) {
				return dir, nil
			}
		}
	}

	return cwd, nil
}

func hasPackageMarker(dir string) bool {
	for _, m := range packageMarkers {
		if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
			return true
		}
	}
	return false
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

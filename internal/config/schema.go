// Package config provides configuration schema and persistence for the api-tester-mcp launcher.
package config

// SchemaVersion is the current config schema version.
const SchemaVersion = 1

// InstallStrategy selects how Python dependencies are installed.
type InstallStrategy string

const (
	// InstallEditable runs `pip install -e .` in the package root.
	InstallEditable InstallStrategy = "editable"
	// InstallRequirements runs `pip install -r <requirementsFile>` in the package root.
	InstallRequirements InstallStrategy = "requirements"
)

// Defaults used when the config file is absent or leaves a field empty.
const (
	DefaultServerModule     = "api_tester_mcp.server"
	DefaultMinPythonVersion = "3.8"
	DefaultRequirementsFile = "requirements.txt"
	DefaultStrategy         = InstallEditable
)

// DefaultInterpreters is the ordered list of interpreter names tried on PATH.
var DefaultInterpreters = []string{"python", "python3"}

// DefaultDependencyProbe lists the modules that must be importable before launch.
var DefaultDependencyProbe = []string{"fastmcp", "pydantic", "requests"}

// DefaultOutputDirs are created under the package root by setup.
var DefaultOutputDirs = []string{"output", "output/reports", "output/scenarios", "output/test_cases"}

// InstallConfig controls dependency installation.
type InstallConfig struct {
	Strategy         InstallStrategy `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	RequirementsFile string          `json:"requirementsFile,omitempty" yaml:"requirementsFile,omitempty"`
	// SkipInCI is a pointer so an explicit false survives defaulting.
	SkipInCI *bool `json:"skipInCI,omitempty" yaml:"skipInCI,omitempty"`
}

// Config is the root configuration structure.
type Config struct {
	SchemaVersion    int               `json:"schemaVersion" yaml:"schemaVersion"`
	PackageRoot      string            `json:"packageRoot,omitempty" yaml:"packageRoot,omitempty"`
	Interpreters     []string          `json:"interpreters,omitempty" yaml:"interpreters,omitempty"`
	// MinPythonVersion rejects older interpreters; "0" accepts any version.
	MinPythonVersion string            `json:"minPythonVersion,omitempty" yaml:"minPythonVersion,omitempty"`
	ServerModule     string            `json:"serverModule,omitempty" yaml:"serverModule,omitempty"`
	DependencyProbe  []string          `json:"dependencyProbe,omitempty" yaml:"dependencyProbe,omitempty"`
	Install          InstallConfig     `json:"install" yaml:"install"`
	OutputDirs       []string          `json:"outputDirs,omitempty" yaml:"outputDirs,omitempty"`
	TrackPIDs        *bool             `json:"trackPids,omitempty" yaml:"trackPids,omitempty"`
	Env              map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// NewConfig creates a new configuration with default values.
func NewConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills every empty field with its default.
func (c *Config) applyDefaults() {
	if c.SchemaVersion == 0 {
		c.SchemaVersion = SchemaVersion
	}
	if len(c.Interpreters) == 0 {
		c.Interpreters = append([]string(nil), DefaultInterpreters...)
	}
	if c.MinPythonVersion == "" {
		c.MinPythonVersion = DefaultMinPythonVersion
	}
	if c.ServerModule == "" {
		c.ServerModule = DefaultServerModule
	}
	if len(c.DependencyProbe) == 0 {
		c.DependencyProbe = append([]string(nil), DefaultDependencyProbe...)
	}
	if c.Install.Strategy == "" {
		c.Install.Strategy = DefaultStrategy
	}
	if c.Install.RequirementsFile == "" {
		c.Install.RequirementsFile = DefaultRequirementsFile
	}
	if c.Install.SkipInCI == nil {
		c.Install.SetSkipInCI(true)
	}
	if len(c.OutputDirs) == 0 {
		c.OutputDirs = append([]string(nil), DefaultOutputDirs...)
	}
	if c.TrackPIDs == nil {
		c.SetTrackPIDs(true)
	}
	if c.Env == nil {
		c.Env = make(map[string]string)
	}
}

// ShouldSkipInCI returns whether setup skips installation in CI (nil defaults to true).
func (i InstallConfig) ShouldSkipInCI() bool {
	return i.SkipInCI == nil || *i.SkipInCI
}

// SetSkipInCI sets the CI skip behaviour.
func (i *InstallConfig) SetSkipInCI(skip bool) {
	i.SkipInCI = &skip
}

// PIDTrackingEnabled returns whether child PIDs are tracked (nil defaults to true).
func (c *Config) PIDTrackingEnabled() bool {
	return c.TrackPIDs == nil || *c.TrackPIDs
}

// SetTrackPIDs sets the PID tracking state.
func (c *Config) SetTrackPIDs(enabled bool) {
	c.TrackPIDs = &enabled
}

// InstallArgs returns the pip arguments for the configured strategy,
// without the interpreter itself.
func (c *Config) InstallArgs() []string {
	switch c.Install.Strategy {
	case InstallRequirements:
		return []string{"-m", "pip", "install", "-r", c.Install.RequirementsFile}
	default:
		return []string{"-m", "pip", "install", "-e", "."}
	}
}

// InstallCommandLine renders the install command for remediation hints.
func (c *Config) InstallCommandLine() string {
	if c.Install.Strategy == InstallRequirements {
		return "pip install -r " + c.Install.RequirementsFile
	}
	return "pip install -e ."
}

// jsonSchema validates the decoded config document before it is mapped onto Config.
const jsonSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "schemaVersion": {"type": "integer", "minimum": 1, "maximum": 1},
    "packageRoot": {"type": "string"},
    "interpreters": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "minPythonVersion": {"type": "string", "pattern": "^[0-9]+(\\.[0-9]+){0,2}$"},
    "serverModule": {"type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_]*(\\.[A-Za-z_][A-Za-z0-9_]*)*$"},
    "dependencyProbe": {
      "type": "array",
      "items": {"type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_]*(\\.[A-Za-z_][A-Za-z0-9_]*)*$"}
    },
    "install": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "strategy": {"type": "string", "enum": ["editable", "requirements"]},
        "requirementsFile": {"type": "string", "minLength": 1},
        "skipInCI": {"type": "boolean"}
      }
    },
    "outputDirs": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "trackPids": {"type": "boolean"},
    "env": {"type": "object", "additionalProperties": {"type": "string"}}
  }
}`

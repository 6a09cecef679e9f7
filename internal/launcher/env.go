package launcher

import (
	"runtime"
	"sort"
	"strings"
)

// EnvLaunchID is set in the server's environment to the launch ID.
const EnvLaunchID = "API_TESTER_MCP_LAUNCH_ID"

// ciVars are the environment variables that mark a CI run when non-empty.
var ciVars = []string{"CI", "GITHUB_ACTIONS", "CONTINUOUS_INTEGRATION", "BUILD_NUMBER", "RUN_ID"}

// DetectCI reports whether getenv describes a CI environment.
func DetectCI(getenv func(string) string) bool {
	for _, name := range ciVars {
		if getenv(name) != "" {
			return true
		}
	}
	return false
}

// BuildChildEnv returns base with PYTHONPATH pointed at root, the launch ID
// set, and extra merged on top. Existing keys are replaced in place.
func BuildChildEnv(base []string, root, launchID string, extra map[string]string) []string {
	env := append([]string(nil), base...)
	env = setEnv(env, "PYTHONPATH", root)
	if launchID != "" {
		env = setEnv(env, EnvLaunchID, launchID)
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = setEnv(env, k, extra[k])
	}
	return env
}

func setEnv(env []string, key, value string) []string {
	entry := key + "=" + value
	for i, kv := range env {
		k, _, ok := strings.Cut(kv, "=")
		if ok && envKeyEqual(k, key) {
			env[i] = entry
			return env
		}
	}
	return append(env, entry)
}

func envKeyEqual(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

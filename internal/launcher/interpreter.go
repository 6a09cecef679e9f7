package launcher

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/kirti676/api-tester-mcp/internal/events"
	"github.com/kirti676/api-tester-mcp/internal/process"
)

// Interpreter is a Python executable that answered the version probe.
type Interpreter struct {
	// Name is the candidate as configured, e.g. "python3".
	Name string
	// Path is the resolved executable.
	Path string
	// Version is the reported version, empty when it could not be parsed.
	Version string
}

func (i *Interpreter) String() string {
	if i.Version == "" {
		return i.Path
	}
	return fmt.Sprintf("%s (Python %s)", i.Path, i.Version)
}

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// parsePythonVersion extracts "3.11.4" from output such as "Python 3.11.4".
func parsePythonVersion(out []byte) string {
	return versionRe.FindString(string(out))
}

// compareVersions compares dotted numeric versions; missing parts count as 0.
func compareVersions(a, b string) int {
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	n := max(len(pa), len(pb))
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(pa) {
			x, _ = strconv.Atoi(pa[i])
		}
		if i < len(pb) {
			y, _ = strconv.Atoi(pb[i])
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

// ResolveInterpreter tries each configured candidate in order. The first one
// found on PATH that exits 0 for --version (and meets the minimum version,
// when its version is readable) wins.
func (s *Supervisor) ResolveInterpreter(ctx context.Context) (*Interpreter, error) {
	s.transition(events.StateResolvingInterpreter, strings.Join(s.cfg.Interpreters, ","))

	var rejected []Rejection
	for _, name := range s.cfg.Interpreters {
		path, err := s.runner.LookPath(name)
		if err != nil {
			rejected = append(rejected, Rejection{Name: name, Reason: "not found on PATH"})
			continue
		}

		out, status, err := s.runner.Output(ctx, process.Spec{Path: path, Args: []string{"--version"}, Env: s.environ})
		if err != nil {
			rejected = append(rejected, Rejection{Name: name, Reason: err.Error()})
			continue
		}
		if !status.Success() {
			rejected = append(rejected, Rejection{Name: name, Reason: "--version " + status.String()})
			continue
		}

		version := parsePythonVersion(out)
		if version != "" && s.cfg.MinPythonVersion != "" && compareVersions(version, s.cfg.MinPythonVersion) < 0 {
			rejected = append(rejected, Rejection{
				Name:   name,
				Reason: fmt.Sprintf("version %s is older than %s", version, s.cfg.MinPythonVersion),
			})
			continue
		}

		interp := &Interpreter{Name: name, Path: path, Version: version}
		log.Printf("launcher: using interpreter %s", interp)
		return interp, nil
	}

	return nil, &InterpreterNotFoundError{
		Candidates: append([]string(nil), s.cfg.Interpreters...),
		Rejected:   rejected,
		MinVersion: s.cfg.MinPythonVersion,
	}
}

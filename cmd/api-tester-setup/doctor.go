package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"github.com/kirti676/api-tester-mcp/internal/console"
	"github.com/kirti676/api-tester-mcp/internal/doctor"
	"github.com/kirti676/api-tester-mcp/internal/launcher"
)

var (
	doctorTimeout    time.Duration
	doctorServerLogs bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the server starts and answers an MCP handshake",
	Long: `Resolve the Python interpreter, check the Python dependencies, start the
server and perform an MCP initialize and tools/list exchange with it.

Nothing is installed. The command exits non-zero when any check fails.

Examples:
  api-tester-setup doctor
  api-tester-setup doctor --timeout 1m --server-logs`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", doctor.DefaultTimeout, "How long to wait for the handshake")
	doctorCmd.Flags().BoolVar(&doctorServerLogs, "server-logs", false, "Show the server's stderr")

	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := console.New(cmd.OutOrStdout())
	errs := console.New(cmd.ErrOrStderr())

	// Status lines would interleave with the spinner
	sup, err := bootstrap(errs, console.New(nil))
	if err != nil {
		return err
	}
	defer sup.Close()

	opts := doctor.Options{Timeout: doctorTimeout, ClientVersion: version}
	if doctorServerLogs {
		opts.Stderr = cmd.ErrOrStderr()
	}

	res, err := diagnose(cmd.Context(), sup, opts, interactive() && !doctorServerLogs)
	if err != nil {
		return err
	}
	printDiagnosis(out, res)
	if !res.OK() {
		return &launcher.ExitError{Code: 1}
	}
	return nil
}

// diagnose runs the checks, behind a spinner when attached to a terminal.
func diagnose(ctx context.Context, sup *launcher.Supervisor, opts doctor.Options, withSpinner bool) (*doctor.Result, error) {
	if !withSpinner {
		return doctor.Diagnose(ctx, sup, opts), nil
	}

	var res *doctor.Result
	err := spinner.New().
		Title("Checking API Tester MCP...").
		Action(func() { res = doctor.Diagnose(ctx, sup, opts) }).
		Run()
	if err != nil {
		return nil, fmt.Errorf("doctor: %w", err)
	}
	if res == nil {
		return nil, fmt.Errorf("doctor: interrupted")
	}
	return res, nil
}

func printDiagnosis(p *console.Printer, res *doctor.Result) {
	p.Title("API Tester MCP doctor")

	rows := make([][]string, 0, len(res.Steps))
	for _, s := range res.Steps {
		rows = append(rows, []string{s.Name, stepStatus(s), s.Detail})
	}
	p.Table([]string{"Check", "Status", "Detail"}, rows)

	if res.Report != nil {
		p.Println()
		p.Step("%d tools advertised (handshake took %s)", len(res.Report.Tools), res.Report.Elapsed.Round(time.Millisecond))
		if len(res.Report.Tools) > 0 {
			tools := make([][]string, 0, len(res.Report.Tools))
			for _, t := range res.Report.Tools {
				tools = append(tools, []string{t.Name, t.Description})
			}
			p.Table([]string{"Tool", "Description"}, tools)
		}
	}

	p.Println()
	if res.OK() {
		p.Success("All checks passed")
		return
	}
	p.Error("Some checks failed")
}

func stepStatus(s doctor.Step) string {
	switch {
	case s.Skipped:
		return "skipped"
	case s.OK:
		return "ok"
	default:
		return "failed"
	}
}

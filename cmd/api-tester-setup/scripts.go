package main

import (
	"github.com/spf13/cobra"

	"github.com/kirti676/api-tester-mcp/internal/console"
	"github.com/kirti676/api-tester-mcp/internal/launcher"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the demonstration workflow (test_core.py)",
	Long: `Run test_core.py from the package root with the resolved interpreter.
Reports are written under output/.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScript(cmd, "Running demonstration", "Demo", launcher.DemoArgs, func(p *console.Printer) {
			p.Success("Demo completed successfully!")
			p.Hint("", "Check the 'output' directory for generated files",
				"Open output/reports/demo_api_test_report.html in your browser")
		})
	},
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the Python test suite (pytest tests/)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScript(cmd, "Running tests", "Tests", launcher.TestArgs, func(p *console.Printer) {
			p.Success("All tests passed!")
		})
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(testCmd)
}

// runScript resolves the interpreter and runs args in the package root,
// exiting with the script's exit code.
func runScript(cmd *cobra.Command, title, name string, args []string, onSuccess func(*console.Printer)) error {
	status := console.New(cmd.OutOrStdout())
	errs := console.New(cmd.ErrOrStderr())

	sup, err := bootstrap(errs, status)
	if err != nil {
		return err
	}
	defer sup.Close()

	interp, err := sup.ResolveInterpreter(cmd.Context())
	if err != nil {
		launcher.Report(errs, err)
		return &launcher.ExitError{Code: 1}
	}

	status.Title("%s", title)
	code, err := sup.RunScript(cmd.Context(), interp, args)
	if err != nil {
		launcher.Report(errs, err)
		return &launcher.ExitError{Code: 1}
	}
	if code != 0 {
		errs.Error("%s failed (exit code: %d)", name, code)
		return &launcher.ExitError{Code: code}
	}
	onSuccess(status)
	return nil
}

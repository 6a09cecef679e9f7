package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirti676/api-tester-mcp/internal/config"
	"github.com/kirti676/api-tester-mcp/internal/console"
	"github.com/kirti676/api-tester-mcp/internal/launcher"
)

var (
	setupYes      bool
	setupStrategy string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Install the Python dependencies and create the output directories",
	Long: `Install the Python dependencies of api_tester_mcp and create the output
directories the server writes reports to.

Installation is skipped in CI unless install.skipInCI is false in the
launcher config. On a terminal the install is confirmed first; use --yes to
skip the prompt.

Examples:
  api-tester-setup setup
  api-tester-setup setup --yes --strategy requirements`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupYes, "yes", "y", false, "Skip confirmation prompt")
	setupCmd.Flags().StringVar(&setupStrategy, "strategy", "", "Install strategy: editable or requirements (default from config)")

	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	status := console.New(cmd.OutOrStdout())
	errs := console.New(cmd.ErrOrStderr())

	sup, err := bootstrap(errs, status)
	if err != nil {
		return err
	}
	defer sup.Close()

	if setupStrategy != "" {
		strategy := config.InstallStrategy(setupStrategy)
		if strategy != config.InstallEditable && strategy != config.InstallRequirements {
			return fmt.Errorf("invalid --strategy %q: want %s or %s", setupStrategy, config.InstallEditable, config.InstallRequirements)
		}
		sup.Config().Install.Strategy = strategy
	}

	opts := launcher.SetupOptions{
		CI:        launcher.DetectCI(os.Getenv),
		AssumeYes: setupYes || !interactive(),
		Confirm:   confirm,
	}
	if err := sup.Setup(cmd.Context(), opts); err != nil {
		launcher.Report(errs, err)
		return &launcher.ExitError{Code: 1}
	}
	return nil
}

// bootstrap builds a supervisor whose status lines go to status. Failures
// are reported on errs.
func bootstrap(errs, status *console.Printer) (*launcher.Supervisor, error) {
	sup, err := launcher.Bootstrap(status)
	if err != nil {
		launcher.Report(errs, err)
		return nil, &launcher.ExitError{Code: 1}
	}
	return sup, nil
}
